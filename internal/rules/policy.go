package rules

import (
	"context"
	"fmt"

	"gatherly/internal/domain"
)

// Entity names one of the six governed row types.
type Entity string

const (
	EntityProfile     Entity = "profile"
	EntityEvent       Entity = "event"
	EntityRSVP        Entity = "rsvp"
	EntityGroup       Entity = "group"
	EntityGroupMember Entity = "group_member"
	EntityMessage     Entity = "message"
)

// Operation names one row-level operation.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// RoleResolver answers membership questions about a (group, user) pair. When
// a rule guards a write, the resolver must read from the same snapshot the
// write will commit against.
type RoleResolver interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
}

type ruleKey struct {
	entity Entity
	op     Operation
}

type ruleFn func(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error)

// ruleTable is the full policy. Absent entries deny regardless of principal:
// rsvp update, profile delete, group-member update. Provisioning writes
// (profile on signup, creator admin membership) never consult this table;
// they are system-performed.
var ruleTable = map[ruleKey]ruleFn{
	{EntityProfile, OpSelect}: allowAll,
	{EntityProfile, OpInsert}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Profile](row).ID), nil
	},
	{EntityProfile, OpUpdate}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Profile](row).ID), nil
	},

	{EntityEvent, OpSelect}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		e := rowAs[*domain.Event](row)
		return e.Status == domain.EventStatusActive || p.Is(e.OrganizerID), nil
	},
	{EntityEvent, OpInsert}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		e := rowAs[*domain.Event](row)
		return p.Role == domain.RoleOrganizer && p.Is(e.OrganizerID), nil
	},
	{EntityEvent, OpUpdate}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Event](row).OrganizerID), nil
	},
	{EntityEvent, OpDelete}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Event](row).OrganizerID), nil
	},

	{EntityRSVP, OpSelect}: allowAll,
	{EntityRSVP, OpInsert}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.RSVP](row).UserID), nil
	},
	{EntityRSVP, OpDelete}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.RSVP](row).UserID), nil
	},

	{EntityGroup, OpSelect}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		g := rowAs[*domain.Group](row)
		return g.IsPublic || p.Is(g.CreatorID), nil
	},
	{EntityGroup, OpInsert}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Group](row).CreatorID), nil
	},
	{EntityGroup, OpUpdate}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Group](row).CreatorID), nil
	},
	{EntityGroup, OpDelete}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.Group](row).CreatorID), nil
	},

	{EntityGroupMember, OpSelect}: func(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error) {
		return memberOf(ctx, roles, rowAs[*domain.GroupMember](row).GroupID, p)
	},
	{EntityGroupMember, OpInsert}: func(_ context.Context, _ RoleResolver, p domain.Principal, row any) (bool, error) {
		return p.Is(rowAs[*domain.GroupMember](row).UserID), nil
	},
	{EntityGroupMember, OpDelete}: func(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error) {
		m := rowAs[*domain.GroupMember](row)
		if p.Is(m.UserID) {
			return true, nil
		}
		return adminOf(ctx, roles, m.GroupID, p)
	},

	{EntityMessage, OpSelect}: func(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error) {
		return memberOf(ctx, roles, rowAs[*domain.Message](row).GroupID, p)
	},
	{EntityMessage, OpInsert}: func(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error) {
		m := rowAs[*domain.Message](row)
		if !p.Is(m.UserID) {
			return false, nil
		}
		return memberOf(ctx, roles, m.GroupID, p)
	},
	{EntityMessage, OpUpdate}: messageAuthorOrAdmin,
	{EntityMessage, OpDelete}: messageAuthorOrAdmin,
}

func allowAll(context.Context, RoleResolver, domain.Principal, any) (bool, error) {
	return true, nil
}

func messageAuthorOrAdmin(ctx context.Context, roles RoleResolver, p domain.Principal, row any) (bool, error) {
	m := rowAs[*domain.Message](row)
	if p.Is(m.UserID) {
		return true, nil
	}
	return adminOf(ctx, roles, m.GroupID, p)
}

func memberOf(ctx context.Context, roles RoleResolver, groupID string, p domain.Principal) (bool, error) {
	if p.IsAnonymous() {
		return false, nil
	}
	return roles.IsMember(ctx, groupID, p.ID)
}

func adminOf(ctx context.Context, roles RoleResolver, groupID string, p domain.Principal) (bool, error) {
	if p.IsAnonymous() {
		return false, nil
	}
	return roles.IsAdmin(ctx, groupID, p.ID)
}

func rowAs[T any](row any) T {
	v, ok := row.(T)
	if !ok {
		panic(fmt.Sprintf("policy: row is %T, want %T", row, v))
	}
	return v
}

// Evaluator decides allow/deny for one (entity, operation, principal, row)
// at a time. Default is deny: operations with no rule never pass.
type Evaluator struct {
	roles RoleResolver
}

// NewEvaluator returns an Evaluator backed by the given resolver.
func NewEvaluator(roles RoleResolver) *Evaluator {
	return &Evaluator{roles: roles}
}

// Allowed evaluates the rule for one row. Batch callers must call it once
// per row and admit only the rows that pass.
func (e *Evaluator) Allowed(ctx context.Context, p domain.Principal, entity Entity, op Operation, row any) (bool, error) {
	rule, ok := ruleTable[ruleKey{entity, op}]
	if !ok {
		return false, nil
	}
	return rule(ctx, e.roles, p, row)
}

// Authorize is Allowed with a typed denial: writes get an
// AuthorizationError, selects get ErrNotFound so a denied read looks like an
// absent row.
func (e *Evaluator) Authorize(ctx context.Context, p domain.Principal, entity Entity, op Operation, row any) error {
	ok, err := e.Allowed(ctx, p, entity, op, row)
	if err != nil {
		return err
	}
	if !ok {
		if op == OpSelect {
			return domain.ErrNotFound
		}
		return &domain.AuthorizationError{Entity: string(entity), Operation: string(op)}
	}
	return nil
}
