package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
	"gatherly/internal/rules"
)

type groupService struct {
	groupRepo      domain.GroupRepository
	memberRepo     domain.GroupMemberRepository
	policy         *rules.Evaluator
	contextTimeout time.Duration
}

func NewGroupService(groupRepo domain.GroupRepository, memberRepo domain.GroupMemberRepository, policy *rules.Evaluator, timeout time.Duration) domain.GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		memberRepo:     memberRepo,
		policy:         policy,
		contextTimeout: timeout,
	}
}

// CreateGroup inserts the group; the creator's admin membership is
// provisioned inside the same transaction by the repository.
func (s *groupService) CreateGroup(ctx context.Context, principal domain.Principal, group *domain.Group) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group.CreatorID = principal.ID
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	if err := s.policy.Authorize(ctx, principal, rules.EntityGroup, rules.OpInsert, group); err != nil {
		return err
	}
	if err := rules.ValidateGroup(group); err != nil {
		return err
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (s *groupService) GetGroup(ctx context.Context, principal domain.Principal, id string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroup, rules.OpSelect, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) ListGroups(ctx context.Context, principal domain.Principal, filter domain.GroupFilter) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.groupRepo.List(ctx, principal, filter)
}

func (s *groupService) ListMyGroups(ctx context.Context, principal domain.Principal) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if principal.IsAnonymous() {
		return []*domain.Group{}, nil
	}
	return s.groupRepo.ListByMemberID(ctx, principal.ID)
}

func (s *groupService) UpdateGroup(ctx context.Context, principal domain.Principal, id string, upd domain.GroupUpdate) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroup, rules.OpUpdate, group); err != nil {
		return nil, err
	}

	next := *group
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Description != nil {
		next.Description = upd.Description
	}
	if err := rules.ValidateGroup(&next); err != nil {
		return nil, err
	}

	updated, err := s.groupRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update group: %w", err)
	}
	return updated, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, principal domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get group: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroup, rules.OpDelete, group); err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// JoinGroup adds the principal as a plain member of a public group. Racing
// joins resolve on the (group_id, user_id) unique constraint.
func (s *groupService) JoinGroup(ctx context.Context, principal domain.Principal, groupID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member := &domain.GroupMember{
		GroupID:  groupID,
		UserID:   principal.ID,
		Role:     domain.GroupRoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroupMember, rules.OpInsert, member); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferentialError{Reference: "group does not exist"}
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if !group.IsPublic && group.CreatorID != principal.ID {
		return nil, domain.NewValidationError("group", "cannot join a private group")
	}
	if err := rules.ValidateGroupMember(member); err != nil {
		return nil, err
	}

	if err := s.memberRepo.Add(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// LeaveGroup removes the principal's own membership. The last remaining
// admin cannot leave; they must promote someone or delete the group.
func (s *groupService) LeaveGroup(ctx context.Context, principal domain.Principal, groupID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	role, err := s.memberRepo.GetRole(ctx, groupID, principal.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get membership: %w", err)
	}

	member := &domain.GroupMember{GroupID: groupID, UserID: principal.ID, Role: role}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroupMember, rules.OpDelete, member); err != nil {
		return err
	}

	// The repository refuses to remove the group's only admin, inside the
	// same transaction as the delete.
	if err := s.memberRepo.Remove(ctx, groupID, principal.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove membership: %w", err)
	}
	return nil
}

// RemoveMember removes another user's membership; allowed for that user or
// a group admin per the membership delete rule.
func (s *groupService) RemoveMember(ctx context.Context, principal domain.Principal, groupID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	role, err := s.memberRepo.GetRole(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get membership: %w", err)
	}

	member := &domain.GroupMember{GroupID: groupID, UserID: userID, Role: role}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroupMember, rules.OpDelete, member); err != nil {
		return err
	}

	if err := s.memberRepo.Remove(ctx, groupID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove membership: %w", err)
	}
	return nil
}

func (s *groupService) ListMembers(ctx context.Context, principal domain.Principal, groupID string) ([]*domain.GroupMemberInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Membership rows are visible to members only.
	probe := &domain.GroupMember{GroupID: groupID}
	if err := s.policy.Authorize(ctx, principal, rules.EntityGroupMember, rules.OpSelect, probe); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *groupService) MemberCount(ctx context.Context, groupID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.memberRepo.CountByGroupID(ctx, groupID)
}

func (s *groupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.memberRepo.IsMember(ctx, groupID, userID)
}

func (s *groupService) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.memberRepo.IsAdmin(ctx, groupID, userID)
}

func (s *groupService) GroupsWithStats(ctx context.Context, principal domain.Principal, filter domain.GroupFilter) ([]*domain.GroupWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.groupRepo.ListWithStats(ctx, principal, filter)
}
