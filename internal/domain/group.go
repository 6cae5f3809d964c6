package domain

import (
	"context"
	"time"
)

// Group represents a community group owned by its creator profile.
type Group struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupUpdate carries the updatable group fields. Nil means leave unchanged.
type GroupUpdate struct {
	Name        *string
	Description *string
	Category    *string
	AvatarURL   *string
	IsPublic    *bool
}

// GroupFilter narrows group listings. Zero values mean no filter.
type GroupFilter struct {
	Category string
	Search   string
}

// GroupWithStats is the read-side projection of a group joined with its live
// member count and creator display name. Never materialized.
type GroupWithStats struct {
	Group
	MemberCount int    `json:"member_count"`
	CreatorName string `json:"creator_name"`
}

// GroupRepository defines the interface for group storage
type GroupRepository interface {
	// Create inserts the group and, in the same transaction, the creator's
	// admin membership.
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	// List returns rows visible to the viewer: public groups plus, when the
	// viewer is authenticated, groups they created.
	List(ctx context.Context, viewer Principal, filter GroupFilter) ([]*Group, error)
	ListByMemberID(ctx context.Context, userID string) ([]*Group, error)
	Update(ctx context.Context, id string, upd GroupUpdate) (*Group, error)
	// Delete removes the group, its memberships and its messages in one
	// transaction.
	Delete(ctx context.Context, id string) error
	ListWithStats(ctx context.Context, viewer Principal, filter GroupFilter) ([]*GroupWithStats, error)
}

// GroupService defines the business logic for groups and membership.
type GroupService interface {
	CreateGroup(ctx context.Context, principal Principal, group *Group) error
	GetGroup(ctx context.Context, principal Principal, id string) (*Group, error)
	ListGroups(ctx context.Context, principal Principal, filter GroupFilter) ([]*Group, error)
	ListMyGroups(ctx context.Context, principal Principal) ([]*Group, error)
	UpdateGroup(ctx context.Context, principal Principal, id string, upd GroupUpdate) (*Group, error)
	DeleteGroup(ctx context.Context, principal Principal, id string) error
	JoinGroup(ctx context.Context, principal Principal, groupID string) (*GroupMember, error)
	LeaveGroup(ctx context.Context, principal Principal, groupID string) error
	RemoveMember(ctx context.Context, principal Principal, groupID, userID string) error
	ListMembers(ctx context.Context, principal Principal, groupID string) ([]*GroupMemberInfo, error)
	MemberCount(ctx context.Context, groupID string) (int, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
	GroupsWithStats(ctx context.Context, principal Principal, filter GroupFilter) ([]*GroupWithStats, error)
}
