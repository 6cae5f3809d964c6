package domain

import (
	"context"
	"time"
)

// GroupRole is the role a member holds within one group.
type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "admin"
	GroupRoleMember GroupRole = "member"
)

// GroupMember links one profile to one group. At most one row exists per
// (group, user) pair.
type GroupMember struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     GroupRole `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupMemberInfo joins a membership row with the member's profile display
// fields for listing.
type GroupMemberInfo struct {
	GroupMember
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// GroupMemberRepository defines the interface for membership storage
type GroupMemberRepository interface {
	Add(ctx context.Context, member *GroupMember) error
	Remove(ctx context.Context, groupID, userID string) error
	GetRole(ctx context.Context, groupID, userID string) (GroupRole, error)
	ListByGroupID(ctx context.Context, groupID string) ([]*GroupMemberInfo, error)
	CountByGroupID(ctx context.Context, groupID string) (int, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
}
