package domain

import (
	"context"
	"time"
)

// MaxHistoryLimit caps one page of chat history.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// Message is one chat message authored within a group. Deletion is a soft
// delete: the row stays, flagged, and reads skip it.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryParams is the cursor for paging through chat history. BeforeID,
// when set, returns only messages older than that message.
type HistoryParams struct {
	Limit    int
	BeforeID string
}

// Normalize clamps the limit into [1, MaxHistoryLimit], defaulting when
// unset.
func (p HistoryParams) Normalize() HistoryParams {
	if p.Limit < 1 {
		p.Limit = DefaultHistoryLimit
	}
	if p.Limit > MaxHistoryLimit {
		p.Limit = MaxHistoryLimit
	}
	return p
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// ListByGroupID returns non-deleted messages oldest-first, at most
	// params.Limit rows, all older than params.BeforeID when set.
	ListByGroupID(ctx context.Context, groupID string, params HistoryParams) ([]*Message, error)
	SoftDelete(ctx context.Context, id string) error
}

// MessageService defines the business logic for group chat.
type MessageService interface {
	SendMessage(ctx context.Context, principal Principal, groupID, content string) (*Message, error)
	History(ctx context.Context, principal Principal, groupID string, params HistoryParams) ([]*Message, error)
	// DeleteMessage soft-deletes; allowed for the author or a group admin.
	DeleteMessage(ctx context.Context, principal Principal, groupID, messageID string) error
}
