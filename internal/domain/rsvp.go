package domain

import (
	"context"
	"time"
)

// RSVP links one profile to one event. At most one row exists per
// (event, user) pair.
type RSVP struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RSVPRepository defines the interface for rsvp storage
type RSVPRepository interface {
	Create(ctx context.Context, rsvp *RSVP) error
	Delete(ctx context.Context, eventID, userID string) error
	ListByUserID(ctx context.Context, userID string) ([]*RSVP, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
}

// RSVPService defines the business logic for rsvps.
type RSVPService interface {
	CreateRSVP(ctx context.Context, principal Principal, eventID string) (*RSVP, error)
	CancelRSVP(ctx context.Context, principal Principal, eventID string) error
	ListMyRSVPs(ctx context.Context, principal Principal) ([]*RSVP, error)
	RSVPCount(ctx context.Context, eventID string) (int, error)
	HasRSVPed(ctx context.Context, eventID, userID string) (bool, error)
}
