package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCanceled  EventStatus = "canceled"
	EventStatusCompleted EventStatus = "completed"
)

// EventCategories is the closed set of accepted event categories.
var EventCategories = []string{
	"music", "tech", "sports", "food", "arts",
	"business", "workshop", "networking", "entertainment", "other",
}

// Event represents a published event owned by one organizer profile.
type Event struct {
	ID          string      `json:"id"`
	OrganizerID string      `json:"organizer_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartsAt    time.Time   `json:"datetime"`
	EndsAt      *time.Time  `json:"end_datetime,omitempty"`
	Location    string      `json:"location"`
	City        string      `json:"city"`
	Category    string      `json:"category"`
	Capacity    *int        `json:"capacity,omitempty"`
	Status      EventStatus `json:"status"`
	IsTrending  bool        `json:"is_trending"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventUpdate carries the updatable event fields. Nil means leave unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Location    *string
	City        *string
	Category    *string
	Capacity    *int
	Status      *EventStatus
}

// EventFilter narrows event listings. Zero values mean no filter.
type EventFilter struct {
	City     string
	Category string
	Search   string
	// After keeps only events starting after this instant when non-zero.
	After time.Time
}

// EventWithStats is the read-side projection of an event joined with its
// live rsvp count and organizer display fields. Never materialized.
type EventWithStats struct {
	Event
	RSVPCount      int    `json:"rsvp_count"`
	OrganizerName  string `json:"organizer_name"`
	OrganizerEmail string `json:"organizer_email"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns rows visible to the viewer: active events plus, when the
	// viewer is authenticated, their own events in any status.
	List(ctx context.Context, viewer Principal, filter EventFilter) ([]*Event, error)
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	ListTrending(ctx context.Context, after time.Time, limit int) ([]*EventWithStats, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// Delete removes the event and its rsvps in one transaction.
	Delete(ctx context.Context, id string) error
	// ListWithStats composes the visible rows of List with rsvp counts and
	// organizer fields, recomputed per call.
	ListWithStats(ctx context.Context, viewer Principal, filter EventFilter) ([]*EventWithStats, error)
}

// EventService defines the business logic for events.
type EventService interface {
	CreateEvent(ctx context.Context, principal Principal, event *Event) error
	GetEvent(ctx context.Context, principal Principal, id string) (*Event, error)
	ListEvents(ctx context.Context, principal Principal, filter EventFilter) ([]*Event, error)
	ListMyEvents(ctx context.Context, principal Principal) ([]*Event, error)
	ListTrendingEvents(ctx context.Context) ([]*EventWithStats, error)
	UpdateEvent(ctx context.Context, principal Principal, id string, upd EventUpdate) (*Event, error)
	// CancelEvent flips the status to canceled without removing rows.
	CancelEvent(ctx context.Context, principal Principal, id string) error
	DeleteEvent(ctx context.Context, principal Principal, id string) error
	EventsWithStats(ctx context.Context, principal Principal, filter EventFilter) ([]*EventWithStats, error)
}
