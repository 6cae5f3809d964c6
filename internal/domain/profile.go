package domain

import (
	"context"
	"time"
)

// Profile represents the application profile backing one external identity.
type Profile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      ProfileRole `json:"role"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
	Bio       *string     `json:"bio,omitempty"`
	Location  *string     `json:"location,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewProfile returns a new Profile. The id is the identity id, never minted
// locally.
func NewProfile(id, email, name string, createdAt time.Time) *Profile {
	return &Profile{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      RoleAttendee,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ProfileUpdate carries the caller-editable profile fields. Nil means leave
// the field unchanged.
type ProfileUpdate struct {
	Name      *string
	Bio       *string
	Location  *string
	AvatarURL *string
}

// ProfileRepository defines the interface for profile storage
type ProfileRepository interface {
	// CreateIfAbsent inserts the profile unless one with the same id already
	// exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, profile *Profile) (bool, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) (*Profile, error)
	UpdateRole(ctx context.Context, id string, role ProfileRole) (*Profile, error)
	// DeleteCascade removes the profile and, in the same transaction, every
	// event and group it owns plus every rsvp, membership and message that
	// references the profile or those owned rows.
	DeleteCascade(ctx context.Context, id string) error
}

// ProfileService defines the business logic for profiles.
type ProfileService interface {
	GetProfile(ctx context.Context, principal Principal, id string) (*Profile, error)
	GetProfileByEmail(ctx context.Context, principal Principal, email string) (*Profile, error)
	UpdateProfile(ctx context.Context, principal Principal, id string, upd ProfileUpdate) (*Profile, error)
	UpdateRole(ctx context.Context, principal Principal, id string, role ProfileRole) (*Profile, error)
}
