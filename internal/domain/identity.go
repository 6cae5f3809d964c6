package domain

import "context"

// Identity is the record emitted by the external identity provider when a
// subject signs up. Name is the optional display name.
type Identity struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// TokenVerifier verifies a bearer token from the identity provider and
// returns the principal it carries.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// ProvisioningService reacts to identity lifecycle events. Both operations
// are atomic with their storage effects: either the whole side effect commits
// or none of it does.
type ProvisioningService interface {
	// ProvisionIdentity creates the profile backing a new identity. Replaying
	// the same event is a no-op.
	ProvisionIdentity(ctx context.Context, identity Identity) (*Profile, error)
	// RemoveIdentity deletes the profile for a removed identity together with
	// everything it owns. This is the only path that deletes a profile.
	RemoveIdentity(ctx context.Context, identityID string) error
}
