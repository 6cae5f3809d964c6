package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
)

type provisioningService struct {
	profileRepo    domain.ProfileRepository
	contextTimeout time.Duration
}

// NewProvisioningService returns the service that reacts to identity
// lifecycle events from the external provider. Its writes are
// system-performed and never consult the policy table.
func NewProvisioningService(profileRepo domain.ProfileRepository, timeout time.Duration) domain.ProvisioningService {
	return &provisioningService{
		profileRepo:    profileRepo,
		contextTimeout: timeout,
	}
}

// ProvisionIdentity creates exactly one profile for a new identity. The
// display name falls back to the part of the email before the @. Replaying
// the same identity event is a no-op and returns the existing profile.
//
// The user-facing name bound does not apply here: the provider's name and
// the email-derived fallback are accepted as-is, so every identity event
// yields a profile.
func (s *provisioningService) ProvisionIdentity(ctx context.Context, identity domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	name := ""
	if identity.Name != nil {
		name = strings.TrimSpace(*identity.Name)
	}
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}

	profile := domain.NewProfile(identity.ID, email, name, time.Now())
	inserted, err := s.profileRepo.CreateIfAbsent(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("provision profile: %w", err)
	}
	if !inserted {
		existing, err := s.profileRepo.GetByID(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("get existing profile: %w", err)
		}
		return existing, nil
	}
	return profile, nil
}

// RemoveIdentity deletes the profile and cascades to everything it owns.
// This is the only delete path for profiles; the policy table has no
// profile-delete rule on purpose.
func (s *provisioningService) RemoveIdentity(ctx context.Context, identityID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.profileRepo.DeleteCascade(ctx, identityID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}
