package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
	"gatherly/internal/rules"
)

type profileService struct {
	profileRepo    domain.ProfileRepository
	policy         *rules.Evaluator
	contextTimeout time.Duration
}

func NewProfileService(profileRepo domain.ProfileRepository, policy *rules.Evaluator, timeout time.Duration) domain.ProfileService {
	return &profileService{
		profileRepo:    profileRepo,
		policy:         policy,
		contextTimeout: timeout,
	}
}

func (s *profileService) GetProfile(ctx context.Context, principal domain.Principal, id string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityProfile, rules.OpSelect, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfileByEmail looks a profile up by email, matching case-insensitively.
func (s *profileService) GetProfileByEmail(ctx context.Context, principal domain.Principal, email string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityProfile, rules.OpSelect, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, principal domain.Principal, id string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityProfile, rules.OpUpdate, profile); err != nil {
		return nil, err
	}

	next := *profile
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Bio != nil {
		next.Bio = upd.Bio
	}
	if upd.Location != nil {
		next.Location = upd.Location
	}
	if upd.AvatarURL != nil {
		next.AvatarURL = upd.AvatarURL
	}
	if err := rules.ValidateProfile(&next); err != nil {
		return nil, err
	}

	updated, err := s.profileRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

func (s *profileService) UpdateRole(ctx context.Context, principal domain.Principal, id string, role domain.ProfileRole) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := rules.ValidateProfileRole(role); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityProfile, rules.OpUpdate, profile); err != nil {
		return nil, err
	}
	updated, err := s.profileRepo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return updated, nil
}
