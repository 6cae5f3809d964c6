package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
	"gatherly/internal/rules"
)

type rsvpService struct {
	rsvpRepo       domain.RSVPRepository
	policy         *rules.Evaluator
	contextTimeout time.Duration
}

func NewRSVPService(rsvpRepo domain.RSVPRepository, policy *rules.Evaluator, timeout time.Duration) domain.RSVPService {
	return &rsvpService{
		rsvpRepo:       rsvpRepo,
		policy:         policy,
		contextTimeout: timeout,
	}
}

// CreateRSVP inserts the principal's rsvp for an active event with free
// capacity. The repository checks the event status and seat count in the same
// transaction as the insert, and concurrent duplicates lose on the
// (event_id, user_id) unique constraint and surface as a ConflictError.
func (s *rsvpService) CreateRSVP(ctx context.Context, principal domain.Principal, eventID string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rsvp := &domain.RSVP{
		EventID:   eventID,
		UserID:    principal.ID,
		CreatedAt: time.Now(),
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityRSVP, rules.OpInsert, rsvp); err != nil {
		return nil, err
	}
	if err := s.rsvpRepo.Create(ctx, rsvp); err != nil {
		return nil, err
	}
	return rsvp, nil
}

func (s *rsvpService) CancelRSVP(ctx context.Context, principal domain.Principal, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rsvp := &domain.RSVP{EventID: eventID, UserID: principal.ID}
	if err := s.policy.Authorize(ctx, principal, rules.EntityRSVP, rules.OpDelete, rsvp); err != nil {
		return err
	}
	if err := s.rsvpRepo.Delete(ctx, eventID, principal.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete rsvp: %w", err)
	}
	return nil
}

func (s *rsvpService) ListMyRSVPs(ctx context.Context, principal domain.Principal) ([]*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if principal.IsAnonymous() {
		return []*domain.RSVP{}, nil
	}
	return s.rsvpRepo.ListByUserID(ctx, principal.ID)
}

func (s *rsvpService) RSVPCount(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.rsvpRepo.CountByEventID(ctx, eventID)
}

func (s *rsvpService) HasRSVPed(ctx context.Context, eventID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.rsvpRepo.Exists(ctx, eventID, userID)
}
