package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
	"gatherly/internal/rules"
)

const trendingLimit = 10

type eventService struct {
	eventRepo      domain.EventRepository
	policy         *rules.Evaluator
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, policy *rules.Evaluator, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		policy:         policy,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, principal domain.Principal, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.OrganizerID = principal.ID
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = domain.EventStatusActive
	}

	if err := s.policy.Authorize(ctx, principal, rules.EntityEvent, rules.OpInsert, event); err != nil {
		return err
	}
	if err := rules.ValidateEvent(event); err != nil {
		return err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, principal domain.Principal, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// A denied select reads as an absent row.
	if err := s.policy.Authorize(ctx, principal, rules.EntityEvent, rules.OpSelect, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, principal domain.Principal, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.List(ctx, principal, filter)
}

func (s *eventService) ListMyEvents(ctx context.Context, principal domain.Principal) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if principal.IsAnonymous() {
		return []*domain.Event{}, nil
	}
	return s.eventRepo.ListByOrganizerID(ctx, principal.ID)
}

func (s *eventService) ListTrendingEvents(ctx context.Context) ([]*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListTrending(ctx, time.Now(), trendingLimit)
}

func (s *eventService) UpdateEvent(ctx context.Context, principal domain.Principal, id string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityEvent, rules.OpUpdate, event); err != nil {
		return nil, err
	}

	// Validate the row as it would be after the update.
	next := *event
	if upd.Title != nil {
		next.Title = *upd.Title
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.StartsAt != nil {
		next.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		next.EndsAt = upd.EndsAt
	}
	if upd.Location != nil {
		next.Location = *upd.Location
	}
	if upd.City != nil {
		next.City = *upd.City
	}
	if upd.Category != nil {
		next.Category = *upd.Category
	}
	if upd.Capacity != nil {
		next.Capacity = upd.Capacity
	}
	if upd.Status != nil {
		next.Status = *upd.Status
	}
	if err := rules.ValidateEvent(&next); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// CancelEvent is the soft path: rows stay, status flips to canceled.
func (s *eventService) CancelEvent(ctx context.Context, principal domain.Principal, id string) error {
	status := domain.EventStatusCanceled
	_, err := s.UpdateEvent(ctx, principal, id, domain.EventUpdate{Status: &status})
	return err
}

func (s *eventService) DeleteEvent(ctx context.Context, principal domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityEvent, rules.OpDelete, event); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) EventsWithStats(ctx context.Context, principal domain.Principal, filter domain.EventFilter) ([]*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListWithStats(ctx, principal, filter)
}
