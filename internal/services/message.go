package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
	"gatherly/internal/rules"
)

type messageService struct {
	messageRepo    domain.MessageRepository
	policy         *rules.Evaluator
	contextTimeout time.Duration
}

func NewMessageService(messageRepo domain.MessageRepository, policy *rules.Evaluator, timeout time.Duration) domain.MessageService {
	return &messageService{
		messageRepo:    messageRepo,
		policy:         policy,
		contextTimeout: timeout,
	}
}

func (s *messageService) SendMessage(ctx context.Context, principal domain.Principal, groupID, content string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	content = strings.TrimSpace(content)
	if err := rules.ValidateMessageContent(content); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		GroupID:   groupID,
		UserID:    principal.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityMessage, rules.OpInsert, msg); err != nil {
		return nil, err
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the group's non-deleted messages, oldest first. Denied for
// non-members.
func (s *messageService) History(ctx context.Context, principal domain.Principal, groupID string, params domain.HistoryParams) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	probe := &domain.Message{GroupID: groupID}
	if err := s.policy.Authorize(ctx, principal, rules.EntityMessage, rules.OpSelect, probe); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByGroupID(ctx, groupID, params)
}

// DeleteMessage soft-deletes: the row stays with is_deleted set, and reads
// skip it. Allowed for the author or an admin of the message's group.
func (s *messageService) DeleteMessage(ctx context.Context, principal domain.Principal, groupID, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}
	if msg.GroupID != groupID || msg.IsDeleted {
		return domain.ErrNotFound
	}
	if err := s.policy.Authorize(ctx, principal, rules.EntityMessage, rules.OpUpdate, msg); err != nil {
		return err
	}
	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
