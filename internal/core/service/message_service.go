package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// MaxMessageLength bounds the size of a single message body, in runes.
const MaxMessageLength = 4000

type messageService struct {
	users    ports.AuthRepository
	messages ports.MessageRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewMessageService returns a MessageService implementation.
func NewMessageService(users ports.AuthRepository, messages ports.MessageRepository, log zerolog.Logger) ports.MessageService {
	return &messageService{
		users:    users,
		messages: messages,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// History returns the conversation between the caller and counterpartID,
// oldest first.
func (s *messageService) History(ctx context.Context, caller ports.Caller, counterpartID string) ([]*domain.Message, error) {
	if _, err := s.counterpart(ctx, caller, counterpartID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.Conversation(ctx, caller.UserID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return msgs, nil
}

// Send validates and persists a message from the caller.
func (s *messageService) Send(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, domain.ErrMessageTooLong
	}

	if _, err := s.counterpart(ctx, in.Caller, in.To); err != nil {
		return nil, err
	}

	created, err := s.messages.Insert(ctx, &domain.Message{
		From:      in.Caller.UserID,
		To:        in.To,
		Text:      text,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	s.log.Debug().
		Str("from", created.From).
		Str("to", created.To).
		Str("message_id", created.ID).
		Msg("message stored")

	return created, nil
}

// counterpart loads the other party and checks the pairing is allowed.
func (s *messageService) counterpart(ctx context.Context, caller ports.Caller, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrCounterpartNotFound
	}
	if id == caller.UserID {
		return nil, domain.ErrSelfMessage
	}

	other, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrCounterpartNotFound
		}
		return nil, fmt.Errorf("load counterpart: %w", err)
	}

	if !domain.CanMessage(caller.Role, other.Role) {
		return nil, domain.ErrForbidden
	}
	return other, nil
}
