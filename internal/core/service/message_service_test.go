package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

func newTestMessageService() (*messageService, *stubAuthRepo, *stubMessageRepo) {
	users := newStubAuthRepo()
	users.add("acc", domain.RoleAccountant)
	users.add("org", domain.RoleOrganization)
	users.add("org2", domain.RoleOrganization)
	users.add("adm", domain.RoleAdmin)
	msgs := &stubMessageRepo{}
	svc := NewMessageService(users, msgs, zerolog.Nop()).(*messageService)
	return svc, users, msgs
}

func TestMessageService_Send_Success(t *testing.T) {
	svc, _, repo := newTestMessageService()
	fixed := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	msg, err := svc.Send(context.Background(), ports.SendMessageInput{
		Caller: ports.Caller{UserID: "acc", Role: domain.RoleAccountant},
		To:     "org",
		Text:   "  Hello  ",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.ID == "" || msg.Text != "Hello" || msg.From != "acc" || msg.To != "org" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.CreatedAt.Equal(fixed) {
		t.Fatalf("expected created_at %v, got %v", fixed, msg.CreatedAt)
	}
	if len(repo.msgs) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(repo.msgs))
	}
}

func TestMessageService_Send_Validation(t *testing.T) {
	svc, _, repo := newTestMessageService()
	acc := ports.Caller{UserID: "acc", Role: domain.RoleAccountant}
	org := ports.Caller{UserID: "org", Role: domain.RoleOrganization}

	cases := []struct {
		name string
		in   ports.SendMessageInput
		want error
	}{
		{"empty", ports.SendMessageInput{Caller: acc, To: "org", Text: "   "}, domain.ErrEmptyMessage},
		{"too long", ports.SendMessageInput{Caller: acc, To: "org", Text: strings.Repeat("a", MaxMessageLength+1)}, domain.ErrMessageTooLong},
		{"self", ports.SendMessageInput{Caller: acc, To: "acc", Text: "hi"}, domain.ErrSelfMessage},
		{"unknown", ports.SendMessageInput{Caller: acc, To: "ghost", Text: "hi"}, domain.ErrCounterpartNotFound},
		{"org to org", ports.SendMessageInput{Caller: org, To: "org2", Text: "hi"}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Send(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(repo.msgs) != 0 {
		t.Fatalf("rejected sends must not be stored, got %d", len(repo.msgs))
	}
}

func TestMessageService_Send_RepositoryError(t *testing.T) {
	svc, _, repo := newTestMessageService()
	repo.err = errors.New("mongo down")

	_, err := svc.Send(context.Background(), ports.SendMessageInput{
		Caller: ports.Caller{UserID: "adm", Role: domain.RoleAdmin}, To: "org", Text: "hi",
	})
	if err == nil || !errors.Is(err, repo.err) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestMessageService_History(t *testing.T) {
	svc, _, repo := newTestMessageService()
	acc := ports.Caller{UserID: "acc", Role: domain.RoleAccountant}

	_, _ = repo.Insert(context.Background(), &domain.Message{From: "acc", To: "org", Text: "1"})
	_, _ = repo.Insert(context.Background(), &domain.Message{From: "org", To: "acc", Text: "2"})
	_, _ = repo.Insert(context.Background(), &domain.Message{From: "acc", To: "org2", Text: "other"})

	msgs, err := svc.History(context.Background(), acc, "org")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	if _, err := svc.History(context.Background(), acc, "ghost"); !errors.Is(err, domain.ErrCounterpartNotFound) {
		t.Fatalf("expected ErrCounterpartNotFound, got %v", err)
	}
}
