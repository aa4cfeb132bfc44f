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

// MaxAlertBodyLength bounds an alert body, in runes.
const MaxAlertBodyLength = 4000

type alertService struct {
	users  ports.AuthRepository
	alerts ports.AlertRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewAlertService returns an AlertService implementation.
func NewAlertService(users ports.AuthRepository, alerts ports.AlertRepository, log zerolog.Logger) ports.AlertService {
	return &alertService{
		users:  users,
		alerts: alerts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes an alert. Only staff may publish, and a targeted alert
// must name an existing organization.
func (s *alertService) Create(ctx context.Context, in ports.CreateAlertInput) (*domain.Alert, error) {
	if in.Caller.Role != domain.RoleAdmin && in.Caller.Role != domain.RoleAccountant {
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyAlert
	}
	body := strings.TrimSpace(in.Body)
	if len([]rune(body)) > MaxAlertBodyLength {
		return nil, domain.ErrAlertTooLong
	}
	level, err := domain.ParseAlertLevel(in.Level)
	if err != nil {
		return nil, err
	}

	if in.AudienceID != "" {
		org, err := s.users.FindByID(ctx, in.AudienceID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrInvalidAudience
			}
			return nil, fmt.Errorf("load audience: %w", err)
		}
		if org.Role != domain.RoleOrganization {
			return nil, domain.ErrInvalidAudience
		}
	}

	created, err := s.alerts.Insert(ctx, &domain.Alert{
		Title:      title,
		Body:       body,
		Level:      level,
		AuthorID:   in.Caller.UserID,
		AudienceID: in.AudienceID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	s.log.Info().
		Str("alert_id", created.ID).
		Str("author", created.AuthorID).
		Str("audience", created.AudienceID).
		Str("level", string(created.Level)).
		Msg("alert published")

	return created, nil
}

// List returns the alerts the caller may read, newest first.
func (s *alertService) List(ctx context.Context, caller ports.Caller) ([]*domain.Alert, error) {
	var audiences []string
	if caller.Role == domain.RoleOrganization {
		audiences = []string{"", caller.UserID}
	}
	alerts, err := s.alerts.List(ctx, audiences)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// Get returns one alert. Alerts the caller may not read are reported as
// missing.
func (s *alertService) Get(ctx context.Context, caller ports.Caller, id string) (*domain.Alert, error) {
	a, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(caller.UserID, caller.Role) {
		return nil, domain.ErrAlertNotFound
	}
	return a, nil
}

// Delete retracts an alert.
func (s *alertService) Delete(ctx context.Context, caller ports.Caller, id string) error {
	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if !a.DeletableBy(caller.UserID, caller.Role) {
		return domain.ErrForbidden
	}
	if err := s.alerts.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("alert_id", id).Str("by", caller.UserID).Msg("alert retracted")
	return nil
}
