package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAlertNotFound     = errors.New("alert not found")
	ErrEmptyAlert        = errors.New("alert title is empty")
	ErrInvalidAlertLevel = errors.New("alert level must be info, warning or critical")
	ErrInvalidAudience   = errors.New("alert audience must be an organization")
	ErrAlertTooLong      = errors.New("alert body too long")
)

type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// ParseAlertLevel normalises s; an empty level means info.
func ParseAlertLevel(s string) (AlertLevel, error) {
	switch l := AlertLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return AlertInfo, nil
	case AlertInfo, AlertWarning, AlertCritical:
		return l, nil
	}
	return "", ErrInvalidAlertLevel
}

// Alert is a notice published by staff to one organization, or to all of
// them when AudienceID is empty.
type Alert struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	Level      AlertLevel `json:"level"`
	AuthorID   string     `json:"author_id"`
	AudienceID string     `json:"audience_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// VisibleTo reports whether the user may read the alert. Staff see every
// alert; an organization sees broadcasts and the ones addressed to it.
func (a *Alert) VisibleTo(userID string, role Role) bool {
	if role == RoleAdmin || role == RoleAccountant {
		return true
	}
	return a.AudienceID == "" || a.AudienceID == userID
}

// DeletableBy reports whether the user may retract the alert: admins any,
// accountants their own.
func (a *Alert) DeletableBy(userID string, role Role) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAccountant:
		return a.AuthorID == userID
	}
	return false
}
