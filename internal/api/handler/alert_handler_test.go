package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

func TestAlertHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubAlertService{
		createFn: func(ctx context.Context, in ports.CreateAlertInput) (*domain.Alert, error) {
			if in.Caller.UserID != "acc-1" || in.Title != "Deadline" || in.Level != "warning" || in.AudienceID != "org-1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Alert{ID: "a1", Title: in.Title, Level: domain.AlertWarning, AuthorID: "acc-1", AudienceID: "org-1"}, nil
		},
	}
	handler := NewAlertHandler(stub)

	body := `{"title":"Deadline","level":"warning","audience_id":"org-1"}`
	c, rec := newContext(e, http.MethodPost, "/alerts", strings.NewReader(body))
	withCaller(c, "acc-1", domain.RoleAccountant)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"a1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAlertHandler_Create_Invalid(t *testing.T) {
	e := newEcho()
	handler := NewAlertHandler(&stubAlertService{})

	c, _ := newContext(e, http.MethodPost, "/alerts", strings.NewReader(`{"title":"x","level":"urgent"}`))
	withCaller(c, "acc-1", domain.RoleAccountant)

	err := handler.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if !strings.Contains(he.Message.(string), "level must be one of") {
		t.Fatalf("unexpected message: %v", he.Message)
	}
}

func TestAlertHandler_List_EmptyIsArray(t *testing.T) {
	e := newEcho()
	stub := &stubAlertService{
		listFn: func(ctx context.Context, caller ports.Caller) ([]*domain.Alert, error) {
			if caller.Role != domain.RoleOrganization {
				t.Fatalf("unexpected caller: %+v", caller)
			}
			return nil, nil
		},
	}
	handler := NewAlertHandler(stub)

	c, rec := newContext(e, http.MethodGet, "/alerts", nil)
	withCaller(c, "org-1", domain.RoleOrganization)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":[]}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAlertHandler_Get_And_Delete(t *testing.T) {
	e := newEcho()
	deleted := ""
	stub := &stubAlertService{
		getFn: func(ctx context.Context, caller ports.Caller, id string) (*domain.Alert, error) {
			if id != "a1" {
				return nil, domain.ErrAlertNotFound
			}
			return &domain.Alert{ID: "a1", Title: "hello"}, nil
		},
		deleteFn: func(ctx context.Context, caller ports.Caller, id string) error {
			deleted = id
			return nil
		},
	}
	handler := NewAlertHandler(stub)

	c, rec := newContext(e, http.MethodGet, "/alerts/a1", nil)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	withCaller(c, "org-1", domain.RoleOrganization)
	if err := handler.Get(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("get: err=%v code=%d", err, rec.Code)
	}

	c, _ = newContext(e, http.MethodGet, "/alerts/zz", nil)
	c.SetParamNames("id")
	c.SetParamValues("zz")
	withCaller(c, "org-1", domain.RoleOrganization)
	if err := handler.Get(c); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}

	c, rec = newContext(e, http.MethodDelete, "/alerts/a1", nil)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	withCaller(c, "adm-1", domain.RoleAdmin)
	if err := handler.Delete(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("delete: err=%v code=%d", err, rec.Code)
	}
	if deleted != "a1" {
		t.Fatalf("delete not forwarded, got %q", deleted)
	}
}
