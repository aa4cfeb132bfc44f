package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

const testSecret = "router-test-secret"

type fakeAuth struct {
	users map[string]*domain.User
}

func (f *fakeAuth) Register(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == in.Email {
			return nil, domain.ErrUserExists
		}
	}
	u := &domain.User{ID: "new", Name: in.Name, Email: in.Email, Role: domain.Role(in.Role)}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (f *fakeAuth) Me(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeAuth) Logout(context.Context, string, time.Time) error { return nil }

func (f *fakeAuth) Counterparts(context.Context, domain.Role, string) ([]*domain.User, error) {
	return nil, nil
}

type fakeMessages struct{}

func (fakeMessages) History(context.Context, ports.Caller, string) ([]*domain.Message, error) {
	return nil, domain.ErrCounterpartNotFound
}

func (fakeMessages) Send(_ context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	if in.To == in.Caller.UserID {
		return nil, domain.ErrSelfMessage
	}
	return nil, domain.ErrForbidden
}

type fakeAlerts struct{ created int }

func (f *fakeAlerts) Create(_ context.Context, in ports.CreateAlertInput) (*domain.Alert, error) {
	if in.AudienceID != "" && in.AudienceID != "org-1" {
		return nil, domain.ErrInvalidAudience
	}
	f.created++
	return &domain.Alert{ID: "a1", Title: in.Title, Level: domain.AlertInfo, AuthorID: in.Caller.UserID}, nil
}

func (f *fakeAlerts) List(context.Context, ports.Caller) ([]*domain.Alert, error) { return nil, nil }

func (f *fakeAlerts) Get(context.Context, ports.Caller, string) (*domain.Alert, error) {
	return nil, domain.ErrAlertNotFound
}

func (f *fakeAlerts) Delete(context.Context, ports.Caller, string) error {
	return domain.ErrAlertNotFound
}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) { return r[jti], nil }

func newTestServer(t *testing.T, revoked revokedSet) http.Handler {
	t.Helper()
	return newTestServerWithAlerts(t, revoked, &fakeAlerts{})
}

func newTestServerWithAlerts(t *testing.T, revoked revokedSet, alerts *fakeAlerts) http.Handler {
	t.Helper()
	auth := &fakeAuth{users: map[string]*domain.User{
		"admin-1": {ID: "admin-1", Email: "root@example.com", Role: domain.RoleAdmin},
		"org-1":   {ID: "org-1", Email: "acme@example.com", Role: domain.RoleOrganization},
	}}
	return NewRouter(Deps{
		Auth:           auth,
		Messages:       fakeMessages{},
		Alerts:         alerts,
		Revocations:    revoked,
		JWTSecret:      testSecret,
		MaxUploadBytes: 1 << 20,
		Log:            zerolog.Nop(),
		Registry:       prometheus.NewRegistry(),
	})
}

func bearer(t *testing.T, sub string, role domain.Role, jti string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": string(role),
		"jti":  jti,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func do(h http.Handler, method, target, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error envelope %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestRouter_LoginFailureIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"whatever"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := errorOf(t, rec); got != "invalid credentials" {
		t.Fatalf("unexpected error: %s", got)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, http.MethodGet, "/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_Me(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, http.MethodGet, "/auth/me", bearer(t, "org-1", domain.RoleOrganization, "j1"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"role":"organization"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_RevokedTokenIsRejected(t *testing.T) {
	srv := newTestServer(t, revokedSet{"gone": true})

	rec := do(srv, http.MethodGet, "/auth/me", bearer(t, "org-1", domain.RoleOrganization, "gone"), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := errorOf(t, rec); got != "token revoked" {
		t.Fatalf("unexpected error: %s", got)
	}
}

func TestRouter_RegisterIsAdminOnly(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"name":"Ana","email":"ana@example.com","password":"s3cretpass","role":"accountant"}`

	rec := do(srv, http.MethodPost, "/auth/register", bearer(t, "org-1", domain.RoleOrganization, "j1"), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for organization, got %d", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/auth/register", bearer(t, "admin-1", domain.RoleAdmin, "j2"), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodPost, "/auth/register", bearer(t, "admin-1", domain.RoleAdmin, "j3"), body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}
}

func TestRouter_DomainErrorMapping(t *testing.T) {
	srv := newTestServer(t, nil)
	auth := bearer(t, "org-1", domain.RoleOrganization, "j1")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown counterpart", http.MethodGet, "/messages/nobody", "", http.StatusNotFound},
		{"self message", http.MethodPost, "/messages", `{"to":"org-1","text":"hi"}`, http.StatusUnprocessableEntity},
		{"forbidden pair", http.MethodPost, "/messages", `{"to":"org-2","text":"hi"}`, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, tt.method, tt.target, auth, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if errorOf(t, rec) == "" {
				t.Fatalf("expected error message in envelope")
			}
		})
	}
}

func TestRouter_Alerts(t *testing.T) {
	alerts := &fakeAlerts{}
	srv := newTestServerWithAlerts(t, nil, alerts)
	org := bearer(t, "org-1", domain.RoleOrganization, "j1")
	admin := bearer(t, "admin-1", domain.RoleAdmin, "j2")

	rec := do(srv, http.MethodPost, "/alerts", org, `{"title":"hi"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for organization publish, got %d", rec.Code)
	}
	if rec = do(srv, http.MethodDelete, "/alerts/a1", org, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for organization delete, got %d", rec.Code)
	}
	if alerts.created != 0 {
		t.Fatalf("service must not be reached for organizations")
	}

	rec = do(srv, http.MethodPost, "/alerts", admin, `{"title":"Deadline","audience_id":"org-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodPost, "/alerts", admin, `{"title":"Deadline","audience_id":"admin-1"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if got := errorOf(t, rec); got != domain.ErrInvalidAudience.Error() {
		t.Fatalf("unexpected error: %s", got)
	}

	rec = do(srv, http.MethodGet, "/alerts", org, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"data":[]}` {
		t.Fatalf("unexpected list answer %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/alerts/zz", org, "")
	if rec.Code != http.StatusNotFound || errorOf(t, rec) != "alert not found" {
		t.Fatalf("expected 404 alert not found, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	if rec := do(srv, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", rec.Code)
	}

	rec := do(srv, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "portal_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}
