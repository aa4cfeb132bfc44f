package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type stubRevocations map[string]bool

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "boom" {
		return false, errors.New("redis down")
	}
	return s[jti], nil
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string, revocations RevocationChecker) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret", revocations)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed := signToken(t, "secret", jwt.MapClaims{
		"sub":  "u-1",
		"role": "accountant",
		"jti":  "jti-1",
		"exp":  exp.Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth("secret", stubRevocations{})
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get(KeyUserID) != "u-1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(KeyRole) != "accountant" {
			t.Fatalf("role not set")
		}
		if c.Get(KeyTokenID) != "jti-1" {
			t.Fatalf("jti not set")
		}
		if got, _ := c.Get(KeyExpiresAt).(time.Time); !got.Equal(exp) {
			t.Fatalf("exp not set: %v", got)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called := runAuth(t, "", nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without calling next, got %d (called=%v)", rec.Code, called)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec, called := runAuth(t, "Token abc", nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, called := runAuth(t, "Bearer not-a-token", nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{
		"sub": "u-1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	rec, called := runAuth(t, "Bearer "+signed, nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingClaims(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{"role": "admin"})
	rec, called := runAuth(t, "Bearer "+signed, nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without sub, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{"sub": "u-1", "role": "admin", "jti": "gone"})
	rec, called := runAuth(t, "Bearer "+signed, stubRevocations{"gone": true})
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RevocationCheckFails(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{"sub": "u-1", "role": "admin", "jti": "boom"})
	rec, called := runAuth(t, "Bearer "+signed, stubRevocations{})
	if called || rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when revocation check fails, got %d", rec.Code)
	}
}
