package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/api/middleware"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn        func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn           func(ctx context.Context, userID string) (*domain.User, error)
	logoutFn       func(ctx context.Context, jti string, expiresAt time.Time) error
	counterpartsFn func(ctx context.Context, role domain.Role, filter string) ([]*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.logoutFn(ctx, jti, expiresAt)
}

func (s *stubAuthService) Counterparts(ctx context.Context, role domain.Role, filter string) ([]*domain.User, error) {
	return s.counterpartsFn(ctx, role, filter)
}

type stubMessageService struct {
	historyFn func(ctx context.Context, caller ports.Caller, counterpartID string) ([]*domain.Message, error)
	sendFn    func(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error)
}

func (s *stubMessageService) History(ctx context.Context, caller ports.Caller, counterpartID string) ([]*domain.Message, error) {
	return s.historyFn(ctx, caller, counterpartID)
}

func (s *stubMessageService) Send(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	return s.sendFn(ctx, in)
}

type stubDocumentService struct {
	uploadFn   func(ctx context.Context, in ports.UploadInput) (*domain.Document, error)
	listFn     func(ctx context.Context, caller ports.Caller, ownerID string) ([]*domain.Document, error)
	downloadFn func(ctx context.Context, caller ports.Caller, id string) (*domain.Document, io.ReadCloser, error)
}

func (s *stubDocumentService) Upload(ctx context.Context, in ports.UploadInput) (*domain.Document, error) {
	return s.uploadFn(ctx, in)
}

func (s *stubDocumentService) List(ctx context.Context, caller ports.Caller, ownerID string) ([]*domain.Document, error) {
	return s.listFn(ctx, caller, ownerID)
}

func (s *stubDocumentService) Download(ctx context.Context, caller ports.Caller, id string) (*domain.Document, io.ReadCloser, error) {
	return s.downloadFn(ctx, caller, id)
}

// newEcho returns an echo instance with the portal validator installed.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// withCaller injects the claims the Auth middleware would set.
func withCaller(c echo.Context, userID string, role domain.Role) {
	c.Set(middleware.KeyUserID, userID)
	c.Set(middleware.KeyRole, string(role))
}

func newContext(e *echo.Echo, method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type stubAlertService struct {
	createFn func(ctx context.Context, in ports.CreateAlertInput) (*domain.Alert, error)
	listFn   func(ctx context.Context, caller ports.Caller) ([]*domain.Alert, error)
	getFn    func(ctx context.Context, caller ports.Caller, id string) (*domain.Alert, error)
	deleteFn func(ctx context.Context, caller ports.Caller, id string) error
}

func (s *stubAlertService) Create(ctx context.Context, in ports.CreateAlertInput) (*domain.Alert, error) {
	return s.createFn(ctx, in)
}

func (s *stubAlertService) List(ctx context.Context, caller ports.Caller) ([]*domain.Alert, error) {
	return s.listFn(ctx, caller)
}

func (s *stubAlertService) Get(ctx context.Context, caller ports.Caller, id string) (*domain.Alert, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubAlertService) Delete(ctx context.Context, caller ports.Caller, id string) error {
	return s.deleteFn(ctx, caller, id)
}
