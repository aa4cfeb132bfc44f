package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/contaportal/portal/internal/core/domain"
)

// LoginResult is the answer of POST /auth/login.
type LoginResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Users lists the caller's counterparts, optionally narrowed to role.
func (c *Client) Users(ctx context.Context, role string) ([]*domain.User, error) {
	var out struct {
		Data []*domain.User `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, withQuery("/users", "role", role), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Messages returns the conversation with counterpartID.
func (c *Client) Messages(ctx context.Context, counterpartID string) ([]*domain.Message, error) {
	var out struct {
		Data []*domain.Message `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, "/messages/"+url.PathEscape(counterpartID), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) SendMessage(ctx context.Context, to, text string) (*domain.Message, error) {
	var out domain.Message
	in := map[string]string{"to": to, "text": text}
	if err := c.Do(ctx, http.MethodPost, "/messages", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload describes one document upload. OwnerID is empty for the caller's
// own documents.
type Upload struct {
	Filename string
	Title    string
	OwnerID  string
	Content  io.Reader
}

// UploadDocument sends the document as multipart/form-data.
func (c *Client) UploadDocument(ctx context.Context, up Upload) (*domain.Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"title": up.Title, "owner_id": up.OwnerID} {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("api: build upload: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, fmt.Errorf("api: build upload: %w", err)
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, fmt.Errorf("api: read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("api: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", &buf)
	if err != nil {
		return nil, &Error{Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out domain.Document
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documents lists document metadata, for ownerID or the caller when empty.
func (c *Client) Documents(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	var out struct {
		Data []*domain.Document `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, withQuery("/documents", "owner_id", ownerID), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// NewAlert is the body of POST /alerts. An empty AudienceID addresses every
// organization.
type NewAlert struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	Level      string `json:"level,omitempty"`
	AudienceID string `json:"audience_id,omitempty"`
}

func (c *Client) Alerts(ctx context.Context) ([]*domain.Alert, error) {
	var out struct {
		Data []*domain.Alert `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, "/alerts", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateAlert(ctx context.Context, in NewAlert) (*domain.Alert, error) {
	var out domain.Alert
	if err := c.Do(ctx, http.MethodPost, "/alerts", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/alerts/"+url.PathEscape(id), nil, nil)
}
