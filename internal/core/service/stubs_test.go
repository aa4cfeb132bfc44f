package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/contaportal/portal/internal/core/domain"
)

type stubAuthRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		r.seq++
		copy.ID = fmt.Sprintf("u%d", r.seq)
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) ListByRoles(_ context.Context, roles []domain.Role) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, cloneUser(u))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubAuthRepo) add(id string, role domain.Role) *domain.User {
	u := &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: role}
	r.users[id] = u
	return u
}

type stubRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func (s *stubRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	if s.revoked == nil {
		s.revoked = make(map[string]time.Duration)
	}
	s.revoked[jti] = ttl
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

type stubMessageRepo struct {
	msgs []*domain.Message
	err  error
}

func (r *stubMessageRepo) Insert(_ context.Context, m *domain.Message) (*domain.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	copy := *m
	copy.ID = fmt.Sprintf("m%d", len(r.msgs)+1)
	r.msgs = append(r.msgs, &copy)
	out := copy
	return &out, nil
}

func (r *stubMessageRepo) Conversation(_ context.Context, a, b string) ([]*domain.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Message
	for _, m := range r.msgs {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubDocumentRepo struct {
	docs     map[string]*domain.Document
	contents map[string][]byte
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{docs: map[string]*domain.Document{}, contents: map[string][]byte{}}
}

func (r *stubDocumentRepo) Save(_ context.Context, doc *domain.Document, content io.Reader) (*domain.Document, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	copy := *doc
	copy.ID = fmt.Sprintf("d%d", len(r.docs)+1)
	copy.FileID = "f" + copy.ID
	copy.Size = int64(len(data))
	r.docs[copy.ID] = &copy
	r.contents[copy.FileID] = data
	out := copy
	return &out, nil
}

func (r *stubDocumentRepo) FindByID(_ context.Context, id string) (*domain.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := *d
	return &out, nil
}

func (r *stubDocumentRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Document, error) {
	var out []*domain.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			copy := *d
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *stubDocumentRepo) Open(_ context.Context, doc *domain.Document) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(r.contents[doc.FileID])), nil
}

type stubAlertRepo struct {
	alerts []*domain.Alert
	seq    int
}

func (r *stubAlertRepo) Insert(_ context.Context, a *domain.Alert) (*domain.Alert, error) {
	r.seq++
	copy := *a
	copy.ID = fmt.Sprintf("a%d", r.seq)
	r.alerts = append(r.alerts, &copy)
	out := copy
	return &out, nil
}

func (r *stubAlertRepo) FindByID(_ context.Context, id string) (*domain.Alert, error) {
	for _, a := range r.alerts {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrAlertNotFound
}

func (r *stubAlertRepo) List(_ context.Context, audiences []string) ([]*domain.Alert, error) {
	var out []*domain.Alert
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if audiences != nil && !slices.Contains(audiences, a.AudienceID) {
			continue
		}
		copy := *a
		out = append(out, &copy)
	}
	return out, nil
}

func (r *stubAlertRepo) Delete(_ context.Context, id string) error {
	for i, a := range r.alerts {
		if a.ID == id {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAlertNotFound
}
