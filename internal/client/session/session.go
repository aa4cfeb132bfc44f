// Package session owns the logged-in identity of the client: it restores it
// from local storage at start-up, persists it on login and clears it on logout
// or when the server rejects the token.
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/client/storage"
	"github.com/contaportal/portal/internal/core/domain"
)

// Persisted keys. They are always written and deleted together.
const (
	KeyToken   = "session:token"
	KeyProfile = "session:profile"
)

var ErrInvalidIdentity = errors.New("session: identity needs a token and a known role")

// Identity is the authenticated principal.
type Identity struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	TaxID string      `json:"tax_id,omitempty"`
	Token string      `json:"-"`
}

func (i Identity) valid() bool {
	return i.Token != "" && i.Role.Valid()
}

// Phase is the lifecycle state of a Store.
type Phase int

const (
	Initializing Phase = iota
	Authenticated
	Unauthenticated
)

func (p Phase) String() string {
	switch p {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "initializing"
}

// Store is the single owner of the current Identity. Build one per process
// and share it.
type Store struct {
	kv  storage.KV
	log zerolog.Logger

	mu        sync.RWMutex
	current   *Identity
	restored  bool
	ready     chan struct{}
	readyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(*Identity)
	nextSub int
}

func New(kv storage.KV, log zerolog.Logger) *Store {
	return &Store{
		kv:    kv,
		log:   log,
		ready: make(chan struct{}),
		subs:  make(map[int]func(*Identity)),
	}
}

// Restore loads the persisted identity. Anything missing or unreadable purges
// both keys and leaves the store unauthenticated. The persisted token is
// trusted until the server says otherwise.
func (s *Store) Restore() *Identity {
	id := s.load()

	s.mu.Lock()
	s.current = id
	s.restored = true
	s.mu.Unlock()

	s.markReady()
	s.publish(id)
	return clone(id)
}

func (s *Store) load() *Identity {
	vals, err := s.kv.Get(KeyToken, KeyProfile)
	if err != nil {
		s.log.Warn().Err(err).Msg("session storage unreadable, starting logged out")
		s.purge()
		return nil
	}

	token, hasToken := vals[KeyToken]
	profile, hasProfile := vals[KeyProfile]
	if !hasToken && !hasProfile {
		return nil
	}
	if !hasToken || !hasProfile {
		s.log.Warn().Msg("half-written session found, purging")
		s.purge()
		return nil
	}

	var id Identity
	if err := json.Unmarshal(profile, &id); err != nil {
		s.log.Warn().Err(err).Msg("corrupted session profile, purging")
		s.purge()
		return nil
	}
	id.Token = string(token)
	if !id.valid() {
		s.log.Warn().Str("role", string(id.Role)).Msg("persisted session is not a valid identity, purging")
		s.purge()
		return nil
	}
	return &id
}

// Login persists id and makes it current. A storage failure is logged and
// only costs durability: the in-memory session still starts.
func (s *Store) Login(id Identity) error {
	if !id.valid() {
		return ErrInvalidIdentity
	}

	profile, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := s.kv.SetAll(map[string][]byte{
		KeyToken:   []byte(id.Token),
		KeyProfile: profile,
	}); err != nil {
		s.log.Warn().Err(err).Msg("session not persisted")
	}

	s.mu.Lock()
	s.current = &id
	s.restored = true
	s.mu.Unlock()

	s.markReady()
	s.publish(&id)
	return nil
}

// Logout clears the persisted session and the current identity.
func (s *Store) Logout() {
	s.clear()
}

// Invalidate is Logout triggered by the server rejecting the token.
func (s *Store) Invalidate(reason string) {
	s.mu.RLock()
	had := s.current != nil
	s.mu.RUnlock()
	if had {
		s.log.Warn().Str("reason", reason).Msg("session invalidated")
	}
	s.clear()
}

func (s *Store) clear() {
	s.purge()

	s.mu.Lock()
	s.current = nil
	s.restored = true
	s.mu.Unlock()

	s.markReady()
	s.publish(nil)
}

func (s *Store) purge() {
	if err := s.kv.DeleteAll(KeyToken, KeyProfile); err != nil {
		s.log.Warn().Err(err).Msg("session keys not removed")
	}
}

// Current returns a copy of the current identity, or nil.
func (s *Store) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

// Token returns the bearer token of the current identity, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.restored:
		return Initializing
	case s.current != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Ready is closed once the store has left the Initializing phase.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe registers fn to receive every identity change. The returned
// func unregisters it.
func (s *Store) Subscribe(fn func(*Identity)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(id *Identity) {
	s.subMu.Lock()
	fns := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(clone(id))
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func clone(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
