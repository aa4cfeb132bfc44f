// Package notify is the process-wide queue of transient user-facing notices.
// Every notice expires on its own timer and can be dismissed early; both paths
// go through the same idempotent removal.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notice lives when the publisher does not say.
const DefaultTTL = 5 * time.Second

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is one transient notice. IDs are derived from the creation
// time and strictly increasing.
type Notification struct {
	ID        int64
	Message   string
	Severity  Severity
	CreatedAt time.Time
	TTL       time.Duration
}

// Broadcaster holds the live notices in creation order, oldest first.
type Broadcaster struct {
	defaultTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	items  []Notification
	timers map[int64]*time.Timer
	lastID int64
	closed bool

	subs    map[int]func([]Notification)
	nextSub int

	// delivering is set while one goroutine fans out; dirty asks it for
	// another round. Subscribers therefore see changes one at a time and the
	// last list they get is the current one.
	delivering bool
	dirty      bool
}

// New returns a Broadcaster. ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Broadcaster {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broadcaster{
		defaultTTL: ttl,
		now:        time.Now,
		timers:     make(map[int64]*time.Timer),
		subs:       make(map[int]func([]Notification)),
	}
}

// Publish appends a notice and schedules its removal. An empty severity means
// info and ttl <= 0 means the broadcaster default. It returns the notice id,
// or 0 once the broadcaster is closed.
func (b *Broadcaster) Publish(message string, severity Severity, ttl time.Duration) int64 {
	if severity == "" {
		severity = SeverityInfo
	}
	if ttl <= 0 {
		ttl = b.defaultTTL
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	now := b.now()
	id := now.UnixNano()
	if id <= b.lastID {
		id = b.lastID + 1
	}
	b.lastID = id

	b.items = append(b.items, Notification{
		ID:        id,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		TTL:       ttl,
	})
	b.timers[id] = time.AfterFunc(ttl, func() { b.Dismiss(id) })
	b.mu.Unlock()

	b.broadcast()
	return id
}

// Dismiss removes the notice with id. Unknown or already removed ids are
// ignored.
func (b *Broadcaster) Dismiss(id int64) {
	b.mu.Lock()
	idx := -1
	for i, n := range b.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return
	}
	b.items = append(b.items[:idx], b.items[idx+1:]...)
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	b.mu.Unlock()

	b.broadcast()
}

// Snapshot returns the live notices, oldest first.
func (b *Broadcaster) Snapshot() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Subscribe registers fn to receive the full list after every change.
func (b *Broadcaster) Subscribe(fn func([]Notification)) (cancel func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Close stops every pending timer and drops all notices. Later publishes are
// ignored.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.items = nil
	b.subs = make(map[int]func([]Notification))
	b.closed = true
}

func (b *Broadcaster) snapshotLocked() []Notification {
	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

// broadcast delivers the current list. If another goroutine is already
// delivering it takes the extra round instead, snapshotting after this
// change.
func (b *Broadcaster) broadcast() {
	b.mu.Lock()
	b.dirty = true
	if b.delivering {
		b.mu.Unlock()
		return
	}
	b.delivering = true
	for b.dirty {
		b.dirty = false
		snap := b.snapshotLocked()
		fns := make([]func([]Notification), 0, len(b.subs))
		for _, fn := range b.subs {
			fns = append(fns, fn)
		}
		b.mu.Unlock()

		for _, fn := range fns {
			fn(snap)
		}

		b.mu.Lock()
	}
	b.delivering = false
	b.mu.Unlock()
}
