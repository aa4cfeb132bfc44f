// Package conversation keeps the message list of the selected counterpart,
// with optimistic sends that either confirm or roll back.
package conversation

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/contaportal/portal/internal/client/request"
	"github.com/contaportal/portal/internal/core/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// Message is one entry of the conversation as the client sees it. Pending
// messages carry a temporary id until the server confirms them.
type Message struct {
	ID     string
	From   string
	To     string
	Text   string
	At     time.Time
	Status Status
}

// Remote is the part of the API the conversation needs.
type Remote interface {
	Messages(ctx context.Context, counterpartID string) ([]*domain.Message, error)
	SendMessage(ctx context.Context, to, text string) (*domain.Message, error)
}

type outgoing struct {
	to   string
	text string
}

// Conversation is safe for concurrent use. Sends do not wait for each other;
// each one settles only its own pending message.
type Conversation struct {
	self func() string
	now  func() time.Time

	history *request.Request[string, []*domain.Message]
	send    *request.Request[outgoing, *domain.Message]

	mu          sync.Mutex
	counterpart string
	gen         uint64
	messages    []Message

	subMu   sync.Mutex
	subs    map[int]func([]Message)
	nextSub int
}

// New builds a conversation for the user self reports. Failures of remote
// calls are reported through pub.
func New(remote Remote, pub request.Publisher, self func() string) *Conversation {
	return &Conversation{
		self: self,
		now:  time.Now,
		history: request.New(func(ctx context.Context, id string) ([]*domain.Message, error) {
			return remote.Messages(ctx, id)
		}, pub),
		send: request.New(func(ctx context.Context, o outgoing) (*domain.Message, error) {
			return remote.SendMessage(ctx, o.to, o.text)
		}, pub),
		subs: make(map[int]func([]Message)),
	}
}

// Select switches to counterpartID, discarding the previous list, and loads
// its history.
func (c *Conversation) Select(ctx context.Context, counterpartID string) error {
	c.mu.Lock()
	c.counterpart = counterpartID
	c.gen++
	c.messages = nil
	c.mu.Unlock()
	c.changed()

	if counterpartID == "" {
		return nil
	}
	return c.LoadHistory(ctx, counterpartID)
}

// LoadHistory fetches the conversation with counterpartID and replaces the
// list with it. Messages still pending are kept. A result that arrives after
// the user switched away is dropped; on failure the list is left untouched.
func (c *Conversation) LoadHistory(ctx context.Context, counterpartID string) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	fetched, err := c.history.Invoke(ctx, counterpartID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if gen != c.gen || counterpartID != c.counterpart {
		c.mu.Unlock()
		return nil
	}
	pending := lo.Filter(c.messages, func(m Message, _ int) bool { return m.Status == StatusPending })
	list := make([]Message, 0, len(fetched)+len(pending))
	for _, m := range fetched {
		if m != nil {
			list = append(list, fromDomain(m))
		}
	}
	c.messages = append(list, pending...)
	c.mu.Unlock()

	c.changed()
	return nil
}

// Send appends text as a pending message right away, then sends it. On
// success the message is confirmed under the server id; on failure it is
// removed and the error returned. Blank text or no selected counterpart is a
// no-op.
func (c *Conversation) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.counterpart == "" {
		c.mu.Unlock()
		return nil
	}
	to, gen := c.counterpart, c.gen
	tempID := "tmp-" + uuid.NewString()
	c.messages = append(c.messages, Message{
		ID:     tempID,
		From:   c.self(),
		To:     to,
		Text:   text,
		At:     c.now(),
		Status: StatusPending,
	})
	c.mu.Unlock()
	c.changed()

	saved, err := c.send.Invoke(ctx, outgoing{to: to, text: text})

	c.mu.Lock()
	if gen != c.gen {
		// The list this message lived in was discarded by Select.
		c.mu.Unlock()
		return err
	}
	switch {
	case err != nil:
		c.messages = lo.Reject(c.messages, func(m Message, _ int) bool { return m.ID == tempID })
	case saved != nil && saved.ID != "" && lo.ContainsBy(c.messages, func(m Message) bool { return m.ID == saved.ID }):
		// A history reload already delivered the server copy.
		c.messages = lo.Reject(c.messages, func(m Message, _ int) bool { return m.ID == tempID })
	default:
		_, idx, ok := lo.FindIndexOf(c.messages, func(m Message) bool { return m.ID == tempID })
		if ok {
			m := &c.messages[idx]
			m.Status = StatusConfirmed
			if saved != nil && saved.ID != "" {
				m.ID = saved.ID
			}
			if saved != nil && !saved.CreatedAt.IsZero() {
				m.At = saved.CreatedAt
			}
		}
	}
	c.mu.Unlock()

	c.changed()
	return err
}

// Messages returns the list ordered by timestamp, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	out := slices.Clone(c.messages)
	c.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Message) int { return a.At.Compare(b.At) })
	return out
}

// Counterpart returns the selected counterpart id, or "".
func (c *Conversation) Counterpart() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counterpart
}

// Loading reports whether the history is being fetched.
func (c *Conversation) Loading() bool {
	return c.history.State().Loading
}

// Subscribe registers fn to receive the ordered list after every change.
func (c *Conversation) Subscribe(fn func([]Message)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Conversation) changed() {
	c.subMu.Lock()
	fns := lo.Values(c.subs)
	c.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	list := c.Messages()
	for _, fn := range fns {
		fn(list)
	}
}

func fromDomain(m *domain.Message) Message {
	return Message{
		ID:     m.ID,
		From:   m.From,
		To:     m.To,
		Text:   m.Text,
		At:     m.CreatedAt,
		Status: StatusConfirmed,
	}
}
