package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyMessage        = errors.New("message text is empty")
	ErrCounterpartNotFound = errors.New("counterpart not found")
	ErrSelfMessage         = errors.New("cannot message yourself")
	ErrMessageTooLong      = errors.New("message text too long")
)

// Message is a single entry in a two-party conversation.
type Message struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
