package domain

import (
	"errors"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentTooLarge = errors.New("document exceeds upload limit")
)

// Document is the metadata of a file exchanged between an organization and
// its accountants. The content lives in GridFS under FileID.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	UploadedBy  string    `json:"uploaded_by"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	FileID      string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
