package ports

import (
	"context"
	"io"

	"github.com/contaportal/portal/internal/core/domain"
)

// UploadInput carries an uploaded file and who it belongs to.
type UploadInput struct {
	Caller   Caller
	OwnerID  string // empty means the caller
	Title    string
	Filename string
	Size     int64
	Content  io.Reader
}

type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)
	List(ctx context.Context, caller Caller, ownerID string) ([]*domain.Document, error)
	Download(ctx context.Context, caller Caller, id string) (*domain.Document, io.ReadCloser, error)
}
