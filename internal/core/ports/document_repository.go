package ports

import (
	"context"
	"io"

	"github.com/contaportal/portal/internal/core/domain"
)

// DocumentRepository stores document metadata and content.
type DocumentRepository interface {
	// Save streams content into blob storage and records doc; doc.FileID,
	// doc.ID and doc.Size are filled in on success.
	Save(ctx context.Context, doc *domain.Document, content io.Reader) (*domain.Document, error)
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error)
	Open(ctx context.Context, doc *domain.Document) (io.ReadCloser, error)
}
