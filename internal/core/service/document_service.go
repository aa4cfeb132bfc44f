package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// sniffLen is how much of an upload is buffered for content-type detection.
const sniffLen = 3072

// documentService implements document exchange between organizations and
// the accountants that serve them.
type documentService struct {
	users    ports.AuthRepository
	docs     ports.DocumentRepository
	maxBytes int64
	logger   zerolog.Logger
}

func NewDocumentService(users ports.AuthRepository, docs ports.DocumentRepository, maxBytes int64, logger zerolog.Logger) ports.DocumentService {
	return &documentService{users: users, docs: docs, maxBytes: maxBytes, logger: logger}
}

// Upload stores a document. Organizations may only upload for themselves;
// accountants and admins may upload on behalf of an organization.
func (s *documentService) Upload(ctx context.Context, in ports.UploadInput) (*domain.Document, error) {
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, domain.ErrDocumentTooLarge
	}

	ownerID, err := s.resolveOwner(ctx, in.Caller, in.OwnerID)
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("upload: read content: %w", err)
	}
	head = head[:n]

	var body io.Reader = io.MultiReader(bytes.NewReader(head), in.Content)
	if s.maxBytes > 0 {
		body = &limitedReader{r: body, remaining: s.maxBytes}
	}

	filename := filepath.Base(strings.TrimSpace(in.Filename))
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	doc, err := s.docs.Save(ctx, &domain.Document{
		OwnerID:     ownerID,
		UploadedBy:  in.Caller.UserID,
		Title:       title,
		Filename:    filename,
		ContentType: mimetype.Detect(head).String(),
		CreatedAt:   time.Now().UTC(),
	}, body)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentTooLarge) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to store document")
		return nil, fmt.Errorf("upload: %w", err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("owner_id", doc.OwnerID).
		Str("content_type", doc.ContentType).
		Int64("size", doc.Size).
		Msg("document uploaded")

	return doc, nil
}

// List returns the documents of ownerID visible to the caller.
func (s *documentService) List(ctx context.Context, caller ports.Caller, ownerID string) ([]*domain.Document, error) {
	if ownerID == "" {
		ownerID = caller.UserID
	}
	if caller.Role == domain.RoleOrganization && ownerID != caller.UserID {
		return nil, domain.ErrForbidden
	}
	return s.docs.ListByOwner(ctx, ownerID)
}

// Download opens a document's content. The caller must close the reader.
func (s *documentService) Download(ctx context.Context, caller ports.Caller, id string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if caller.Role == domain.RoleOrganization && doc.OwnerID != caller.UserID {
		return nil, nil, domain.ErrForbidden
	}

	rc, err := s.docs.Open(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}
	return doc, rc, nil
}

func (s *documentService) resolveOwner(ctx context.Context, caller ports.Caller, ownerID string) (string, error) {
	if ownerID == "" || ownerID == caller.UserID {
		return caller.UserID, nil
	}
	if caller.Role == domain.RoleOrganization {
		return "", domain.ErrForbidden
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if owner.Role != domain.RoleOrganization {
		return "", domain.ErrForbidden
	}
	return owner.ID, nil
}

// limitedReader fails with ErrDocumentTooLarge once more than remaining
// bytes have been read, instead of silently truncating like io.LimitReader.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, domain.ErrDocumentTooLarge
	}
	return n, err
}
