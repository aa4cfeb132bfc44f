package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contaportal/portal/internal/core/domain"
)

const (
	collectionDocuments = "documents"
	documentsBucket     = "document_files"
)

// DocumentRepository keeps document metadata in a collection and the file
// content in a GridFS bucket.
type DocumentRepository struct {
	col    *mongo.Collection
	bucket *gridfs.Bucket
}

func NewDocumentRepository(db *mongo.Database) (*DocumentRepository, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(documentsBucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &DocumentRepository{col: db.Collection(collectionDocuments), bucket: bucket}, nil
}

type mongoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	UploadedBy  string             `bson:"uploaded_by"`
	Title       string             `bson:"title"`
	Filename    string             `bson:"filename"`
	ContentType string             `bson:"content_type"`
	Size        int64              `bson:"size"`
	FileID      primitive.ObjectID `bson:"file_id"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// Save uploads content to GridFS first, then records the metadata. A failed
// metadata insert removes the orphaned file.
func (r *DocumentRepository) Save(ctx context.Context, doc *domain.Document, content io.Reader) (*domain.Document, error) {
	fileID, err := r.bucket.UploadFromStream(doc.Filename, content,
		options.GridFSUpload().SetMetadata(bson.M{"owner_id": doc.OwnerID, "content_type": doc.ContentType}))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentTooLarge) {
			return nil, domain.ErrDocumentTooLarge
		}
		return nil, fmt.Errorf("upload content: %w", err)
	}

	size, err := r.fileSize(ctx, fileID)
	if err != nil {
		_ = r.bucket.Delete(fileID)
		return nil, err
	}

	md := mongoDocument{
		OwnerID:     doc.OwnerID,
		UploadedBy:  doc.UploadedBy,
		Title:       doc.Title,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Size:        size,
		FileID:      fileID,
		CreatedAt:   doc.CreatedAt.UTC(),
	}

	insertCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(insertCtx, md)
	if err != nil {
		_ = r.bucket.Delete(fileID)
		return nil, fmt.Errorf("insert document: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		md.ID = oid
	}
	return md.toDomain(), nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDocumentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var md mongoDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&md); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return md.toDomain(), nil
}

// ListByOwner returns the owner's documents, newest first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	out := make([]*domain.Document, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

// Open returns a stream over the document's stored content.
func (r *DocumentRepository) Open(_ context.Context, doc *domain.Document) (io.ReadCloser, error) {
	fileID, err := primitive.ObjectIDFromHex(doc.FileID)
	if err != nil {
		return nil, domain.ErrDocumentNotFound
	}
	stream, err := r.bucket.OpenDownloadStream(fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("open content: %w", err)
	}
	return stream, nil
}

// EnsureIndexes creates the owner index used by ListByOwner.
func (r *DocumentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *DocumentRepository) fileSize(ctx context.Context, fileID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.bucket.FindContext(ctx, bson.M{"_id": fileID})
	if err != nil {
		return 0, fmt.Errorf("stat content: %w", err)
	}
	defer cur.Close(ctx)

	var file gridfs.File
	if !cur.Next(ctx) {
		return 0, domain.ErrDocumentNotFound
	}
	if err := cur.Decode(&file); err != nil {
		return 0, fmt.Errorf("decode file: %w", err)
	}
	return file.Length, nil
}

func (md mongoDocument) toDomain() *domain.Document {
	return &domain.Document{
		ID:          md.ID.Hex(),
		OwnerID:     md.OwnerID,
		UploadedBy:  md.UploadedBy,
		Title:       md.Title,
		Filename:    md.Filename,
		ContentType: md.ContentType,
		Size:        md.Size,
		FileID:      md.FileID.Hex(),
		CreatedAt:   md.CreatedAt.UTC(),
	}
}
