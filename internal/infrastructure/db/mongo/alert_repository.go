package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contaportal/portal/internal/core/domain"
)

const collectionAlerts = "alerts"

// AlertRepository implements ports.AlertRepository using MongoDB.
type AlertRepository struct {
	col *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{col: db.Collection(collectionAlerts)}
}

type mongoAlert struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Body       string             `bson:"body,omitempty"`
	Level      string             `bson:"level"`
	AuthorID   string             `bson:"author_id"`
	AudienceID string             `bson:"audience_id"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (r *AlertRepository) Insert(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAlert{
		Title:      a.Title,
		Body:       a.Body,
		Level:      string(a.Level),
		AuthorID:   a.AuthorID,
		AudienceID: a.AudienceID,
		CreatedAt:  a.CreatedAt.UTC(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *AlertRepository) FindByID(ctx context.Context, id string) (*domain.Alert, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAlertNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAlert
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("find alert: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns alerts newest first, optionally restricted to audiences.
func (r *AlertRepository) List(ctx context.Context, audiences []string) ([]*domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if audiences != nil {
		filter["audience_id"] = bson.M{"$in": audiences}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAlert
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}

	out := make([]*domain.Alert, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAlertNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// EnsureIndexes creates the audience index used by List.
func (r *AlertRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "audience_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (m mongoAlert) toDomain() *domain.Alert {
	return &domain.Alert{
		ID:         m.ID.Hex(),
		Title:      m.Title,
		Body:       m.Body,
		Level:      domain.AlertLevel(m.Level),
		AuthorID:   m.AuthorID,
		AudienceID: m.AudienceID,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
