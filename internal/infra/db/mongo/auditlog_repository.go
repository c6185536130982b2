package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
)

type AuditLogRepository struct {
	col *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) *AuditLogRepository {
	col := db.Collection("bungalow_log")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "bungalow_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return &AuditLogRepository{col: col}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry auditlog.Entry) error {
	_, err := r.col.InsertOne(ctx, newLogDocument(entry))
	return err
}

func (r *AuditLogRepository) ListForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) ([]auditlog.Entry, error) {
	return r.list(ctx, bson.M{"bungalow_id": string(bungalowID)})
}

func (r *AuditLogRepository) ListForBungalowByType(ctx context.Context, bungalowID bungalow.BungalowID, eventType string) ([]auditlog.Entry, error) {
	return r.list(ctx, bson.M{"bungalow_id": string(bungalowID), "event_type": eventType})
}

// DeleteForBungalow cascades when an offer is withdrawn; entries are never
// deleted outside that path.
func (r *AuditLogRepository) DeleteForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"bungalow_id": string(bungalowID)})
	return err
}

func (r *AuditLogRepository) list(ctx context.Context, filter bson.M) ([]auditlog.Entry, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []auditlog.Entry
	for cursor.Next(ctx) {
		var doc logDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, doc.toEntry())
	}
	return entries, cursor.Err()
}

type logDocument struct {
	ID         string            `bson:"_id"`
	OccurredAt time.Time         `bson:"occurred_at"`
	EventType  string            `bson:"event_type"`
	BungalowID string            `bson:"bungalow_id"`
	Data       map[string]string `bson:"data"`
}

func newLogDocument(entry auditlog.Entry) logDocument {
	return logDocument{
		ID:         entry.ID,
		OccurredAt: entry.OccurredAt,
		EventType:  entry.EventType,
		BungalowID: string(entry.BungalowID),
		Data:       entry.Data,
	}
}

func (d logDocument) toEntry() auditlog.Entry {
	return auditlog.Entry{
		ID:         d.ID,
		OccurredAt: d.OccurredAt,
		EventType:  d.EventType,
		BungalowID: bungalow.BungalowID(d.BungalowID),
		Data:       d.Data,
	}
}
