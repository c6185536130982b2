package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// translateDuplicate maps a unique-index violation to the domain error that
// matches the violated index. The index on bungalow_id is the race-breaker
// for concurrent reserve and occupy calls.
func translateDuplicate(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "order_number"):
		return occupation.ErrOrderAlreadyAttached
	default:
		return bungalow.ErrNotAvailable
	}
}

const writeConflictCode = 112

// translateConflict maps a transaction-level write conflict to the same
// domain error the unique index produces. Two sessions updating one bungalow
// row race before the reservation index is ever consulted; the loser must
// still surface as the unit being unavailable.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) &&
		(srvErr.HasErrorLabel("TransientTransactionError") || srvErr.HasErrorCode(writeConflictCode)) {
		return bungalow.ErrNotAvailable
	}
	return err
}

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("agg_reservation")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "bungalow_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"order_number": bson.M{"$gt": ""}}),
	})
	return &ReservationRepository{col: col}
}

func (r *ReservationRepository) ByID(ctx context.Context, id occupation.ReservationID) (*occupation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, occupation.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*occupation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"bungalow_id": string(bungalowID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, occupation.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *occupation.Reservation) error {
	_, err := r.col.InsertOne(ctx, newReservationDocument(res))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return translateDuplicate(err)
	}
	return err
}

func (r *ReservationRepository) Save(ctx context.Context, res *occupation.Reservation) error {
	doc := newReservationDocument(res)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return translateDuplicate(err)
	}
	return err
}

func (r *ReservationRepository) Delete(ctx context.Context, id occupation.ReservationID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return occupation.ErrReservationNotFound
	}
	return nil
}

type reservationDocument struct {
	ID             string `bson:"_id"`
	BungalowID     string `bson:"bungalow_id"`
	ReservedByID   string `bson:"reserved_by_id"`
	OrderNumber    string `bson:"order_number,omitempty"`
	Pinned         bool   `bson:"pinned"`
	InternalRemark string `bson:"internal_remark,omitempty"`
}

func newReservationDocument(res *occupation.Reservation) reservationDocument {
	return reservationDocument{
		ID:             string(res.ID),
		BungalowID:     string(res.BungalowID),
		ReservedByID:   res.ReservedByID,
		OrderNumber:    res.OrderNumber,
		Pinned:         res.Pinned,
		InternalRemark: res.InternalRemark,
	}
}

func (d reservationDocument) toAggregate() *occupation.Reservation {
	return &occupation.Reservation{
		ID:             occupation.ReservationID(d.ID),
		BungalowID:     bungalow.BungalowID(d.BungalowID),
		ReservedByID:   d.ReservedByID,
		OrderNumber:    d.OrderNumber,
		Pinned:         d.Pinned,
		InternalRemark: d.InternalRemark,
	}
}

type OccupancyRepository struct {
	col       *mongo.Collection
	bungalows *mongo.Collection
}

func NewOccupancyRepository(db *mongo.Database) *OccupancyRepository {
	col := db.Collection("agg_occupancy")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "bungalow_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"order_number": bson.M{"$gt": ""}}),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "manager_id", Value: 1}},
	})
	return &OccupancyRepository{col: col, bungalows: db.Collection("agg_bungalow")}
}

func (r *OccupancyRepository) ByID(ctx context.Context, id occupation.OccupancyID) (*occupation.Occupancy, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *OccupancyRepository) ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*occupation.Occupancy, error) {
	return r.findOne(ctx, bson.M{"bungalow_id": string(bungalowID)})
}

func (r *OccupancyRepository) ByTicketBundle(ctx context.Context, ticketBundleID string) (*occupation.Occupancy, error) {
	return r.findOne(ctx, bson.M{"ticket_bundle_id": ticketBundleID})
}

func (r *OccupancyRepository) ByOrderNumber(ctx context.Context, orderNumber string) (*occupation.Occupancy, error) {
	return r.findOne(ctx, bson.M{"order_number": orderNumber})
}

// ManagedBy resolves via the party's bungalow IDs; occupancies do not carry
// the party directly.
func (r *OccupancyRepository) ManagedBy(ctx context.Context, partyID, userID string) (*occupation.Occupancy, error) {
	cursor, err := r.bungalows.Find(ctx, bson.M{"party_id": partyID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, occupation.ErrOccupancyNotFound
	}
	return r.findOne(ctx, bson.M{"manager_id": userID, "bungalow_id": bson.M{"$in": ids}})
}

func (r *OccupancyRepository) Create(ctx context.Context, o *occupation.Occupancy) error {
	_, err := r.col.InsertOne(ctx, newOccupancyDocument(o))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return translateDuplicate(err)
	}
	return err
}

func (r *OccupancyRepository) Save(ctx context.Context, o *occupation.Occupancy) error {
	doc := newOccupancyDocument(o)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return translateDuplicate(err)
	}
	return err
}

func (r *OccupancyRepository) Reparent(ctx context.Context, id occupation.OccupancyID, newBungalowID bungalow.BungalowID) error {
	res, err := r.col.UpdateByID(ctx, string(id), bson.M{"$set": bson.M{"bungalow_id": string(newBungalowID)}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return occupation.ErrTargetUnavailable
		}
		return err
	}
	if res.MatchedCount == 0 {
		return occupation.ErrOccupancyNotFound
	}
	return nil
}

func (r *OccupancyRepository) Delete(ctx context.Context, id occupation.OccupancyID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return occupation.ErrOccupancyNotFound
	}
	return nil
}

func (r *OccupancyRepository) findOne(ctx context.Context, filter bson.M) (*occupation.Occupancy, error) {
	var doc occupancyDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, occupation.ErrOccupancyNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

type occupancyDocument struct {
	ID             string `bson:"_id"`
	BungalowID     string `bson:"bungalow_id"`
	OccupiedByID   string `bson:"occupied_by_id"`
	OrderNumber    string `bson:"order_number,omitempty"`
	State          string `bson:"state"`
	TicketBundleID string `bson:"ticket_bundle_id,omitempty"`
	Pinned         bool   `bson:"pinned"`
	ManagerID      string `bson:"manager_id"`
	Title          string `bson:"title"`
	Description    string `bson:"description,omitempty"`
	AvatarRef      string `bson:"avatar_ref,omitempty"`
	InternalRemark string `bson:"internal_remark,omitempty"`
}

func newOccupancyDocument(o *occupation.Occupancy) occupancyDocument {
	return occupancyDocument{
		ID:             string(o.ID),
		BungalowID:     string(o.BungalowID),
		OccupiedByID:   o.OccupiedByID,
		OrderNumber:    o.OrderNumber,
		State:          string(o.State),
		TicketBundleID: o.TicketBundleID,
		Pinned:         o.Pinned,
		ManagerID:      o.ManagerID,
		Title:          o.Title,
		Description:    o.Description,
		AvatarRef:      o.AvatarRef,
		InternalRemark: o.InternalRemark,
	}
}

func (d occupancyDocument) toAggregate() (*occupation.Occupancy, error) {
	state, err := occupation.ParseState(d.State)
	if err != nil {
		return nil, err
	}
	return &occupation.Occupancy{
		ID:             occupation.OccupancyID(d.ID),
		BungalowID:     bungalow.BungalowID(d.BungalowID),
		OccupiedByID:   d.OccupiedByID,
		OrderNumber:    d.OrderNumber,
		State:          state,
		TicketBundleID: d.TicketBundleID,
		Pinned:         d.Pinned,
		ManagerID:      d.ManagerID,
		Title:          d.Title,
		Description:    d.Description,
		AvatarRef:      d.AvatarRef,
		InternalRemark: d.InternalRemark,
	}, nil
}
