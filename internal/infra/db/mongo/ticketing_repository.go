package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"partylodge/internal/app/policies"
)

// TicketingRepository reads the ticket bundle projection the ticketing
// subsystem maintains and writes seat and manager appointments back into it.
type TicketingRepository struct {
	col *mongo.Collection
}

func NewTicketingRepository(db *mongo.Database) *TicketingRepository {
	col := db.Collection("ticket_bundles")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "tickets.used_by_id", Value: 1}},
	})
	return &TicketingRepository{col: col}
}

func (r *TicketingRepository) GetBundle(ctx context.Context, bundleID string) (policies.TicketBundle, error) {
	var doc ticketBundleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": bundleID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return policies.TicketBundle{}, policies.ErrBundleNotFound
		}
		return policies.TicketBundle{}, err
	}
	return doc.toBundle(), nil
}

func (r *TicketingRepository) AppointUserManager(ctx context.Context, ticketID, newManagerID, initiatorID string) error {
	return r.setTicketField(ctx, ticketID, "tickets.$.user_manager_id", newManagerID)
}

func (r *TicketingRepository) AppointUser(ctx context.Context, ticketID, userID, initiatorID string) error {
	return r.setTicketField(ctx, ticketID, "tickets.$.used_by_id", userID)
}

func (r *TicketingRepository) WithdrawUser(ctx context.Context, ticketID, initiatorID string) error {
	return r.setTicketField(ctx, ticketID, "tickets.$.used_by_id", "")
}

func (r *TicketingRepository) UsesAnyTicketForParty(ctx context.Context, userID, partyID string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"party_id": partyID,
		"tickets": bson.M{"$elemMatch": bson.M{
			"used_by_id": userID,
			"revoked":    false,
		}},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TicketingRepository) setTicketField(ctx context.Context, ticketID, field, value string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"tickets.id": ticketID},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return policies.ErrTicketNotFound
	}
	return nil
}

type ticketBundleDocument struct {
	ID               string           `bson:"_id"`
	PartyID          string           `bson:"party_id"`
	TicketCategoryID string           `bson:"ticket_category_id"`
	OwnerID          string           `bson:"owner_id"`
	OrderNumber      string           `bson:"order_number,omitempty"`
	Tickets          []ticketDocument `bson:"tickets"`
}

type ticketDocument struct {
	ID            string    `bson:"id"`
	CreatedAt     time.Time `bson:"created_at"`
	UsedByID      string    `bson:"used_by_id,omitempty"`
	UserManagerID string    `bson:"user_manager_id,omitempty"`
	Revoked       bool      `bson:"revoked"`
}

func (d ticketBundleDocument) toBundle() policies.TicketBundle {
	bundle := policies.TicketBundle{
		ID:               d.ID,
		TicketCategoryID: d.TicketCategoryID,
		OwnerID:          d.OwnerID,
		OrderNumber:      d.OrderNumber,
		Tickets:          make([]policies.Ticket, 0, len(d.Tickets)),
	}
	for _, t := range d.Tickets {
		bundle.Tickets = append(bundle.Tickets, policies.Ticket{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			UsedByID:  t.UsedByID,
			Revoked:   t.Revoked,
		})
	}
	return bundle
}

var _ policies.TicketingPort = (*TicketingRepository)(nil)
