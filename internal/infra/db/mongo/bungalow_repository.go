package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partylodge/internal/domain/bungalow"
)

var ErrNumberTaken = errors.New("mongo: bungalow number already taken for party")

type BungalowRepository struct {
	col *mongo.Collection
}

func NewBungalowRepository(db *mongo.Database) *BungalowRepository {
	col := db.Collection("agg_bungalow")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "party_id", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &BungalowRepository{col: col}
}

func (r *BungalowRepository) ByID(ctx context.Context, id bungalow.BungalowID) (*bungalow.Bungalow, error) {
	var doc bungalowDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bungalow.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BungalowRepository) ByNumber(ctx context.Context, partyID string, number int) (*bungalow.Bungalow, error) {
	var doc bungalowDocument
	if err := r.col.FindOne(ctx, bson.M{"party_id": partyID, "number": number}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bungalow.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BungalowRepository) ListForParty(ctx context.Context, partyID string) ([]*bungalow.Bungalow, error) {
	cursor, err := r.col.Find(ctx, bson.M{"party_id": partyID}, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var list []*bungalow.Bungalow
	for cursor.Next(ctx) {
		var doc bungalowDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, cursor.Err()
}

func (r *BungalowRepository) Save(ctx context.Context, b *bungalow.Bungalow) error {
	doc := newBungalowDocument(b)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return ErrNumberTaken
	}
	return err
}

func (r *BungalowRepository) SetState(ctx context.Context, id bungalow.BungalowID, state bungalow.OccupationState) error {
	res, err := r.col.UpdateByID(ctx, string(id), bson.M{"$set": bson.M{"occupation_state": string(state)}})
	if err != nil {
		return translateConflict(err)
	}
	if res.MatchedCount == 0 {
		return bungalow.ErrNotFound
	}
	return nil
}

func (r *BungalowRepository) SetDistributesNetwork(ctx context.Context, id bungalow.BungalowID, flag bool) error {
	res, err := r.col.UpdateByID(ctx, string(id), bson.M{"$set": bson.M{"distributes_network": flag}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return bungalow.ErrNotFound
	}
	return nil
}

func (r *BungalowRepository) Delete(ctx context.Context, id bungalow.BungalowID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return bungalow.ErrNotFound
	}
	return nil
}

type bungalowDocument struct {
	ID                 string           `bson:"_id"`
	PartyID            string           `bson:"party_id"`
	Number             int              `bson:"number"`
	CategoryID         string           `bson:"category_id"`
	Category           categoryDocument `bson:"category"`
	OccupationState    string           `bson:"occupation_state"`
	DistributesNetwork bool             `bson:"distributes_network"`
}

func newBungalowDocument(b *bungalow.Bungalow) bungalowDocument {
	return bungalowDocument{
		ID:                 string(b.ID),
		PartyID:            b.PartyID,
		Number:             b.Number,
		CategoryID:         string(b.CategoryID),
		Category:           newCategoryDocument(&b.Category),
		OccupationState:    string(b.OccupationState),
		DistributesNetwork: b.DistributesNetwork,
	}
}

func (d bungalowDocument) toAggregate() (*bungalow.Bungalow, error) {
	state, err := bungalow.ParseOccupationState(d.OccupationState)
	if err != nil {
		return nil, err
	}
	return &bungalow.Bungalow{
		ID:                 bungalow.BungalowID(d.ID),
		PartyID:            d.PartyID,
		Number:             d.Number,
		CategoryID:         bungalow.CategoryID(d.CategoryID),
		Category:           d.Category.toAggregate(),
		OccupationState:    state,
		DistributesNetwork: d.DistributesNetwork,
	}, nil
}

type categoryDocument struct {
	ID               string `bson:"_id"`
	PartyID          string `bson:"party_id"`
	Title            string `bson:"title"`
	Capacity         int    `bson:"capacity"`
	TicketCategoryID string `bson:"ticket_category_id"`
	ProductID        string `bson:"product_id"`
	ImageFilename    string `bson:"image_filename"`
	ImageWidth       int    `bson:"image_width"`
	ImageHeight      int    `bson:"image_height"`
}

func newCategoryDocument(c *bungalow.Category) categoryDocument {
	return categoryDocument{
		ID:               string(c.ID),
		PartyID:          c.PartyID,
		Title:            c.Title,
		Capacity:         c.Capacity,
		TicketCategoryID: c.TicketCategoryID,
		ProductID:        c.ProductID,
		ImageFilename:    c.ImageFilename,
		ImageWidth:       c.ImageWidth,
		ImageHeight:      c.ImageHeight,
	}
}

func (d categoryDocument) toAggregate() bungalow.Category {
	return bungalow.Category{
		ID:               bungalow.CategoryID(d.ID),
		PartyID:          d.PartyID,
		Title:            d.Title,
		Capacity:         d.Capacity,
		TicketCategoryID: d.TicketCategoryID,
		ProductID:        d.ProductID,
		ImageFilename:    d.ImageFilename,
		ImageWidth:       d.ImageWidth,
		ImageHeight:      d.ImageHeight,
	}
}

// CategoryRepository stores the catalog reference data as its own collection;
// the bungalow document embeds a denormalized copy for read paths.
type CategoryRepository struct {
	col *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection("agg_bungalow_category")}
}

func (r *CategoryRepository) ByID(ctx context.Context, id bungalow.CategoryID) (*bungalow.Category, error) {
	var doc categoryDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bungalow.ErrCategoryNotFound
		}
		return nil, err
	}
	c := doc.toAggregate()
	return &c, nil
}

func (r *CategoryRepository) Save(ctx context.Context, c *bungalow.Category) error {
	doc := newCategoryDocument(c)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}
