package mongo

import (
	"context"
	"errors"
	"time"

	"weighttracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.WeightRepository = (*Client)(nil)

type weightDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Weight    float64            `bson:"weight"`
	Date      time.Time          `bson:"date"`
	Notes     string             `bson:"notes"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d weightDoc) entry() domain.WeightEntry {
	return domain.WeightEntry{
		ID:        d.ID.Hex(),
		Weight:    d.Weight,
		Date:      d.Date.UTC(),
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// BSON dates carry milliseconds only.
func bsonTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ListWeightEntries returns all entries, newest measurement first.
func (c *Client) ListWeightEntries(ctx context.Context) ([]domain.WeightEntry, error) {
	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := c.weights.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	defer cur.Close(ctx) //nolint:errcheck

	entries := make([]domain.WeightEntry, 0)
	for cur.Next(ctx) {
		var d weightDoc
		if err := cur.Decode(&d); err != nil {
			return nil, wrapErr("decode weight entry", err)
		}
		entries = append(entries, d.entry())
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	return entries, nil
}

// GetWeightEntry retrieves an entry by id. Ids that are not ObjectIDs cannot
// exist and are reported as not found.
func (c *Client) GetWeightEntry(ctx context.Context, id string) (*domain.WeightEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	var d weightDoc
	err = c.weights.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get weight entry", err)
	}
	e := d.entry()
	return &e, nil
}

// CreateWeightEntry validates and inserts a new entry.
func (c *Client) CreateWeightEntry(ctx context.Context, entry domain.WeightEntry) (*domain.WeightEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	now := bsonTime(c.now())
	d := weightDoc{
		ID:        primitive.NewObjectID(),
		Weight:    entry.Weight,
		Date:      bsonTime(entry.Date),
		Notes:     entry.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := c.weights.InsertOne(ctx, d); err != nil {
		return nil, wrapErr("create weight entry", err)
	}
	e := d.entry()
	return &e, nil
}

// UpdateWeightEntry applies update to an existing entry. Nil notes keep the
// stored value.
func (c *Client) UpdateWeightEntry(ctx context.Context, id string, update domain.WeightUpdate) (*domain.WeightEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	set := bson.M{
		"weight":    update.Weight,
		"date":      bsonTime(update.Date),
		"updatedAt": bsonTime(c.now()),
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	var d weightDoc
	err = c.weights.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("update weight entry", err)
	}
	e := d.entry()
	return &e, nil
}

// DeleteWeightEntry removes an entry.
func (c *Client) DeleteWeightEntry(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	if err := c.ensureIndexes(ctx); err != nil {
		return err
	}
	res, err := c.weights.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapErr("delete weight entry", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
