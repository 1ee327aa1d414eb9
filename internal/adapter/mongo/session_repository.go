package mongo

import (
	"context"
	"errors"
	"time"

	"weighttracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ domain.SessionRepository = (*SessionRepository)(nil)

type sessionDoc struct {
	Token     string    `bson:"_id"`
	Subject   string    `bson:"subject"`
	UserAgent string    `bson:"userAgent"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// SessionRepository stores login sessions keyed by token.
type SessionRepository struct {
	client     *Client
	collection *mongo.Collection
}

// NewSessionRepository returns a session repository on the client's database.
func (c *Client) NewSessionRepository() *SessionRepository {
	return &SessionRepository{client: c, collection: c.database.Collection(sessionsCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, s domain.Session) error {
	if err := r.client.ensureIndexes(ctx); err != nil {
		return err
	}
	_, err := r.collection.InsertOne(ctx, sessionDoc{
		Token:     s.Token,
		Subject:   s.Subject,
		UserAgent: s.UserAgent,
		ExpiresAt: bsonTime(s.ExpiresAt),
		CreatedAt: bsonTime(s.CreatedAt),
	})
	if err != nil {
		return wrapErr("create session", err)
	}
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if err := r.client.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	var d sessionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	return &domain.Session{
		Token:     d.Token,
		Subject:   d.Subject,
		UserAgent: d.UserAgent,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.ensureIndexes(ctx); err != nil {
		return err
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return wrapErr("delete session", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	if err := r.client.ensureIndexes(ctx); err != nil {
		return err
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return wrapErr("delete expired sessions", err)
	}
	return nil
}
