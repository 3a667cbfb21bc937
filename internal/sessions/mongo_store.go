package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using a Mongo collection, one document per
// subject keyed by _id. Mongo's TTL monitor only sweeps about once a minute,
// so reads also filter on expiresAt.
type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col, now: time.Now}
}

// EnsureIndexes creates the TTL index on expiresAt. Safe to call repeatedly.
func (r *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl"),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

func (r *MongoStore) Put(ctx context.Context, subject, value string, ttl time.Duration) error {
	if err := checkPut(subject, ttl); err != nil {
		return err
	}
	filter, upd := r.putDocs(subject, value, ttl)
	if _, err := r.col.UpdateOne(ctx, filter, upd, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *MongoStore) Get(ctx context.Context, subject string) (string, bool, error) {
	var s Session
	if err := r.col.FindOne(ctx, r.liveFilter(subject)).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find session: %w", err)
	}
	return s.RefreshToken, true, nil
}

// putDocs builds the upsert that replaces the subject's entry and restarts
// its expiry.
func (r *MongoStore) putDocs(subject, value string, ttl time.Duration) (filter, update bson.M) {
	now := r.now().UTC()
	filter = bson.M{"_id": subject}
	update = bson.M{"$set": bson.M{
		"refreshToken": value,
		"expiresAt":    now.Add(ttl),
		"updatedAt":    now,
	}}
	return filter, update
}

// liveFilter matches the subject's entry only while it is unexpired, so an
// entry is absent after its TTL even before the TTL monitor removes it.
func (r *MongoStore) liveFilter(subject string) bson.M {
	return bson.M{"_id": subject, "expiresAt": bson.M{"$gt": r.now().UTC()}}
}

func (r *MongoStore) Delete(ctx context.Context, subject string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": subject}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *MongoStore) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
