package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newClockedMongoStore(c *clock) *MongoStore {
	// collection is never touched by the document builders
	return &MongoStore{now: c.Now}
}

func TestMongoStore_PutOverwritesAndRestartsExpiry(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 7200))}
	s := newClockedMongoStore(c)

	filter, upd := s.putDocs("sub-1", "r1", time.Minute)
	require.Equal(t, bson.M{"_id": "sub-1"}, filter, "keyed by subject only, so a put replaces any previous value")

	set, ok := upd["$set"].(bson.M)
	require.True(t, ok)
	require.Equal(t, "r1", set["refreshToken"])
	require.Equal(t, c.Now().UTC().Add(time.Minute), set["expiresAt"])
	require.Equal(t, c.Now().UTC(), set["updatedAt"])

	c.Advance(50 * time.Second)
	_, upd = s.putDocs("sub-1", "r2", time.Minute)
	set = upd["$set"].(bson.M)
	require.Equal(t, "r2", set["refreshToken"])
	require.Equal(t, c.Now().UTC().Add(time.Minute), set["expiresAt"])
}

func TestMongoStore_LiveFilterExcludesExpired(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newClockedMongoStore(c)

	_, upd := s.putDocs("sub-1", "r1", 10*time.Second)
	expiresAt := upd["$set"].(bson.M)["expiresAt"].(time.Time)

	live := func() bool {
		f := s.liveFilter("sub-1")
		require.Equal(t, "sub-1", f["_id"])
		cutoff := f["expiresAt"].(bson.M)["$gt"].(time.Time)
		return expiresAt.After(cutoff)
	}

	require.True(t, live())
	c.Advance(9 * time.Second)
	require.True(t, live())
	c.Advance(time.Second)
	require.False(t, live(), "absent exactly at the deadline, before the TTL monitor runs")
}

func TestMongoStore_RejectsBadInputBeforeQuerying(t *testing.T) {
	s := newClockedMongoStore(&clock{t: time.Unix(0, 0)})
	require.Error(t, s.Put(context.Background(), "", "v", time.Minute))
	require.Error(t, s.Put(context.Background(), "sub", "v", 0))
}
