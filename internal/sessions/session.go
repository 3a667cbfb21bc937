package sessions

import (
	"context"
	"errors"
	"time"
)

// Store maps a subject to its single live refresh credential. Put overwrites
// any previous entry and resets its expiry; Get reports absence with ok=false
// once the entry expired or was deleted; Delete is idempotent.
//
// Implementations must be safe for concurrent use and atomic per subject.
// No multi-key guarantees are made.
type Store interface {
	Put(ctx context.Context, subject, value string, ttl time.Duration) error
	Get(ctx context.Context, subject string) (value string, ok bool, err error)
	Delete(ctx context.Context, subject string) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	errEmptySubject = errors.New("session store: empty subject")
	errBadTTL       = errors.New("session store: ttl must be positive")
)

// Session is the persisted form of a store entry where the backend keeps
// documents rather than plain values.
type Session struct {
	Subject      string    `bson:"_id" json:"subject"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func checkPut(subject string, ttl time.Duration) error {
	if subject == "" {
		return errEmptySubject
	}
	if ttl <= 0 {
		return errBadTTL
	}
	return nil
}
