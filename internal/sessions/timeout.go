package sessions

import (
	"context"
	"time"
)

// timeoutStore bounds every call to the wrapped store.
type timeoutStore struct {
	inner   Store
	timeout time.Duration
}

// WithTimeout wraps s so each operation runs under its own deadline of d,
// nested inside whatever deadline the caller's context already carries.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{inner: s, timeout: d}
}

func (t *timeoutStore) Put(ctx context.Context, subject, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Put(ctx, subject, value, ttl)
}

func (t *timeoutStore) Get(ctx context.Context, subject string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Get(ctx, subject)
}

func (t *timeoutStore) Delete(ctx context.Context, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Delete(ctx, subject)
}

func (t *timeoutStore) Ping(ctx context.Context) error {
	p, ok := t.inner.(Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return p.Ping(ctx)
}
