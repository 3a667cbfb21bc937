package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Empty(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	//nolint:staticcheck // nil context is handled explicitly
	_, ok = FromContext(nil)
	assert.False(t, ok)
}

func TestWithPrincipal_RoundTrip(t *testing.T) {
	p := Principal{Subject: "u-1", Claims: map[string]interface{}{"username": "alice", "role": "member"}}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", got.Subject)
	assert.Equal(t, "alice", got.Username())
	assert.Equal(t, "member", got.Role())

	// parent stays anonymous
	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestWithPrincipal_EmptySubjectIsAnonymous(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{})
	_, ok := FromContext(ctx)
	assert.False(t, ok)
}
