package tokens

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	opts := []Option{WithIssuer("tokenauth-test")}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	c, err := NewCodec(testSecret, opts...)
	require.NoError(t, err)
	return c
}

func TestSignVerify_RoundTrip(t *testing.T) {
	c := newTestCodec(t, nil)
	claims := map[string]interface{}{"username": "alice", "role": "USER", ClaimType: TypeAccess}

	raw, err := c.Sign("user-123", claims, 2*time.Minute)
	require.NoError(t, err)
	require.Len(t, strings.Split(raw, "."), 3)

	p, err := c.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-123", p.Subject)
	require.Equal(t, claims, p.Claims)
	require.Equal(t, TypeAccess, p.Type())
	require.WithinDuration(t, time.Now().Add(2*time.Minute), p.ExpiresAt, 2*time.Second)
	require.False(t, c.IsExpired(raw))
}

func TestSignVerify_RoundTripKeepsLargeIntegers(t *testing.T) {
	c := newTestCodec(t, nil)
	const big = int64(9007199254740993) // 2^53 + 1, not representable as float64
	raw, err := c.Sign("s", map[string]interface{}{"n": 5, "big": big}, time.Minute)
	require.NoError(t, err)

	p, err := c.Verify(raw)
	require.NoError(t, err)

	n, ok := p.Claims["n"].(json.Number)
	require.True(t, ok, "got %T", p.Claims["n"])
	require.Equal(t, "5", n.String())

	b, ok := p.Claims["big"].(json.Number)
	require.True(t, ok, "got %T", p.Claims["big"])
	got, err := b.Int64()
	require.NoError(t, err)
	require.Equal(t, big, got)

	// registered numeric claims still decode
	require.WithinDuration(t, time.Now().Add(time.Minute), p.ExpiresAt, 2*time.Second)
	require.False(t, p.IssuedAt.IsZero())
}

func TestSign_ReservedClaimsAreOwnedByCodec(t *testing.T) {
	c := newTestCodec(t, nil)
	raw, err := c.Sign("real-sub", map[string]interface{}{"sub": "spoofed", "exp": 1}, time.Minute)
	require.NoError(t, err)

	p, err := c.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "real-sub", p.Subject)
	require.NotContains(t, p.Claims, "sub")
	require.NotContains(t, p.Claims, "exp")
}

func TestSign_RejectsBadInput(t *testing.T) {
	c := newTestCodec(t, nil)
	_, err := c.Sign("", nil, time.Minute)
	require.Error(t, err)
	_, err = c.Sign("s", nil, 0)
	require.Error(t, err)
}

func TestIsExpired_Boundary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	raw, err := c.Sign("u1", nil, 10*time.Minute)
	require.NoError(t, err)

	clock.t = clock.t.Add(10*time.Minute - time.Second)
	require.False(t, c.IsExpired(raw))
	_, err = c.VerifyFresh(raw)
	require.NoError(t, err)

	clock.t = time.Unix(1_700_000_000, 0).Add(10 * time.Minute)
	require.True(t, c.IsExpired(raw))
	_, err = c.VerifyFresh(raw)
	require.ErrorIs(t, err, ErrTokenExpired)

	// expired tokens still verify: staleness is a separate question
	p, err := c.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", p.Subject)
}

func TestIsExpired_RealClock(t *testing.T) {
	c := newTestCodec(t, nil)
	raw, err := c.Sign("u2", nil, 1*time.Second)
	require.NoError(t, err)
	time.Sleep(2 * time.Second)
	require.True(t, c.IsExpired(raw))
}

func TestVerify_WrongSecret(t *testing.T) {
	c := newTestCodec(t, nil)
	raw, err := c.Sign("u3", nil, time.Minute)
	require.NoError(t, err)

	other, err := NewCodec("different-secret-xxxxxxxxxxxxxxxxxxxxx")
	require.NoError(t, err)
	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
	require.True(t, other.IsExpired(raw))
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t, nil)
	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c.d", "..sig"} {
		_, err := c.Verify(raw)
		require.ErrorIs(t, err, ErrTokenMalformed, raw)
		require.True(t, c.IsExpired(raw), raw)
	}
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	c := newTestCodec(t, nil)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","exp":9999999999}`))
	_, err := c.Verify(header + "." + payload + ".")
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestVerify_OtherHMACAlgorithmRejected(t *testing.T) {
	c := newTestCodec(t, nil)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = c.Verify(raw)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestVerify_TamperedPayload(t *testing.T) {
	c := newTestCodec(t, nil)
	raw, err := c.Sign("user-t", map[string]interface{}{"role": "USER"}, 5*time.Minute)
	require.NoError(t, err)
	parts := strings.Split(raw, ".")

	// semantic tamper: rewrite the subject and re-encode
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), "user-t", "attacker", 1)
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[2]
	_, err = c.Verify(tampered)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)

	// byte-level tamper at every payload position
	for i := 0; i < len(parts[1]); i++ {
		b := []byte(parts[1])
		b[i] = flip(b[i])
		_, err := c.Verify(parts[0] + "." + string(b) + "." + parts[2])
		require.ErrorIs(t, err, ErrTokenSignatureInvalid, "payload byte %d", i)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	c := newTestCodec(t, nil)
	raw, err := c.Sign("user-s", nil, 5*time.Minute)
	require.NoError(t, err)
	parts := strings.Split(raw, ".")

	for i := 0; i < len(parts[2]); i++ {
		b := []byte(parts[2])
		b[i] = flip(b[i])
		_, err := c.Verify(parts[0] + "." + parts[1] + "." + string(b))
		require.ErrorIs(t, err, ErrTokenSignatureInvalid, "signature byte %d", i)
	}
}

// flip swaps a base64url character for a different one from the same alphabet.
func flip(b byte) byte {
	if b == 'A' {
		return 'B'
	}
	return 'A'
}

func TestNewCodec_EmptySecret(t *testing.T) {
	_, err := NewCodec("")
	require.Error(t, err)
}
