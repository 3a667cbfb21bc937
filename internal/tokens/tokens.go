package tokens

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "typ" claim.
const (
	ClaimType   = "typ"
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// registered claims owned by the codec; caller supplied values for these are dropped
var reserved = map[string]struct{}{"sub": {}, "iat": {}, "exp": {}, "iss": {}}

// Payload is the verified content of a token.
type Payload struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Claims holds every non-registered claim as decoded JSON. Numbers come
	// back as json.Number so integers keep their exact value.
	Claims map[string]interface{}
}

// Type returns the "typ" claim or "".
func (p *Payload) Type() string {
	s, _ := p.Claims[ClaimType].(string)
	return s
}

// Codec signs and verifies compact HS256 tokens. It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	key    []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

// WithIssuer sets the "iss" claim written into every token.
func WithIssuer(iss string) Option {
	return func(c *Codec) { c.issuer = iss }
}

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec keyed by secret. The secret is copied.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	c := &Codec{
		key: []byte(secret),
		now: time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithJSONNumber(),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Sign mints a token for subject that expires ttl from now.
func (c *Codec) Sign(subject string, claims map[string]interface{}, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("sign: empty subject")
	}
	if ttl <= 0 {
		return "", errors.New("sign: ttl must be positive")
	}
	mc := jwt.MapClaims{}
	for k, v := range claims {
		if _, ok := reserved[k]; ok {
			continue
		}
		mc[k] = v
	}
	now := c.now()
	mc["sub"] = subject
	mc["iat"] = jwt.NewNumericDate(now)
	mc["exp"] = jwt.NewNumericDate(now.Add(ttl))
	if c.issuer != "" {
		mc["iss"] = c.issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure and signature and returns the payload. Expiry is
// not checked here; use IsExpired so callers can tell stale from forged.
//
// The signature is checked over the raw signing input before the payload is
// decoded, so any altered byte of payload or signature is reported as
// ErrTokenSignatureInvalid rather than as a decoding failure.
func (c *Codec) Verify(raw string) (*Payload, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, ErrTokenMalformed
	}
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return nil, ErrTokenSignatureInvalid
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.key); err != nil {
		return nil, ErrTokenSignatureInvalid
	}

	token, err := c.parser.Parse(raw, func(*jwt.Token) (interface{}, error) { return c.key, nil })
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrTokenSignatureInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrTokenMalformed)
	}
	p := &Payload{Subject: sub, ExpiresAt: exp.Time, Claims: map[string]interface{}{}}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		p.IssuedAt = iat.Time
	}
	for k, v := range mc {
		if _, ok := reserved[k]; ok {
			continue
		}
		p.Claims[k] = v
	}
	return p, nil
}

// IsExpired reports whether raw is at or past its expiry. Tokens that fail
// verification count as expired.
func (c *Codec) IsExpired(raw string) bool {
	p, err := c.Verify(raw)
	if err != nil {
		return true
	}
	return !c.now().Before(p.ExpiresAt)
}

// VerifyFresh is Verify followed by the expiry check.
func (c *Codec) VerifyFresh(raw string) (*Payload, error) {
	p, err := c.Verify(raw)
	if err != nil {
		return nil, err
	}
	if !c.now().Before(p.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return p, nil
}
