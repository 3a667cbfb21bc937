package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/tokenauth/internal/sessions"
	"github.com/gogotex/tokenauth/internal/tokens"
)

// Pair is a freshly minted access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// claimTokenID carries the random part of a refresh token.
const claimTokenID = "jti"

// Issuer mints token pairs and records the refresh half in the session store.
// It is the only place a subject's stored refresh credential is replaced.
type Issuer struct {
	codec      *tokens.Codec
	store      sessions.Store
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *tokens.Codec, store sessions.Store, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if codec == nil || store == nil {
		return nil, errors.New("issuer: codec and store are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("issuer: ttls must be positive")
	}
	return &Issuer{codec: codec, store: store, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// Issue mints a new pair for subject and overwrites the subject's stored
// refresh token, which invalidates any refresh token issued before.
func (i *Issuer) Issue(ctx context.Context, subject string, claims map[string]interface{}) (Pair, error) {
	access, err := i.codec.Sign(subject, withType(claims, tokens.TypeAccess), i.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	jti, err := randomID()
	if err != nil {
		return Pair{}, err
	}
	rc := withType(claims, tokens.TypeRefresh)
	rc[claimTokenID] = jti
	refresh, err := i.codec.Sign(subject, rc, i.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := i.store.Put(ctx, subject, refresh, i.refreshTTL); err != nil {
		return Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// withType copies claims and sets the token type.
func withType(claims map[string]interface{}, typ string) map[string]interface{} {
	out := make(map[string]interface{}, len(claims)+2)
	for k, v := range claims {
		if k == claimTokenID {
			continue
		}
		out[k] = v
	}
	out[tokens.ClaimType] = typ
	return out
}

// randomID returns 256 random bits, hex encoded.
func randomID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
