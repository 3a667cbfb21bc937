package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/gogotex/tokenauth/internal/sessions"
	"github.com/gogotex/tokenauth/internal/tokens"
)

// Rotator exchanges a valid refresh token for a new pair.
//
// Two concurrent rotations presenting the same live token can both pass the
// checks and both issue; the later store write wins and the other caller's
// new refresh token is already superseded when it is returned. That caller
// has to log in again. Rotation is not de-duplicated.
type Rotator struct {
	issuer *Issuer
	store  sessions.Store
	codec  *tokens.Codec
}

func NewRotator(issuer *Issuer, store sessions.Store, codec *tokens.Codec) *Rotator {
	return &Rotator{issuer: issuer, store: store, codec: codec}
}

// Rotate validates presented against the stored refresh token of subject and
// on success issues a replacement pair. Rejections are *RefreshError values
// that all read "refresh token invalid"; store failures are returned as is.
func (r *Rotator) Rotate(ctx context.Context, subject, presented string) (Pair, error) {
	if subject == "" || presented == "" {
		return Pair{}, reject(ErrRefreshNotFound)
	}

	stored, ok, err := r.store.Get(ctx, subject)
	if err != nil {
		return Pair{}, fmt.Errorf("load refresh token: %w", err)
	}
	if !ok {
		return Pair{}, reject(ErrRefreshNotFound)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return Pair{}, reject(ErrRefreshMismatch)
	}

	if r.codec.IsExpired(presented) {
		return Pair{}, reject(ErrRefreshExpired)
	}
	p, err := r.codec.Verify(presented)
	if err != nil {
		return Pair{}, reject(ErrRefreshExpired)
	}
	if p.Subject != subject || p.Type() != tokens.TypeRefresh {
		return Pair{}, reject(ErrRefreshMismatch)
	}

	pair, err := r.issuer.Issue(ctx, subject, identityClaims(p.Claims))
	if err != nil {
		return Pair{}, err
	}
	return pair, nil
}

// identityClaims strips the per-token claims so they are not carried into
// the replacement pair.
func identityClaims(c map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(c))
	for k, v := range c {
		switch k {
		case tokens.ClaimType, claimTokenID:
			continue
		}
		out[k] = v
	}
	return out
}

// RejectionKind returns the specific rotation failure inside err, or nil.
func RejectionKind(err error) error {
	var re *RefreshError
	if errors.As(err, &re) {
		return re.Kind
	}
	return nil
}
