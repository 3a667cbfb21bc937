package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogotex/tokenauth/internal/models"
	"github.com/gogotex/tokenauth/internal/password"
	"github.com/gogotex/tokenauth/internal/sessions"
	"github.com/gogotex/tokenauth/internal/users"
	"github.com/gogotex/tokenauth/pkg/logger"
	"github.com/gogotex/tokenauth/pkg/metrics"
)

// Service runs the account flows on top of the member collaborator and the
// token core.
type Service struct {
	members *users.Service
	hasher  *password.Hasher
	issuer  *Issuer
	rotator *Rotator
	store   sessions.Store

	// compared against for unknown usernames so login timing does not depend
	// on whether the account exists
	dummyHash string
}

func NewService(members *users.Service, hasher *password.Hasher, issuer *Issuer, rotator *Rotator, store sessions.Store) (*Service, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{
		members:   members,
		hasher:    hasher,
		issuer:    issuer,
		rotator:   rotator,
		store:     store,
		dummyHash: dummy,
	}, nil
}

// Signup registers a member and logs them in.
func (s *Service) Signup(ctx context.Context, m users.NewMember) (Pair, error) {
	if err := m.Validate(); err != nil {
		return Pair{}, err
	}
	hash, err := s.hasher.Hash(m.Password)
	if err != nil {
		return Pair{}, err
	}
	u, err := s.members.Register(ctx, m, hash)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			return Pair{}, fmt.Errorf("%w: %v", ErrDuplicateIdentity, err)
		}
		return Pair{}, fmt.Errorf("register member: %w", err)
	}
	logger.Infof("auth: member registered id=%s", u.ID)
	return s.issuer.Issue(ctx, u.ID, u.Claims())
}

// Login checks username and password and issues a pair. Unknown usernames
// and wrong passwords both return ErrInvalidCredentials and leave the
// session store untouched.
func (s *Service) Login(ctx context.Context, username, secret string) (Pair, error) {
	u, err := s.members.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return Pair{}, fmt.Errorf("load member: %w", err)
	}
	if u == nil {
		s.hasher.Verify(secret, s.dummyHash)
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return Pair{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(secret, u.PasswordHash) {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return Pair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.Issue(ctx, u.ID, u.Claims())
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return Pair{}, err
	}
	metrics.LoginTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Refresh rotates the refresh token of an authenticated subject.
func (s *Service) Refresh(ctx context.Context, subject, refreshToken string) (Pair, error) {
	pair, err := s.rotator.Rotate(ctx, subject, refreshToken)
	if err != nil {
		if kind := RejectionKind(err); kind != nil {
			logger.Debugf("auth: refresh rejected subject=%s reason=%v", subject, kind)
			metrics.RefreshTotal.WithLabelValues(rejectionLabel(kind)).Inc()
		} else {
			metrics.RefreshTotal.WithLabelValues("error").Inc()
		}
		return Pair{}, err
	}
	metrics.RefreshTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Logout drops the subject's refresh token. Access tokens already handed
// out stay valid until they expire.
func (s *Service) Logout(ctx context.Context, subject string) error {
	if err := s.store.Delete(ctx, subject); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ChangePassword replaces the member's password after checking the current
// one, then ends the member's session so every client must log in again.
func (s *Service) ChangePassword(ctx context.Context, subject, current, next string) error {
	u, err := s.members.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("load member: %w", err)
	}
	if !s.hasher.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := users.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if _, err := s.members.SetPasswordHash(ctx, *u, hash); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return s.Logout(ctx, subject)
}

// Member returns the account behind subject.
func (s *Service) Member(ctx context.Context, subject string) (*models.User, error) {
	return s.members.GetByID(ctx, subject)
}

func rejectionLabel(kind error) string {
	switch {
	case errors.Is(kind, ErrRefreshNotFound):
		return "not_found"
	case errors.Is(kind, ErrRefreshMismatch):
		return "mismatch"
	case errors.Is(kind, ErrRefreshExpired):
		return "expired"
	}
	return "error"
}
