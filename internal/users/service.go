package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gogotex/tokenauth/internal/models"
	"github.com/google/uuid"
)

// Field limits for new members.
const (
	UsernameMin = 4
	UsernameMax = 50
	PasswordMin = 8
	PasswordMax = 64
	NicknameMin = 2
	NicknameMax = 50
)

// ValidationError describes a rejected signup field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// NewMember is the input for registering an account.
type NewMember struct {
	Username string
	Password string
	Nickname string
}

// Validate checks field lengths in characters.
func (m NewMember) Validate() error {
	if err := checkLen("username", strings.TrimSpace(m.Username), UsernameMin, UsernameMax); err != nil {
		return err
	}
	if err := ValidatePassword(m.Password); err != nil {
		return err
	}
	if m.Nickname != "" {
		if err := checkLen("nickname", m.Nickname, NicknameMin, NicknameMax); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePassword checks the length rule for a new password.
func ValidatePassword(p string) error {
	return checkLen("password", p, PasswordMin, PasswordMax)
}

func checkLen(field, v string, min, max int) error {
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be %d to %d characters", min, max)}
	}
	return nil
}

// Service encapsulates member business logic
type Service struct {
	repo UserRepository
	now  func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: time.Now}
}

// Register persists a new member with an already computed password hash and
// returns it. The member gets a fresh random ID and the member role.
func (s *Service) Register(ctx context.Context, m NewMember, passwordHash string) (*models.User, error) {
	if passwordHash == "" {
		return nil, errors.New("register: empty password hash")
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(m.Username),
		PasswordHash: passwordHash,
		Nickname:     m.Nickname,
		Role:         models.RoleMember,
	}
	u.Stamp(s.now())
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername returns ErrNotFound for unknown names.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetPasswordHash stores hash for u and returns the updated member.
func (s *Service) SetPasswordHash(ctx context.Context, u models.User, hash string) (*models.User, error) {
	updated := u.WithPasswordHash(hash, s.now())
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
