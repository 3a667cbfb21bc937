package models

import "time"

// Roles assigned to members.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Timestamps is the audit pair embedded in persisted records. Writers set it
// explicitly; nothing updates it behind their back.
type Timestamps struct {
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Stamp sets both timestamps for a new record.
func (t *Timestamps) Stamp(now time.Time) {
	now = now.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch records a mutation.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}

// User is a member account. ID is the token subject.
type User struct {
	ID           string `bson:"_id" json:"id"`
	Username     string `bson:"username" json:"username"`
	PasswordHash string `bson:"passwordHash" json:"-"`
	Nickname     string `bson:"nickname,omitempty" json:"nickname,omitempty"`
	Role         string `bson:"role" json:"role"`
	Timestamps   `bson:",inline"`
}

// WithPasswordHash returns a copy of u carrying hash, touched at now. The
// receiver is left unchanged; the caller persists the result.
func (u User) WithPasswordHash(hash string, now time.Time) User {
	u.PasswordHash = hash
	u.Touch(now)
	return u
}

// Claims returns the non-registered access token claims for u.
func (u User) Claims() map[string]interface{} {
	return map[string]interface{}{
		"username": u.Username,
		"role":     u.Role,
	}
}
