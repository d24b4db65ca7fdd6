package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of a date of birth
const DateLayout = "2006-01-02"

// User represents an account record as held by the store.
// PasswordHash never leaves the service; use NewPublicUser for any outbound representation.
type User struct {
	ID           uuid.UUID `db:"id"`
	FullName     string    `db:"full_name"`
	DateOfBirth  time.Time `db:"date_of_birth"`
	Email        string    `db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// MarshalJSON routes every encoding of a User through NewPublicUser
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewPublicUser(&u))
}

// NewUser creates a new active User instance
func NewUser(fullName string, dateOfBirth time.Time, email, passwordHash string, role Role) *User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &User{
		ID:           uuid.New(),
		FullName:     fullName,
		DateOfBirth:  dateOfBirth,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique index agree
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser is the only outbound shape of a user. It has no password field.
type PublicUser struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"fullName"`
	DateOfBirth string    `json:"dateOfBirth"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewPublicUser redacts a stored user for output
func NewPublicUser(u *User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:          u.ID,
		FullName:    u.FullName,
		DateOfBirth: u.DateOfBirth.Format(DateLayout),
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewPublicUsers redacts a slice of users, preserving order
func NewPublicUsers(users []*User) []*PublicUser {
	out := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, NewPublicUser(u))
	}
	return out
}
