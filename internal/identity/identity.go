// Package identity carries the authenticated caller through every service
// call. Issuing and verifying credentials happens elsewhere; this package only
// describes who is asking.
package identity

import (
	"strings"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// Identity is the already-authenticated caller.
type Identity struct {
	UserID uint64
	Email  string
	Role   models.GlobalRole
}

// FromUser builds the identity for a loaded account.
func FromUser(u *models.User) Identity {
	return Identity{
		UserID: u.ID,
		Email:  NormalizeEmail(u.Email),
		Role:   u.Role,
	}
}

// Valid is false for the zero Identity.
func (i Identity) Valid() bool {
	return i.UserID != 0 && i.Email != ""
}

// NormalizeEmail lowercases and trims an address so comparisons are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses after normalization.
func (i Identity) SameEmail(email string) bool {
	return i.Email != "" && NormalizeEmail(i.Email) == NormalizeEmail(email)
}
