package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/yukikurage/project-collab-api/internal/constants"
)

// GenerateInvitationToken returns a hex encoded random token for a new
// invitation.
func GenerateInvitationToken() (string, error) {
	bytes := make([]byte, constants.InvitationTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
