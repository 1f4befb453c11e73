package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/permissions"
)

// Errors shared by every service
var (
	ErrUnauthenticated = apperrors.ErrUnauthorized
	ErrUserNotFound    = apperrors.NewAPIError(apperrors.ErrCodeUserNotFound, "User not found")
	ErrProjectNotFound = apperrors.NewNotFound("Project not found")
)

// requireIdentity rejects the zero identity before any repository access.
func requireIdentity(caller identity.Identity) error {
	if !caller.Valid() {
		return ErrUnauthenticated
	}
	return nil
}

// checked counts a permission denial and passes err through.
func checked(m *metrics.Metrics, err error) error {
	if action, ok := permissions.DeniedAction(err); ok {
		m.IncAuthorizationDenial(string(action))
	}
	return err
}

// notFound translates gorm.ErrRecordNotFound into sentinel and wraps anything
// else with op.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
