package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
)

// parseID reads a positive integer path parameter. It writes a 400 response
// and returns false otherwise.
func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+strings.ReplaceAll(param, "_", " "))
		return 0, false
	}
	return id, true
}

// bindPatch decodes a partial update body. Unknown keys are rejected so a
// misspelled field never turns into a silent no-op.
func bindPatch(c *gin.Context, dest interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}

	if err := dto.DecodeStrict(body, dest); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			apierrors.Respond(c, apierrors.NewValidationWithReason(apierrors.ReasonUnknownField, strings.TrimPrefix(err.Error(), "json: ")))
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
