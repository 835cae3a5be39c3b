package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"icetime-service/internal/logging"
	"icetime-service/internal/schedule"
	"icetime-service/internal/store"
	"icetime-service/internal/teams"
)

// Machine-readable error codes returned next to the message.
const (
	CodeUnknownSlot      = "UNKNOWN_SLOT"
	CodeUnknownTeam      = "UNKNOWN_TEAM"
	CodeAlreadyAssigned  = "ALREADY_ASSIGNED"
	CodeNotAssigned      = "NOT_ASSIGNED"
	CodeVersionConflict  = "VERSION_CONFLICT"
	CodeMissingSelection = "MISSING_SELECTION"
	CodeInvalidSlot      = "INVALID_SLOT"
	CodeDuplicate        = "DUPLICATE"
	CodeValidation       = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnavailable      = "UNAVAILABLE"
	CodeInternal         = "INTERNAL"
)

// classify maps an error to its status and code. Unknown teams are 422 on
// assignment, where the slot exists but the body references a bad team.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, schedule.ErrUnknownSlot):
		return http.StatusNotFound, CodeUnknownSlot
	case errors.Is(err, schedule.ErrUnknownTeam):
		return http.StatusUnprocessableEntity, CodeUnknownTeam
	case errors.Is(err, teams.ErrNotFound):
		return http.StatusNotFound, CodeUnknownTeam
	case errors.Is(err, schedule.ErrAlreadyAssigned):
		return http.StatusConflict, CodeAlreadyAssigned
	case errors.Is(err, schedule.ErrNotAssigned):
		return http.StatusConflict, CodeNotAssigned
	case errors.Is(err, schedule.ErrVersionConflict):
		return http.StatusConflict, CodeVersionConflict
	case errors.Is(err, store.ErrDuplicateSlot), errors.Is(err, teams.ErrDuplicate):
		return http.StatusConflict, CodeDuplicate
	case errors.Is(err, schedule.ErrMissingSelection):
		return http.StatusBadRequest, CodeMissingSelection
	case errors.Is(err, schedule.ErrInvalidSlot):
		return http.StatusBadRequest, CodeInvalidSlot
	case schedule.IsValidation(err):
		return http.StatusBadRequest, CodeValidation
	}
	return http.StatusInternalServerError, CodeInternal
}

func (a *App) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logging.Error(logging.FromContext(c.Request.Context(), a.Logger), "request failed", err,
			logging.FieldPath, c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": CodeValidation})
}
