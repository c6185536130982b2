package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// statusForError maps domain errors onto HTTP statuses: missing aggregates
// are 404, state conflicts are 409, precondition failures are 422.
func statusForError(err error) int {
	switch {
	case errors.Is(err, bungalow.ErrNotFound),
		errors.Is(err, bungalow.ErrCategoryNotFound),
		errors.Is(err, occupation.ErrReservationNotFound),
		errors.Is(err, occupation.ErrOccupancyNotFound):
		return http.StatusNotFound
	case errors.Is(err, bungalow.ErrNotAvailable),
		errors.Is(err, bungalow.ErrStillOccupied),
		errors.Is(err, occupation.ErrNotReservedOrOccupied),
		errors.Is(err, occupation.ErrInvalidTransition),
		errors.Is(err, occupation.ErrTargetUnavailable),
		errors.Is(err, occupation.ErrSameBungalow),
		errors.Is(err, occupation.ErrPinned),
		errors.Is(err, occupation.ErrOrderAlreadyAttached):
		return http.StatusConflict
	case errors.Is(err, occupation.ErrCategoryMismatch),
		errors.Is(err, occupation.ErrCapacityMismatch),
		errors.Is(err, occupation.ErrNoTicketBundle),
		errors.Is(err, occupation.ErrNotOccupied):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func renderError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
