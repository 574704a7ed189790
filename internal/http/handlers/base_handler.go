// README: Base handler utilities (JSON helpers, id parsing, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridedispatch/internal/modules/dispatch"
	"ridedispatch/internal/modules/pricing"
	"ridedispatch/internal/modules/ride"
)

const internalErrorMessage = "Internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// parseID accepts positive decimal ids only.
func parseID(v string) (int64, bool) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDispatchError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, dispatch.ErrValidation), errors.Is(err, dispatch.ErrUnknownRideType):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrDuplicateInFlight):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, dispatch.ErrIdempotencyMismatch):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		var dep *dispatch.DependencyError
		if errors.As(err, &dep) && dep.RequestID > 0 {
			log.Error("ride request failed", zap.Int64("request_id", dep.RequestID), zap.String("op", dep.Op), zap.Error(dep.Err))
		} else {
			log.Error("ride request failed", zap.Error(err))
		}
		writeError(c, http.StatusInternalServerError, internalErrorMessage)
	}
}

func writePricingError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidRideType):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		log.Error("ride type operation failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, internalErrorMessage)
	}
}

func writeRideError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, "Ride request not found")
	default:
		log.Error("ride lookup failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, internalErrorMessage)
	}
}
