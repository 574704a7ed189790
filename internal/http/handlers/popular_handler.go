// README: Popular pickup/dropoff locations.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridedispatch/internal/logger"
	"ridedispatch/internal/modules/popularity"
)

type PopularityReporter interface {
	Report(ctx context.Context, n int) (popularity.Report, error)
}

type PopularHandler struct {
	popularity PopularityReporter
	log        *zap.Logger
}

func NewPopularHandler(p PopularityReporter, log *zap.Logger) *PopularHandler {
	return &PopularHandler{popularity: p, log: logger.OrNop(log)}
}

func (h *PopularHandler) Top(c *gin.Context) {
	report, err := h.popularity.Report(c.Request.Context(), popularity.DefaultTopN)
	if err != nil {
		h.log.Error("popular locations unavailable", zap.Error(err))
		writeError(c, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	writeJSON(c, http.StatusOK, report)
}
