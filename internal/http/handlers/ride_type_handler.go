// README: Ride type admin handlers (list/get/create/update).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridedispatch/internal/logger"
	"ridedispatch/internal/modules/pricing"
)

type RideTypeService interface {
	RideTypes(ctx context.Context) ([]pricing.RideType, error)
	Get(ctx context.Context, id int64) (*pricing.RideType, error)
	Create(ctx context.Context, in pricing.RideTypeInput) (int64, error)
	Update(ctx context.Context, id int64, in pricing.RideTypeInput) error
}

type RideTypeHandler struct {
	pricing RideTypeService
	log     *zap.Logger
}

func NewRideTypeHandler(svc RideTypeService, log *zap.Logger) *RideTypeHandler {
	return &RideTypeHandler{pricing: svc, log: logger.OrNop(log)}
}

type rideTypeReq struct {
	Name     string   `json:"name" binding:"required"`
	BaseFare *int64   `json:"base_fare" binding:"required,min=0"`
	PerKm    *float64 `json:"per_km" binding:"required,min=0"`
	PerMin   *float64 `json:"per_min" binding:"required,min=0"`
}

func (r rideTypeReq) input() pricing.RideTypeInput {
	return pricing.RideTypeInput{Name: r.Name, BaseFare: *r.BaseFare, PerKm: *r.PerKm, PerMin: *r.PerMin}
}

func (h *RideTypeHandler) List(c *gin.Context) {
	types, err := h.pricing.RideTypes(c.Request.Context())
	if err != nil {
		writePricingError(c, h.log, err)
		return
	}
	if types == nil {
		types = []pricing.RideType{}
	}
	writeJSON(c, http.StatusOK, types)
}

func (h *RideTypeHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid ride type id")
		return
	}
	rt, err := h.pricing.Get(c.Request.Context(), id)
	if err != nil {
		writePricingError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, rt)
}

func (h *RideTypeHandler) Create(c *gin.Context) {
	var req rideTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "name, base_fare, per_km and per_min are required")
		return
	}
	id, err := h.pricing.Create(c.Request.Context(), req.input())
	if err != nil {
		writePricingError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"message": "Ride type created", "ride_type_id": id})
}

func (h *RideTypeHandler) Update(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid ride type id")
		return
	}
	var req rideTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "name, base_fare, per_km and per_min are required")
		return
	}
	if err := h.pricing.Update(c.Request.Context(), id, req.input()); err != nil {
		writePricingError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, messageResponse{Message: "Ride type updated"})
}
