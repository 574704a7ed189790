// README: Ride request handlers: dispatch a new request and read one back.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ridedispatch/internal/logger"
	"ridedispatch/internal/modules/dispatch"
	"ridedispatch/internal/modules/ride"
)

const IdempotencyHeader = "Idempotency-Key"

type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, key, fingerprint string) (*dispatch.StoredResponse, error)
	Complete(ctx context.Context, key, fingerprint string, status int, body any) error
	Release(ctx context.Context, key string) error
}

type RideReader interface {
	Get(ctx context.Context, id int64) (*ride.Request, error)
}

type RideHandler struct {
	dispatch Dispatcher
	rides    RideReader
	idem     IdempotencyStore
	log      *zap.Logger
}

// NewRideHandler builds the handler; idem may be nil to disable Idempotency-Key support.
func NewRideHandler(d Dispatcher, rides RideReader, idem IdempotencyStore, log *zap.Logger) *RideHandler {
	return &RideHandler{dispatch: d, rides: rides, idem: idem, log: logger.OrNop(log)}
}

type pointView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type rideView struct {
	RequestID      int64     `json:"request_id"`
	RiderID        int64     `json:"rider_id"`
	RideTypeID     int64     `json:"ride_type_id"`
	Pickup         pointView `json:"pickup_location"`
	Dropoff        pointView `json:"dropoff_location"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	Passengers     int       `json:"no_of_passenger"`
	FareEstimate   int64     `json:"fare_estimate"`
	Status         string    `json:"status"`
	DriverID       *int64    `json:"driver_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newRideView(r *ride.Request) rideView {
	return rideView{
		RequestID:      r.ID,
		RiderID:        r.RiderID,
		RideTypeID:     r.RideTypeID,
		Pickup:         pointView{Lat: r.Pickup.Lat, Lng: r.Pickup.Lng},
		Dropoff:        pointView{Lat: r.Dropoff.Lat, Lng: r.Dropoff.Lng},
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DropoffAddress,
		Passengers:     r.Passengers,
		FareEstimate:   r.FareEstimate,
		Status:         string(r.Status),
		DriverID:       r.DriverID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// Request handles POST /api/rides/request.
func (h *RideHandler) Request(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			if verr := req.Validate(); verr != nil {
				writeDispatchError(c, h.log, verr)
				return
			}
		}
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if h.idem == nil {
		key = ""
	}
	var fingerprint string
	if key != "" {
		fingerprint = dispatch.Fingerprint(req)
		stored, err := h.idem.Claim(ctx, key, fingerprint)
		switch {
		case errors.Is(err, dispatch.ErrDuplicateInFlight), errors.Is(err, dispatch.ErrIdempotencyMismatch):
			writeDispatchError(c, h.log, err)
			return
		case err != nil:
			h.log.Warn("idempotency store unavailable, dispatching without it", zap.Error(err))
			key = ""
		case stored != nil:
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			return
		}
	}
	if key != "" {
		// a panic below must not leave the key pending
		defer func() {
			if p := recover(); p != nil {
				h.releaseKey(ctx, key)
				panic(p)
			}
		}()
	}

	res, err := h.dispatch.Dispatch(ctx, req)
	if err != nil {
		if key != "" {
			h.releaseKey(ctx, key)
		}
		writeDispatchError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if res.Matched {
		status = http.StatusCreated
	}
	if key != "" {
		if err := h.idem.Complete(context.WithoutCancel(ctx), key, fingerprint, status, res.Response); err != nil {
			h.log.Warn("idempotent response not stored", zap.String("key", key), zap.Error(err))
		}
	}
	writeJSON(c, status, res.Response)
}

func (h *RideHandler) releaseKey(ctx context.Context, key string) {
	if err := h.idem.Release(context.WithoutCancel(ctx), key); err != nil {
		h.log.Warn("idempotency key not released", zap.String("key", key), zap.Error(err))
	}
}

// Get handles GET /api/rides/:request_id.
func (h *RideHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("request_id"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid request id")
		return
	}
	r, err := h.rides.Get(c.Request.Context(), id)
	if err != nil {
		writeRideError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, newRideView(r))
}
