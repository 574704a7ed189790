// README: Dispatch orchestrator: validate, price, persist, locate, notify.
package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ridedispatch/internal/config"
	"ridedispatch/internal/logger"
	"ridedispatch/internal/modules/matching"
	"ridedispatch/internal/modules/popularity"
	"ridedispatch/internal/modules/pricing"
	"ridedispatch/internal/modules/ride"
	"ridedispatch/internal/realtime"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnknownRideType     = errors.New("Invalid ride type selected")
	ErrDuplicateInFlight   = errors.New("a request with this idempotency key is still being processed")
	ErrIdempotencyMismatch = errors.New("idempotency key was already used with a different request")
)

type Pricing interface {
	Lookup(ctx context.Context, name string) (pricing.RideType, bool, error)
}

type Ledger interface {
	CreateRequest(ctx context.Context, cmd ride.CreateCommand) (*ride.Request, error)
	CreatePayment(ctx context.Context, cmd ride.PaymentCommand) (*ride.Payment, error)
	RecordOutcome(ctx context.Context, id int64, driverID *int64) error
}

type Popularity interface {
	Bump(ctx context.Context, kind popularity.Kind, address string) error
}

type Devices interface {
	DeviceID(ctx context.Context, userID int64) (*string, error)
}

type Locator interface {
	FindNearest(ctx context.Context, q matching.LocateQuery) (*matching.Worker, error)
}

type Notifier interface {
	Join(connID, room string) bool
	Broadcast(event string, data any) int
}

// Deps lists collaborators; Popularity, Devices, Notifier and Publisher are optional.
type Deps struct {
	Pricing    Pricing
	Ledger     Ledger
	Locator    Locator
	Popularity Popularity
	Devices    Devices
	Notifier   Notifier
	Publisher  Publisher
}

type Service struct {
	deps Deps
	cfg  config.DispatchConfig
	log  *zap.Logger
}

func NewService(deps Deps, cfg config.DispatchConfig, log *zap.Logger) *Service {
	if cfg.AdvisoryTimeout <= 0 {
		_, def := config.Defaults()
		cfg.AdvisoryTimeout = def.AdvisoryTimeout
	}
	return &Service{deps: deps, cfg: cfg, log: logger.OrNop(log).Named("dispatch")}
}

// Dispatch runs one trip request to completion. A persisted request is never
// rolled back; failures after persistence carry the request id.
func (s *Service) Dispatch(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		dispatchTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	rt, ok, err := s.deps.Pricing.Lookup(ctx, req.RideType)
	if err != nil {
		return nil, s.fail(&DependencyError{Op: "price", Err: err})
	}
	if !ok {
		dispatchTotal.WithLabelValues("invalid").Inc()
		return nil, ErrUnknownRideType
	}
	fare := pricing.Fare(rt, req.DistanceMeters, req.DurationSeconds)

	r, err := s.deps.Ledger.CreateRequest(ctx, ride.CreateCommand{
		RiderID:        req.RiderID,
		RideTypeID:     rt.ID,
		Pickup:         req.Pickup(),
		Dropoff:        req.Dropoff(),
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Passengers:     req.Passengers,
		FareEstimate:   fare,
	})
	if err != nil {
		return nil, s.fail(&DependencyError{Op: "persist request", Err: err})
	}
	log := s.log.With(zap.Int64("request_id", r.ID), zap.Int64("rider_id", req.RiderID))

	if _, err := s.deps.Ledger.CreatePayment(ctx, ride.PaymentCommand{
		RideRequestID: r.ID,
		AmountCents:   fare,
		Method:        ride.PaymentMethod(req.PaymentMethod),
	}); err != nil {
		orphanedRequests.Inc()
		log.Error("payment intent not written, request left without payment", zap.Error(err))
		return nil, s.fail(&DependencyError{Op: "persist payment", RequestID: r.ID, Err: err})
	}

	advisory := s.startAdvisory(ctx, req, log)

	worker, err := s.deps.Locator.FindNearest(ctx, matching.LocateQuery{
		Origin:      req.Pickup(),
		MinCapacity: req.Passengers,
		Holder:      strconv.FormatInt(r.ID, 10),
	})
	deviceID := advisory.wait()
	if err != nil {
		return nil, s.fail(&DependencyError{Op: "locate worker", RequestID: r.ID, Err: err})
	}

	res := &Result{
		Matched:  worker != nil,
		DeviceID: deviceID,
		Response: Response{
			Message:      messageUnmatched,
			RequestID:    r.ID,
			FareEstimate: fare,
		},
	}
	var driverID *int64
	if worker != nil {
		id := worker.UserID
		driverID = &id
		res.Response.Message = messageMatched
		res.Response.NearestDriver = &NearestDriver{
			UserID:   worker.UserID,
			Name:     worker.Name,
			Phone:    worker.Phone,
			Location: worker.Location,
		}
	}

	if err := s.deps.Ledger.RecordOutcome(ctx, r.ID, driverID); err != nil {
		log.Warn("match outcome not recorded", zap.Error(err))
	}

	s.notify(req, res, log)
	s.publish(ctx, req, res, rt.Name, driverID, log)

	outcome := "unmatched"
	if res.Matched {
		outcome = "matched"
	}
	dispatchTotal.WithLabelValues(outcome).Inc()
	log.Info("ride request dispatched",
		zap.String("outcome", outcome),
		zap.Int64("fare_estimate", fare),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (s *Service) fail(err *DependencyError) error {
	dispatchTotal.WithLabelValues("error").Inc()
	return err
}

func (s *Service) startAdvisory(ctx context.Context, req Request, log *zap.Logger) *advisoryRun {
	run := newAdvisoryRun(ctx, s.cfg.AdvisoryTimeout, log)
	if p := s.deps.Popularity; p != nil {
		run.goTask("popularity_pickup", func(ctx context.Context) error {
			return p.Bump(ctx, popularity.KindPickup, req.PickupAddress)
		})
		run.goTask("popularity_dropoff", func(ctx context.Context) error {
			return p.Bump(ctx, popularity.KindDropoff, req.DropoffAddress)
		})
	}
	if d := s.deps.Devices; d != nil {
		run.goTask("device_lookup", func(ctx context.Context) error {
			id, err := d.DeviceID(ctx, req.RiderID)
			if err != nil {
				return err
			}
			run.setDeviceID(id)
			return nil
		})
	}
	return run
}

// notify joins the requester to the ride room and broadcasts the request to
// every connection, matched or not, so workers coming online can still pick it up.
func (s *Service) notify(req Request, res *Result, log *zap.Logger) {
	n := s.deps.Notifier
	if n == nil {
		return
	}
	room := realtime.RideRoom(res.Response.RequestID)
	if req.SocketID != "" && !n.Join(req.SocketID, room) {
		log.Debug("requester socket not connected", zap.String("socket_id", req.SocketID))
	}

	payload := Broadcast{
		Response:      res.Response,
		Request:       req,
		DeviceID:      res.DeviceID,
		RideRequestID: res.Response.RequestID,
	}
	delivered := n.Broadcast(realtime.EventRideRequestBroadcast, payload)
	log.Debug("ride request broadcast", zap.String("room", room), zap.Bool("matched", res.Matched), zap.Int("delivered", delivered))
}

func (s *Service) publish(ctx context.Context, req Request, res *Result, rideType string, driverID *int64, log *zap.Logger) {
	if s.deps.Publisher == nil {
		return
	}
	ev := RideRequestedEvent{
		RequestID:    res.Response.RequestID,
		RiderID:      req.RiderID,
		RideType:     rideType,
		FareEstimate: res.Response.FareEstimate,
		Matched:      res.Matched,
		DriverID:     driverID,
		Pickup:       req.Pickup(),
		Dropoff:      req.Dropoff(),
		OccurredAt:   time.Now().UTC(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AdvisoryTimeout)
	defer cancel()
	if err := s.deps.Publisher.PublishRideRequested(pctx, ev); err != nil {
		advisoryFailures.WithLabelValues("publish").Inc()
		log.Warn("ride.requested not published", zap.Error(err))
	}
}
