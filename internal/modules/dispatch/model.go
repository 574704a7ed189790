// README: Dispatch request/response shapes and the broadcast payload sent to real-time clients.
package dispatch

import (
	"ridedispatch/internal/modules/matching"
	"ridedispatch/internal/types"
)

// Request is the inbound trip request. The binding tags are enforced both by
// the HTTP layer and by Validate.
type Request struct {
	RiderID         int64    `json:"rider_id" binding:"required,gt=0"`
	PickupLat       *float64 `json:"pickup_lat" binding:"required,min=-90,max=90"`
	PickupLng       *float64 `json:"pickup_lng" binding:"required,min=-180,max=180"`
	DropoffLat      *float64 `json:"dropoff_lat" binding:"required,min=-90,max=90"`
	DropoffLng      *float64 `json:"dropoff_lng" binding:"required,min=-180,max=180"`
	PickupAddress   string   `json:"pickup_address" binding:"required"`
	DropoffAddress  string   `json:"dropoff_address" binding:"required"`
	RideType        string   `json:"ride_type" binding:"required"`
	PaymentMethod   string   `json:"payment_method" binding:"required,oneof=cash card grabpay"`
	DistanceMeters  float64  `json:"distance_meters" binding:"required,gt=0"`
	DurationSeconds float64  `json:"duration_seconds" binding:"required,gt=0"`
	Passengers      int      `json:"no_of_passenger" binding:"required,min=1"`
	SocketID        string   `json:"socketId,omitempty"`
}

func (r Request) Pickup() types.Point {
	return types.Point{Lat: deref(r.PickupLat), Lng: deref(r.PickupLng)}
}

func (r Request) Dropoff() types.Point {
	return types.Point{Lat: deref(r.DropoffLat), Lng: deref(r.DropoffLng)}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type NearestDriver struct {
	UserID   int64             `json:"user_id"`
	Name     string            `json:"name"`
	Phone    string            `json:"phone"`
	Location matching.GeoPoint `json:"location"`
}

// Response is returned to the requester and embedded in the broadcast.
type Response struct {
	Message       string         `json:"message"`
	RequestID     int64          `json:"request_id"`
	FareEstimate  int64          `json:"fare_estimate"`
	NearestDriver *NearestDriver `json:"nearest_driver"`
}

type Result struct {
	Matched  bool
	Response Response
	DeviceID *string
}

// Broadcast is the ride_request_broadcast payload.
type Broadcast struct {
	Response      Response `json:"response"`
	Request       Request  `json:"request"`
	DeviceID      *string  `json:"device_id"`
	RideRequestID int64    `json:"ride_request_id"`
}

const (
	messageMatched   = "Ride request created and searching for driver"
	messageUnmatched = "Ride request created, but no drivers available currently."
)
