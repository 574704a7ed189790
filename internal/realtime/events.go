// README: Real-time wire contract: frame envelope, event names and room naming.
package realtime

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Inbound events.
const (
	EventJoinPersonalRoom = "joinPersonalRoom"
	EventJoinDriverRoom   = "joinDriverRoom"
	EventJoinRoom         = "joinRoom"
	EventLeaveRoom        = "leaveRoom"
	EventRideRequested    = "rideRequested"
	EventRideAccepted     = "rideAccepted"
)

// Outbound events.
const (
	EventConnected            = "connected"
	EventNewRideRequest       = "newRideRequest"
	EventRideAcceptedNotice   = "rideAccepted"
	EventRideRequestBroadcast = "ride_request_broadcast"
	EventError                = "error"
)

// Frame is the JSON envelope used in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: data})
}

func UserRoom(id string) string   { return "user_" + id }
func DriverRoom(id string) string { return "driver_" + id }
func RideRoom(id int64) string    { return "ride_" + strconv.FormatInt(id, 10) }

type connectedPayload struct {
	SocketID string `json:"socketId"`
}

type rideRequestedPayload struct {
	RiderID       json.RawMessage `json:"rider_id"`
	DriverID      json.RawMessage `json:"driver_id"`
	RideID        json.RawMessage `json:"ride_id"`
	PickupAddress string          `json:"pickup_address"`
}

type newRideRequestPayload struct {
	RideID        json.RawMessage `json:"ride_id"`
	RiderID       json.RawMessage `json:"rider_id"`
	PickupAddress string          `json:"pickup_address"`
	Message       string          `json:"message"`
}

type rideAcceptedPayload struct {
	DriverID json.RawMessage `json:"driver_id"`
	RiderID  json.RawMessage `json:"rider_id"`
	RideID   json.RawMessage `json:"ride_id"`
}

type rideAcceptedNotice struct {
	RideID   json.RawMessage `json:"ride_id"`
	DriverID json.RawMessage `json:"driver_id"`
	Message  string          `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// idFromRaw accepts an identifier sent either as a JSON number or a string.
func idFromRaw(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}
	return "", false
}
