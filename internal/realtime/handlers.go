// README: Inbound event handling: room joins and rider/driver relays.
package realtime

import (
	"encoding/json"

	"go.uber.org/zap"
)

const (
	newRideRequestMessage = "You have a new ride request!"
	rideAcceptedMessage   = "Your ride has been accepted!"
)

func (h *Hub) handle(c *Client, f Frame) {
	switch f.Event {
	case EventJoinPersonalRoom:
		id, ok := idFromRaw(f.Data)
		if !ok {
			h.reject(c, f.Event, "user id required")
			return
		}
		h.Join(c.ID, UserRoom(id))
	case EventJoinDriverRoom:
		id, ok := idFromRaw(f.Data)
		if !ok {
			h.reject(c, f.Event, "driver id required")
			return
		}
		h.Join(c.ID, DriverRoom(id))
	case EventJoinRoom, EventLeaveRoom:
		room, ok := idFromRaw(f.Data)
		if !ok {
			h.reject(c, f.Event, "room name required")
			return
		}
		if f.Event == EventJoinRoom {
			h.Join(c.ID, room)
		} else {
			h.Leave(c.ID, room)
		}
	case EventRideRequested:
		var p rideRequestedPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			h.reject(c, f.Event, "invalid payload")
			return
		}
		driverID, ok := idFromRaw(p.DriverID)
		if !ok {
			h.reject(c, f.Event, "driver_id required")
			return
		}
		h.EmitTo(DriverRoom(driverID), EventNewRideRequest, newRideRequestPayload{
			RideID:        p.RideID,
			RiderID:       p.RiderID,
			PickupAddress: p.PickupAddress,
			Message:       newRideRequestMessage,
		})
	case EventRideAccepted:
		var p rideAcceptedPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			h.reject(c, f.Event, "invalid payload")
			return
		}
		riderID, ok := idFromRaw(p.RiderID)
		if !ok {
			h.reject(c, f.Event, "rider_id required")
			return
		}
		h.EmitTo(UserRoom(riderID), EventRideAcceptedNotice, rideAcceptedNotice{
			RideID:   p.RideID,
			DriverID: p.DriverID,
			Message:  rideAcceptedMessage,
		})
	default:
		h.reject(c, f.Event, "unknown event")
	}
}

func (h *Hub) reject(c *Client, event, reason string) {
	c.log.Debug("inbound event rejected", zap.String("event", event), zap.String("reason", reason))
	h.sendTo(c.ID, EventError, errorPayload{Message: event + ": " + reason})
}
