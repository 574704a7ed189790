// README: Ride type pricing rows and the inputs accepted by the admin surface.
package pricing

import (
	"strings"
	"time"
)

type RideType struct {
	ID        int64     `json:"ride_type_id"`
	Name      string    `json:"name"`
	BaseFare  int64     `json:"base_fare"`
	PerKm     float64   `json:"per_km"`
	PerMin    float64   `json:"per_min"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RideTypeInput carries the writable columns of a ride type.
type RideTypeInput struct {
	Name     string
	BaseFare int64
	PerKm    float64
	PerMin   float64
}

func (in RideTypeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.BaseFare < 0 || in.PerKm < 0 || in.PerMin < 0 {
		return ErrInvalidRideType
	}
	return nil
}

// FindByName scans the pricing table for an exact name match.
func FindByName(types []RideType, name string) (RideType, bool) {
	for _, rt := range types {
		if rt.Name == name {
			return rt, true
		}
	}
	return RideType{}, false
}
