// README: Worker presence records and locator query shapes.
package matching

import (
	"time"

	"ridedispatch/internal/types"
)

// GeoPoint is a GeoJSON point; coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(p types.Point) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}}
}

func (g GeoPoint) Point() types.Point {
	if len(g.Coordinates) < 2 {
		return types.Point{}
	}
	return types.Point{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
}

// Worker is a driver as published by the presence service. Read-only here.
type Worker struct {
	UserID            int64    `bson:"user_id" json:"user_id"`
	Name              string   `bson:"name" json:"name"`
	Phone             string   `bson:"phone" json:"phone"`
	IsOnline          bool     `bson:"is_online" json:"is_online"`
	AvailableCapacity int      `bson:"available_capacity" json:"available_capacity"`
	Location          GeoPoint `bson:"current_location" json:"current_location"`
}

// Eligible reports whether the worker can take a party of the given size.
func (w Worker) Eligible(minCapacity int) bool {
	return w.IsOnline && w.AvailableCapacity > 0 && w.AvailableCapacity >= minCapacity
}

// NearbyQuery is one radius probe against the presence store.
type NearbyQuery struct {
	Origin       types.Point
	RadiusMeters float64
	MinCapacity  int
	Limit        int
}

// LocateQuery asks for the closest eligible worker. Holder identifies the
// request when worker reservation is enabled.
type LocateQuery struct {
	Origin      types.Point
	MinCapacity int
	Holder      string
}

const (
	workerLeaseKey = "matching:worker:%d:lease"
	// defaultLeaseTTL bounds how long a reserved worker is withheld from other requests.
	defaultLeaseTTL = 30 * time.Second
)
