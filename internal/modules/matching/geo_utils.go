// README: Great-circle distance and ordering helpers for the in-memory presence store.
package matching

import (
	"cmp"
	"math"
	"slices"

	"ridedispatch/internal/types"
)

const earthRadiusMeters = 6371000.0

// haversineMeters is the great-circle distance between a and b.
func haversineMeters(a, b types.Point) float64 {
	lat1, lat2 := degreesToRadians(a.Lat), degreesToRadians(b.Lat)
	sinLat := math.Sin((lat2 - lat1) / 2)
	sinLng := math.Sin(degreesToRadians(b.Lng-a.Lng) / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// sortByDistance orders items closest first; equal distances keep their order.
func sortByDistance[T any](items []T, dist func(T) float64) {
	slices.SortStableFunc(items, func(x, y T) int {
		return cmp.Compare(dist(x), dist(y))
	})
}
