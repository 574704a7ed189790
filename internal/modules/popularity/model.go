// README: Popularity kinds and the report shape served to clients.
package popularity

import "time"

type Kind string

const (
	KindPickup  Kind = "pickup"
	KindDropoff Kind = "dropoff"
)

const (
	keyPrefix = "popular:"
	// counterTTL is applied once when a counter set is created and never refreshed.
	counterTTL = 24 * time.Hour
	// DefaultTopN is the report size for the popular locations endpoint.
	DefaultTopN = 3
)

func (k Kind) valid() bool {
	return k == KindPickup || k == KindDropoff
}

func (k Kind) key() string {
	return keyPrefix + string(k)
}

type Report struct {
	TopPickup  []string `json:"top_pickup_locations"`
	TopDropoff []string `json:"top_dropoff_locations"`
}
