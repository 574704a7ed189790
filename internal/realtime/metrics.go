// README: Prometheus instruments for the real-time channel.
package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Currently open real-time connections",
	})

	droppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_dropped_frames_total",
		Help: "Frames dropped because a client send buffer was full",
	})
)
