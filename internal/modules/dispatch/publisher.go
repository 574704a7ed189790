// README: Outbound ride.requested events on Kafka.
package dispatch

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ridedispatch/internal/types"
)

type RideRequestedEvent struct {
	RequestID    int64       `json:"request_id"`
	RiderID      int64       `json:"rider_id"`
	RideType     string      `json:"ride_type"`
	FareEstimate int64       `json:"fare_estimate"`
	Matched      bool        `json:"matched"`
	DriverID     *int64      `json:"driver_id"`
	Pickup       types.Point `json:"pickup"`
	Dropoff      types.Point `json:"dropoff"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

type Publisher interface {
	PublishRideRequested(ctx context.Context, ev RideRequestedEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// PublishRideRequested keys messages by request id so one request stays on one partition.
func (p *KafkaPublisher) PublishRideRequested(ctx context.Context, ev RideRequestedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.RequestID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("ride.requested")},
		},
	})
}
