// README: Ride request and payment intent records, plus the request status flow.
package ride

import (
	"time"

	"ridedispatch/internal/types"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	// PaymentWallet is the third-party wallet; "grabpay" on the wire.
	PaymentWallet PaymentMethod = "grabpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentWallet:
		return true
	}
	return false
}

type Request struct {
	ID             int64
	RiderID        int64
	RideTypeID     int64
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	Passengers     int
	FareEstimate   int64
	Status         Status
	DriverID       *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Payment struct {
	ID            int64
	RideRequestID int64
	AmountCents   int64
	Method        PaymentMethod
	CreatedAt     time.Time
}

// AllowedTransitions records the only mutation this core makes: the match outcome.
var AllowedTransitions = map[Status][]Status{
	StatusCreated: {StatusMatched, StatusUnmatched},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
