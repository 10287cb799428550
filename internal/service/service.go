package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"signalshub/internal/models"
)

// analystShare is the part of every sale credited to the analyst.
var analystShare = decimal.RequireFromString("0.9")

// Publisher fans a stored notification out to live subscribers.
type Publisher interface {
	Publish(n models.Notification)
}

// Deliverer pushes a notification to an outbound channel (webhook, chat).
type Deliverer interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// PaymentVerifier checks the transaction behind a purchase.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, txHash string, amount decimal.Decimal) error
}

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}
