package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FinalRating string

const (
	FinalRatingSuccess FinalRating = "success"
	FinalRatingLoss    FinalRating = "loss"
)

func (r FinalRating) Valid() bool {
	return r == FinalRatingSuccess || r == FinalRatingLoss
}

// Purchase is one buyer's unlock of one signal.
// ID format: "<buyerFid>_<signalId>_<epochMillis>".
type Purchase struct {
	ID                string          `json:"id"`
	SignalID          string          `json:"signalId"`
	BuyerFid          int64           `json:"buyerFid"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionHash   string          `json:"transactionHash"`
	Timestamp         time.Time       `json:"timestamp"`
	QuickRating       *int            `json:"quickRating"`
	FinalRating       *FinalRating    `json:"finalRating"`
	RatingRequestedAt *time.Time      `json:"ratingRequestedAt"`
}
