package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type NotificationType string

const (
	NotificationPurchaseSuccess NotificationType = "purchase_success"
	NotificationRatingRequest   NotificationType = "rating_request"
	NotificationNewSignal       NotificationType = "new_signal"
	NotificationExpiryReminder  NotificationType = "expiry_reminder"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationPurchaseSuccess, NotificationRatingRequest, NotificationNewSignal, NotificationExpiryReminder:
		return true
	}
	return false
}

type Notification struct {
	ID          string           `json:"id"`
	UserFid     int64            `json:"userFid"`
	Type        NotificationType `json:"type"`
	SignalID    string           `json:"signalId,omitempty"`
	AnalystName string           `json:"analystName,omitempty"`
	BuyerFid    int64            `json:"buyerFid,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Message     string           `json:"message"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
}
