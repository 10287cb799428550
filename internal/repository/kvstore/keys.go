package kvstore

import (
	"strconv"
	"strings"
)

const (
	prefixSignal          = "signal:"
	prefixPurchase        = "purchase:"
	prefixAnalystStats    = "analyst_stats:"
	prefixUserPurchases   = "user_purchases:"
	prefixSignalPurchases = "signal_purchases:"
	prefixNotifications   = "user_notifications:"
	prefixFollows         = "user_follows:"
	prefixSignalRatings   = "signal_ratings:"
	prefixIdempotency     = "idempotency:"
	prefixPaymentTx       = "payment_tx:"
)

func signalKey(id string) string          { return prefixSignal + id }
func purchaseKey(id string) string        { return prefixPurchase + id }
func statsKey(fid int64) string           { return prefixAnalystStats + fidString(fid) }
func userPurchasesKey(fid int64) string   { return prefixUserPurchases + fidString(fid) }
func signalPurchasesKey(id string) string { return prefixSignalPurchases + id }
func notificationsKey(fid int64) string   { return prefixNotifications + fidString(fid) }
func followsKey(fid int64) string         { return prefixFollows + fidString(fid) }
func signalRatingsKey(id string) string   { return prefixSignalRatings + id }
func paymentTxKey(hash string) string     { return prefixPaymentTx + hash }

func idempotencyKey(scope, key string) string {
	return prefixIdempotency + scope + ":" + key
}

func fidString(fid int64) string {
	return strconv.FormatInt(fid, 10)
}

func fidFromKey(key, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(key, prefix)
	fid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return fid, true
}
