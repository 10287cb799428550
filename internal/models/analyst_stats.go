package models

import "github.com/shopspring/decimal"

// AnalystStats is the denormalized per-analyst aggregate.
type AnalystStats struct {
	Fid           int64           `json:"fid"`
	TotalSignals  int             `json:"totalSignals"`
	ActiveSignals int             `json:"activeSignals"`
	SuccessRate   int             `json:"successRate"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	TotalSales    int             `json:"totalSales"`
	Followers     int             `json:"followers"`
	Rating        float64         `json:"rating"`
}

func NewAnalystStats(fid int64) *AnalystStats {
	return &AnalystStats{Fid: fid, TotalEarnings: decimal.Zero}
}
