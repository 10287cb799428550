package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalshub/internal/service"
)

type PurchaseHandler struct {
	Service *service.PurchaseService
	Logger  *zap.Logger
}

func (h *PurchaseHandler) Register(r gin.IRouter) {
	r.POST("/purchase", h.purchase)
	r.GET("/purchases/:fid", h.listByBuyer)
	r.GET("/check-purchase/:fid/:signalId", h.check)
}

type purchaseRequest struct {
	SignalID        string          `json:"signalId"`
	BuyerFid        int64           `json:"buyerFid"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionHash string          `json:"transactionHash"`
	IdempotencyKey  string          `json:"idempotencyKey"`
}

// @Summary Purchase a signal
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "replay key"
// @Param body body purchaseRequest true "purchase"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /purchase [post]
func (h *PurchaseHandler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	if err := actingAs(c, req.BuyerFid); err != nil {
		Error(c, h.Logger, err)
		return
	}
	p, err := h.Service.Purchase(c.Request.Context(), service.PurchaseInput{
		SignalID:        req.SignalID,
		BuyerFid:        req.BuyerFid,
		Amount:          req.Amount,
		TransactionHash: req.TransactionHash,
		IdempotencyKey:  idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"purchase": p})
}

// @Summary List a buyer's purchases
// @Tags purchases
// @Produce json
// @Param fid path int true "buyer fid"
// @Success 200 {object} map[string]any
// @Router /purchases/{fid} [get]
func (h *PurchaseHandler) listByBuyer(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	items, err := h.Service.ListByBuyer(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"purchases": items})
}

// @Summary Check whether a buyer owns a signal
// @Tags purchases
// @Produce json
// @Param fid path int true "buyer fid"
// @Param signalId path string true "signal id"
// @Success 200 {object} map[string]any
// @Router /check-purchase/{fid}/{signalId} [get]
func (h *PurchaseHandler) check(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	ok, err := h.Service.HasPurchased(c.Request.Context(), fid, c.Param("signalId"))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"hasPurchased": ok})
}
