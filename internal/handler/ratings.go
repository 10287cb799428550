package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/models"
	"signalshub/internal/service"
)

type RatingHandler struct {
	Service *service.RatingService
	Logger  *zap.Logger
}

func (h *RatingHandler) Register(r gin.IRouter) {
	r.POST("/rate-quick", h.rateQuick)
	r.POST("/rate-final", h.rateFinal)
}

type quickRatingRequest struct {
	PurchaseID     string `json:"purchaseId"`
	Rating         int    `json:"rating"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type finalRatingRequest struct {
	PurchaseID     string `json:"purchaseId"`
	Rating         string `json:"rating"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// @Summary Submit a 1-5 star rating
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body quickRatingRequest true "rating"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /rate-quick [post]
func (h *RatingHandler) rateQuick(c *gin.Context) {
	var req quickRatingRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	err := h.Service.RateQuick(c.Request.Context(), req.PurchaseID, req.Rating, idempotencyKey(c, req.IdempotencyKey))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, nil)
}

// @Summary Submit the success or loss verdict
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body finalRatingRequest true "verdict"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /rate-final [post]
func (h *RatingHandler) rateFinal(c *gin.Context) {
	var req finalRatingRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	err := h.Service.RateFinal(c.Request.Context(), req.PurchaseID, models.FinalRating(req.Rating), idempotencyKey(c, req.IdempotencyKey))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, nil)
}
