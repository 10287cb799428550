package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/models"
	"signalshub/internal/service"
)

type SignalHandler struct {
	Service *service.SignalService
	Logger  *zap.Logger
}

func (h *SignalHandler) Register(r gin.IRouter) {
	r.GET("/signals", h.list)
	r.GET("/signals/:id", h.get)
	r.POST("/signals", h.create)
	r.GET("/analyst/:fid/signals", h.listByAnalyst)
}

type createSignalRequest struct {
	Signal *models.Signal `json:"signal"`
}

// @Summary List signals
// @Tags signals
// @Produce json
// @Success 200 {object} map[string]any
// @Router /signals [get]
func (h *SignalHandler) list(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"signals": items})
}

// @Summary Get signal
// @Tags signals
// @Produce json
// @Param id path string true "signal id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /signals/{id} [get]
func (h *SignalHandler) get(c *gin.Context) {
	sig, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"signal": sig})
}

// @Summary Publish signal
// @Tags signals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createSignalRequest true "signal"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /signals [post]
func (h *SignalHandler) create(c *gin.Context) {
	var req createSignalRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	if req.Signal == nil {
		Error(c, h.Logger, invalid("signal is required"))
		return
	}
	if err := actingAs(c, req.Signal.AnalystFid); err != nil {
		Error(c, h.Logger, err)
		return
	}
	sig, err := h.Service.Create(c.Request.Context(), *req.Signal)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"signal": sig})
}

// @Summary List an analyst's signals
// @Tags analysts
// @Produce json
// @Param fid path int true "analyst fid"
// @Success 200 {object} map[string]any
// @Router /analyst/{fid}/signals [get]
func (h *SignalHandler) listByAnalyst(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	items, err := h.Service.ListByAnalyst(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"signals": items})
}
