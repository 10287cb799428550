package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/service"
)

type SweepHandler struct {
	Sweeper *service.ExpirySweeper
	Logger  *zap.Logger
	Now     func() time.Time
}

func (h *SweepHandler) Register(r gin.IRouter) {
	r.GET("/check-expired-signals", h.sweep)
}

// @Summary Expire overdue signals and request final ratings
// @Tags maintenance
// @Produce json
// @Success 200 {object} map[string]any
// @Router /check-expired-signals [get]
func (h *SweepHandler) sweep(c *gin.Context) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	res, err := h.Sweeper.Sweep(c.Request.Context(), now)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"message": "Checked expired signals", "result": res})
}
