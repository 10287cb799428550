package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/service"
)

type AnalystHandler struct {
	Service *service.AnalystService
	Logger  *zap.Logger
}

func (h *AnalystHandler) Register(r gin.IRouter) {
	r.GET("/analyst/:fid", h.get)
	r.POST("/analyst/:fid/rebuild", h.rebuild)
	r.GET("/analysts", h.list)
}

// @Summary Analyst statistics
// @Tags analysts
// @Produce json
// @Param fid path int true "analyst fid"
// @Success 200 {object} map[string]any
// @Router /analyst/{fid} [get]
func (h *AnalystHandler) get(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	st, err := h.Service.Get(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"stats": st})
}

// @Summary Recompute analyst statistics from source records
// @Tags analysts
// @Produce json
// @Security BearerAuth
// @Param fid path int true "analyst fid"
// @Success 200 {object} map[string]any
// @Router /analyst/{fid}/rebuild [post]
func (h *AnalystHandler) rebuild(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	st, err := h.Service.Rebuild(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"stats": st})
}

// @Summary Analyst leaderboard by success rate
// @Tags analysts
// @Produce json
// @Success 200 {object} map[string]any
// @Router /analysts [get]
func (h *AnalystHandler) list(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"analysts": items})
}
