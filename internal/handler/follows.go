package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/service"
)

type FollowHandler struct {
	Service *service.FollowService
	Logger  *zap.Logger
}

func (h *FollowHandler) Register(r gin.IRouter) {
	r.POST("/follow", h.follow)
	r.POST("/unfollow", h.unfollow)
	r.GET("/follows/:fid", h.list)
}

type followRequest struct {
	UserFid    int64 `json:"userFid"`
	AnalystFid int64 `json:"analystFid"`
}

// @Summary Follow an analyst
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body followRequest true "follow"
// @Success 200 {object} map[string]any
// @Router /follow [post]
func (h *FollowHandler) follow(c *gin.Context) {
	var req followRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	if err := actingAs(c, req.UserFid); err != nil {
		Error(c, h.Logger, err)
		return
	}
	follows, err := h.Service.Follow(c.Request.Context(), req.UserFid, req.AnalystFid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"follows": follows})
}

// @Summary Unfollow an analyst
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body followRequest true "unfollow"
// @Success 200 {object} map[string]any
// @Router /unfollow [post]
func (h *FollowHandler) unfollow(c *gin.Context) {
	var req followRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	if err := actingAs(c, req.UserFid); err != nil {
		Error(c, h.Logger, err)
		return
	}
	follows, err := h.Service.Unfollow(c.Request.Context(), req.UserFid, req.AnalystFid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"follows": follows})
}

// @Summary List analysts a user follows
// @Tags follows
// @Produce json
// @Param fid path int true "user fid"
// @Success 200 {object} map[string]any
// @Router /follows/{fid} [get]
func (h *FollowHandler) list(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	follows, err := h.Service.List(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"follows": follows})
}
