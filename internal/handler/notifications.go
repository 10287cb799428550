package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"signalshub/internal/models"
	"signalshub/internal/service"
)

// Subscriber hands out live notification streams per user fid.
type Subscriber interface {
	Subscribe(fid int64) (<-chan models.Notification, func())
}

type NotificationHandler struct {
	Service *service.NotificationService
	Stream  Subscriber
	Logger  *zap.Logger
	// PingInterval keeps idle websocket streams alive. Zero disables pings.
	PingInterval time.Duration
}

func (h *NotificationHandler) Register(r gin.IRouter) {
	r.GET("/notifications/:fid", h.list)
	r.POST("/notifications", h.push)
	r.POST("/notifications/:fid/read", h.markRead)
	if h.Stream != nil {
		r.GET("/notifications/:fid/stream", h.stream)
	}
}

type pushNotificationRequest struct {
	Notification *models.Notification `json:"notification"`
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// @Summary List a user's notifications, newest first
// @Tags notifications
// @Produce json
// @Param fid path int true "user fid"
// @Success 200 {object} map[string]any
// @Router /notifications/{fid} [get]
func (h *NotificationHandler) list(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	items, err := h.Service.List(c.Request.Context(), fid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"notifications": items})
}

// @Summary Queue a notification
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body pushNotificationRequest true "notification"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /notifications [post]
func (h *NotificationHandler) push(c *gin.Context) {
	var req pushNotificationRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	if req.Notification == nil {
		Error(c, h.Logger, invalid("notification is required"))
		return
	}
	n, err := h.Service.Push(c.Request.Context(), *req.Notification)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"notification": n})
}

// @Summary Mark notifications as read
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fid path int true "user fid"
// @Param body body markReadRequest false "ids to mark; empty marks all"
// @Success 200 {object} map[string]any
// @Router /notifications/{fid}/read [post]
func (h *NotificationHandler) markRead(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	if err := actingAs(c, fid); err != nil {
		Error(c, h.Logger, err)
		return
	}
	var req markReadRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			Error(c, h.Logger, err)
			return
		}
	}
	n, err := h.Service.MarkRead(c.Request.Context(), fid, req.IDs)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"updated": n})
}

// @Summary Stream new notifications over a websocket
// @Tags notifications
// @Param fid path int true "user fid"
// @Router /notifications/{fid}/stream [get]
func (h *NotificationHandler) stream(c *gin.Context) {
	fid, err := fidParam(c, "fid")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Int64("fid", fid), zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// Clients only listen; CloseRead handles control frames and cancels ctx on disconnect.
	ctx := conn.CloseRead(c.Request.Context())
	ch, cancel := h.Stream.Subscribe(fid)
	defer cancel()

	var ping <-chan time.Time
	if h.PingInterval > 0 {
		t := time.NewTicker(h.PingInterval)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case n, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, n)
			wcancel()
			if err != nil {
				return
			}
		case <-ping:
			pctx, pcancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}
