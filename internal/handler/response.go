package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signalshub/internal/apperr"
	"signalshub/internal/auth"
)

// Ok writes {success: true, ...payload}.
func Ok(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Error writes {success: false, error} with the status mapped from err.
// Internal failures are logged and answered with a generic message.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if apperr.IsInternal(err) {
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// actingAs rejects a request made for another fid than the verified token's.
// Opaque tokens and tokens without a fid claim are not checked.
func actingAs(c *gin.Context, fid int64) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.Fid == 0 || claims.Fid == fid {
		return nil
	}
	return fmt.Errorf("%w: token fid %d cannot act for fid %d", apperr.ErrUnauthorized, claims.Fid, fid)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func fidParam(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	fid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || fid <= 0 {
		return 0, invalid("%s must be a positive integer", name)
	}
	return fid, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return invalid("malformed body: %v", err)
	}
	return nil
}

// idempotencyKey prefers the Idempotency-Key header over the body field.
func idempotencyKey(c *gin.Context, fromBody string) string {
	if h := strings.TrimSpace(c.GetHeader("Idempotency-Key")); h != "" {
		return h
	}
	return strings.TrimSpace(fromBody)
}
