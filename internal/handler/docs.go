package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterDocs serves a short markdown route overview at /docs.
func RegisterDocs(r gin.IRouter, prefix string) {
	body := strings.ReplaceAll(docsMarkdown, "{prefix}", strings.TrimRight(prefix, "/"))
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, body)
	})
}

const docsMarkdown = `# Data Signals Hub

Marketplace backend for analyst signals sold to Farcaster users.

## Envelope

Every API response is JSON with a boolean "success". Failures carry "error".
Status codes: 400 invalid input, 401 missing or bad token, 404 not found,
409 already done, 429 rate limited, 500 internal.

## Auth

POST routes under {prefix} require "Authorization: Bearer <jwt>" unless auth
is disabled. GET routes are public.

## Idempotency

POST {prefix}/purchase, {prefix}/rate-quick and {prefix}/rate-final accept an
"Idempotency-Key" header (or "idempotencyKey" body field). Replays within 24h
return the first result.

## Routes

- GET  {prefix}/signals
- GET  {prefix}/signals/:id
- POST {prefix}/signals
- POST {prefix}/purchase
- GET  {prefix}/purchases/:fid
- GET  {prefix}/check-purchase/:fid/:signalId
- POST {prefix}/rate-quick
- POST {prefix}/rate-final
- GET  {prefix}/analyst/:fid
- GET  {prefix}/analyst/:fid/signals
- POST {prefix}/analyst/:fid/rebuild
- GET  {prefix}/analysts
- GET  {prefix}/notifications/:fid
- POST {prefix}/notifications
- POST {prefix}/notifications/:fid/read
- GET  {prefix}/notifications/:fid/stream (websocket)
- POST {prefix}/follow
- POST {prefix}/unfollow
- GET  {prefix}/follows/:fid
- GET  {prefix}/check-expired-signals

## Operations

- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html
`
