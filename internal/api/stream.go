package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/middleware"
	"github.com/persistorai/ldpath/internal/models"
)

const wsWriteTimeout = 10 * time.Second

// Stream message types.
const (
	MessagePath    = "path"
	MessageSummary = "summary"
	MessageError   = "error"
)

// StreamMessage is one websocket frame of a streamed search.
type StreamMessage struct {
	Type    string            `json:"type"`
	Index   int               `json:"index,omitempty"`
	Path    []models.PathStep `json:"path,omitempty"`
	Result  *models.RunResult `json:"result,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Stream handles GET /api/v1/searches/stream. Parameters come from the query
// string. Every path is sent as it is found, followed by a summary without
// the paths. Closing the socket cancels the search.
func (h *SearchHandler) Stream(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := requestFromQuery(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		// CORS origins double as websocket origin patterns.
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       origins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			middleware.RequestLogger(c, h.log).WithError(err).Error("websocket accept failed")

			return
		}
		defer conn.CloseNow() //nolint:errcheck // best-effort close after a normal Close.

		metrics.WSConnections.Inc()
		defer metrics.WSConnections.Dec()

		// CloseRead cancels ctx as soon as the peer closes or sends anything.
		ctx, cancel := context.WithCancel(conn.CloseRead(c.Request.Context()))
		defer cancel()

		send := func(m StreamMessage) bool {
			wctx, wcancel := context.WithTimeout(ctx, wsWriteTimeout)
			defer wcancel()

			if err := wsjson.Write(wctx, conn, m); err != nil {
				cancel()

				return false
			}

			return true
		}

		result, err := h.runner.Execute(ctx, req, func(idx int, steps []models.PathStep) {
			send(StreamMessage{Type: MessagePath, Index: idx, Path: steps})
		})
		if err != nil {
			status, code := classify(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				middleware.RequestLogger(c, h.log).WithError(err).WithField("query", req.Query).Error("streamed search failed")
				msg = "internal server error"
			}

			send(StreamMessage{Type: MessageError, Code: code, Message: msg})
			conn.Close(websocket.StatusPolicyViolation, code) //nolint:errcheck // peer may be gone.

			return
		}

		if ctx.Err() != nil {
			return
		}

		summary := *result
		summary.Data.Paths = nil

		if send(StreamMessage{Type: MessageSummary, Result: &summary}) {
			conn.Close(websocket.StatusNormalClosure, "search finished") //nolint:errcheck // peer may be gone.
		}
	}
}

// requestFromQuery reads a SearchRequest from URL parameters.
func requestFromQuery(c *gin.Context) (*models.SearchRequest, error) {
	req := &models.SearchRequest{
		Query:            c.Query("query"),
		Start:            c.Query("start"),
		Algorithm:        c.Query("algorithm"),
		ParallelRequests: parseCount(c.Query("parallel_requests")),
		BatchSize:        parseCount(c.Query("batch_size")),
	}

	if req.Query == "" {
		return nil, errors.New("query parameter query is required")
	}

	if w := c.Query("weight"); w != "" {
		v := parseFloat(w)
		req.Weight = &v
	}

	if q := c.Query("quick_goal"); q != "" {
		v := q == "true" || q == "1"
		req.QuickGoal = &v
	}

	if c.Query("time") != "" || c.Query("ans") != "" || c.Query("triples") != "" {
		req.Limits = &models.Limits{
			Time:    parseFloat(c.Query("time")),
			Ans:     parseCount(c.Query("ans")),
			Triples: parseCount(c.Query("triples")),
		}
	}

	return req, nil
}
