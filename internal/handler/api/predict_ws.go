package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Stream states sent to websocket clients.
const (
	StateLoading = "loading"
	StateSuccess = "success"
	StateFailed  = "failed"
)

type streamConfig struct {
	upgrader     websocket.Upgrader
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// StreamOption configures the websocket endpoint.
type StreamOption func(*streamConfig)

// WithStreamOrigins restricts websocket origins. Empty allows any.
func WithStreamOrigins(origins ...string) StreamOption {
	return func(c *streamConfig) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			if _, ok := allowed["*"]; ok {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
}

// WithStreamTimeouts sets how long to wait for the request frame and for each write.
func WithStreamTimeouts(read, write time.Duration) StreamOption {
	return func(c *streamConfig) {
		if read > 0 {
			c.readTimeout = read
		}
		if write > 0 {
			c.writeTimeout = write
		}
	}
}

func newStreamConfig(opts ...StreamOption) *streamConfig {
	c := &streamConfig{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PredictStream upgrades to a websocket, reads one PredictRequest and streams
// the run state: loading, then success or failed, then a close frame.
func (h *PredictEchoHandler) PredictStream(c echo.Context) error {
	conn, err := h.ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(h.ws.readTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		h.logger.Debug("websocket read failed", xlogger.Error(err))
		return nil
	}

	req := &models.PredictRequest{}
	if err := json.Unmarshal(raw, req); err != nil {
		h.sendFailed(conn, xhttp.BadRequestError("request must be a JSON object"))
		return nil
	}
	if verrs := xhttp.ValidateStruct(c, req); verrs != nil {
		h.sendFailed(conn, xhttp.NewAppError(xhttp.CodeBadRequest, verrs[0].Field, verrs[0].Message, http.StatusBadRequest))
		return nil
	}
	freq, err := toForecastRequest(req)
	if err != nil {
		h.sendFailed(conn, xhttp.FromDomain(err))
		return nil
	}

	if err := h.send(conn, models.StreamEvent{State: StateLoading}); err != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go watchPeer(conn, cancel)

	res, err := h.predictor.Run(ctx, freq)
	if ctx.Err() != nil && c.Request().Context().Err() == nil {
		h.logger.Debug("websocket peer went away", xlogger.String("ticker", freq.Ticker))
		return nil
	}
	if err != nil {
		h.sendFailed(conn, xhttp.FromDomain(err))
		return nil
	}
	if err := h.send(conn, models.StreamEvent{State: StateSuccess, Result: models.NewPredictResponse(res)}); err != nil {
		return nil
	}
	h.closeNormal(conn)
	return nil
}

// watchPeer reads until the connection fails or the client sends a close
// frame, then cancels the run. The client sends nothing after its request.
func watchPeer(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *PredictEchoHandler) sendFailed(conn *websocket.Conn, appErr *xhttp.AppError) {
	_ = h.send(conn, models.StreamEvent{
		State: StateFailed,
		Error: &models.ErrorResponse{Error: appErr.Message, Code: appErr.Code},
	})
	h.closeNormal(conn)
}

func (h *PredictEchoHandler) send(conn *websocket.Conn, ev models.StreamEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(h.ws.writeTimeout))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("websocket write failed", xlogger.String("state", ev.State), xlogger.Error(err))
		return err
	}
	return nil
}

func (h *PredictEchoHandler) closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.ws.writeTimeout))
}
