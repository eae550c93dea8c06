package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/slay-vote/internal/notify"
)

// RefreshMessage is the only message sent on the change stream.
const RefreshMessage = "refresh"

const writeTimeout = 5 * time.Second

// Subscriber hands out change subscriptions.
type Subscriber interface {
	Subscribe() *notify.Subscription
}

// ChangesHandler serves GET /api/changes, a websocket that sends
// "refresh" whenever votes change. Clients are expected to re-fetch all
// votes on each message; messages carry no data.
type ChangesHandler struct {
	broker   Subscriber
	watchers prometheus.Gauge // may be nil
	logger   *slog.Logger
}

func NewChangesHandler(broker Subscriber, watchers prometheus.Gauge, logger *slog.Logger) *ChangesHandler {
	return &ChangesHandler{broker: broker, watchers: watchers, logger: logger}
}

func (h *ChangesHandler) HandleChanges(w http.ResponseWriter, r *http.Request) {
	// The stream outlives the server's request write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	sub := h.broker.Subscribe()
	defer sub.Close()

	if h.watchers != nil {
		h.watchers.Inc()
		defer h.watchers.Dec()
	}

	// Clients never send anything; CloseRead discards input and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.send(ctx, conn); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("change stream write failed", slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}

func (h *ChangesHandler) send(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, []byte(RefreshMessage))
}
