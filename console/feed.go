package console

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/aura"
	"github.com/coder/websocket"
)

// FeedMessage is one frame of the session feed. Open pages reload when it changes
// so the guard runs again.
type FeedMessage struct {
	Authenticated bool `json:"authenticated"`
	Loading       bool `json:"loading"`
}

func (s *Server) sessionEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.AllowedOrigins,
	})
	if err != nil {
		s.logger.WarnContext(r.Context(), "ws.accept.fail", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	states, stop := s.engine.Watch()
	defer stop()

	// The feed is write-only; CloseRead handles control frames and ends ctx when
	// the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(s.opts.FeedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			if err := s.writeState(ctx, conn, st); err != nil {
				s.logger.InfoContext(ctx, "ws.write.fail",
					slog.Int("close_status", int(websocket.CloseStatus(err))),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, s.opts.FeedWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.logger.InfoContext(ctx, "ws.ping.fail", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (s *Server) writeState(parent context.Context, conn *websocket.Conn, st aura.State) error {
	ctx, cancel := context.WithTimeout(parent, s.opts.FeedWriteTimeout)
	defer cancel()

	b, err := json.Marshal(FeedMessage{Authenticated: st.IsAuthenticated(), Loading: st.Loading})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}
