package console

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// readyz reports ready once the session has been restored and storage answers.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.engine.Ready():
	default:
		http.Error(w, "restoring session", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReadyTimeout)
	defer cancel()
	if err := s.engine.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "readyz.ping_fail", slog.String("error", err.Error()))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ready\n")
}
