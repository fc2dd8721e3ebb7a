package middleware

import (
	"io"
	"net/http"

	"github.com/MrEthical07/aura"
)

// Decision is the outcome of evaluating the session state for a protected route.
type Decision int

const (
	// DecisionPlaceholder means the session is still restoring.
	DecisionPlaceholder Decision = iota
	// DecisionLogin means there is no signed-in user.
	DecisionLogin
	// DecisionProtected means the protected content may render.
	DecisionProtected
)

func (d Decision) String() string {
	switch d {
	case DecisionPlaceholder:
		return "placeholder"
	case DecisionLogin:
		return "login"
	case DecisionProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Decide maps a state to a guard decision. Loading wins over a present user.
func Decide(st aura.State) Decision {
	if st.Loading {
		return DecisionPlaceholder
	}
	if st.User == nil {
		return DecisionLogin
	}
	return DecisionProtected
}

// StateSource is the read side of the session store. *aura.Engine implements it.
type StateSource interface {
	State() aura.State
}

// GuardConfig configures [Guard].
type GuardConfig struct {
	// LoginPath is the redirect target for unauthenticated requests. Defaults to "/login".
	LoginPath string
	// Placeholder renders the loading view. The guard sets the status and headers
	// before calling it. Defaults to a minimal page that refreshes itself.
	Placeholder http.Handler
	// Metrics, when set, counts guard decisions.
	Metrics *aura.Metrics
	// OnDecision is called for every evaluated request.
	OnDecision func(r *http.Request, d Decision)
}

const defaultLoginPath = "/login"

// Guard returns middleware that admits requests only for a signed-in session.
//
// Guard panics if src is nil: a guard without a session store is a wiring error.
func Guard(src StateSource, cfg GuardConfig) func(http.Handler) http.Handler {
	if src == nil {
		panic(aura.ErrSessionNotProvisioned)
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.Placeholder == nil {
		cfg.Placeholder = http.HandlerFunc(defaultPlaceholder)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := src.State()
			d := Decide(st)
			if cfg.OnDecision != nil {
				cfg.OnDecision(r, d)
			}

			switch d {
			case DecisionPlaceholder:
				cfg.Metrics.Inc(aura.MetricGuardPlaceholder)
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
				cfg.Placeholder.ServeHTTP(w, r)
			case DecisionLogin:
				cfg.Metrics.Inc(aura.MetricGuardRedirect)
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, cfg.LoginPath, redirectStatus(r))
			default:
				cfg.Metrics.Inc(aura.MetricGuardAdmit)
				ctx := withIdentity(r.Context(), *st.User)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// RequireSession is Guard with the default configuration.
func RequireSession(src StateSource) func(http.Handler) http.Handler {
	return Guard(src, GuardConfig{})
}

// RequireGuest returns middleware for the login entry point. When homePath is set,
// a request that arrives with a signed-in session is redirected there. An empty
// homePath lets every request through.
func RequireGuest(src StateSource, homePath string) func(http.Handler) http.Handler {
	if src == nil {
		panic(aura.ErrSessionNotProvisioned)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if homePath != "" && Decide(src.State()) == DecisionProtected {
				http.Redirect(w, r, homePath, redirectStatus(r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectStatus(r *http.Request) int {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

const placeholderPage = `<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><p>Loading…</p></body></html>
`

func defaultPlaceholder(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, placeholderPage)
}
