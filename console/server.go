package console

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/metrics/export/prometheus"
	"github.com/MrEthical07/aura/middleware"
	"github.com/a-h/templ"
	"github.com/gorilla/mux"
)

const maxFormBytes = 64 << 10

// Options configures a console Server. The zero value serves at the root path.
type Options struct {
	// BasePath mounts the console under a prefix such as "/Aura-Page-test".
	BasePath string
	Logger   *slog.Logger
	// Metrics serves GET /metrics. Defaults to the Prometheus exporter for the engine.
	Metrics http.Handler
	// RedirectSignedIn sends a signed-in operator from the login page to home.
	RedirectSignedIn bool
	// AllowedOrigins are extra origin host patterns accepted by the session feed.
	AllowedOrigins   []string
	FeedPingInterval time.Duration
	FeedWriteTimeout time.Duration
	ReadyTimeout     time.Duration
}

// Server is the console HTTP handler.
type Server struct {
	engine *aura.Engine
	opts   Options
	logger *slog.Logger
	base   string
	router *mux.Router
	guard  func(http.Handler) http.Handler
}

// New builds the console for engine. It panics if engine is nil.
func New(engine *aura.Engine, opts Options) *Server {
	if engine == nil {
		panic(aura.ErrSessionNotProvisioned)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewExporter(engine).Handler()
	}
	if opts.FeedPingInterval <= 0 {
		opts.FeedPingInterval = 30 * time.Second
	}
	if opts.FeedWriteTimeout <= 0 {
		opts.FeedWriteTimeout = 5 * time.Second
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}

	s := &Server{
		engine: engine,
		opts:   opts,
		logger: opts.Logger,
		base:   normalizeBasePath(opts.BasePath),
	}
	s.guard = middleware.Guard(engine, middleware.GuardConfig{
		LoginPath:   s.Path("/login"),
		Placeholder: http.HandlerFunc(s.placeholder),
		Metrics:     engine.Metrics(),
		OnDecision:  s.logDecision,
	})
	s.router = s.routes()
	return s
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Path returns the URL of a console path under the base path.
func (s *Server) Path(p string) string {
	return s.base + p
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	root := mux.NewRouter()
	root.Use(s.requestContext)
	root.NotFoundHandler = http.HandlerFunc(s.notFound)

	r := root
	if s.base != "" {
		root.Handle(s.base, http.RedirectHandler(s.base+"/", http.StatusFound))
		r = root.PathPrefix(s.base).Subrouter()
	}

	home := ""
	if s.opts.RedirectSignedIn {
		home = s.Path("/")
	}
	r.Handle("/login", middleware.RequireGuest(s.engine, home)(http.HandlerFunc(s.loginForm))).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/login", s.loginSubmit).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	r.HandleFunc("/session/events", s.sessionEvents).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.guard)
	for _, item := range navItems {
		protected.Handle(item.Path, s.page(item)).Methods(http.MethodGet, http.MethodHead)
	}
	protected.Handle(profileItem.Path, s.page(profileItem)).Methods(http.MethodGet, http.MethodHead)
	protected.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	return root
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := aura.WithClientIP(r.Context(), clientIP(r))
		ctx = aura.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) logDecision(r *http.Request, d middleware.Decision) {
	s.logger.DebugContext(r.Context(), "guard.decision",
		slog.String("path", r.URL.Path),
		slog.String("decision", d.String()),
	)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (s *Server) placeholder(w http.ResponseWriter, r *http.Request) {
	if err := loadingPage().Render(r.Context(), w); err != nil {
		s.logger.ErrorContext(r.Context(), "render.fail", slog.String("view", "loading"), slog.String("error", err.Error()))
	}
}

func (s *Server) sessionView(r *http.Request, active string) SessionView {
	return SessionView{
		User:       middleware.MustIdentity(r.Context()),
		LogoutPath: s.Path("/logout"),
		Active:     active,
		Link:       s.Path,
	}
}

func (s *Server) page(item navItem) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := s.sessionView(r, item.Path)
		var content templ.Component
		switch item.Path {
		case "/":
			content = homeContent(v.User)
		case profileItem.Path:
			content = profileContent(v.User)
		default:
			content = sectionContent(item)
		}
		s.render(w, r, http.StatusOK, protectedPage(v, item, content))
	})
}

// notFound answers unmatched paths. Inside the console tree the guard runs first,
// so a missing page is only reported to a signed-in operator.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if s.base != "" && !strings.HasPrefix(r.URL.Path, s.base+"/") {
		http.NotFound(w, r)
		return
	}
	s.requestContext(s.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := s.sessionView(r, "")
		s.render(w, r, http.StatusNotFound, protectedPage(v, notFoundItem, notFoundContent()))
	}))).ServeHTTP(w, r)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, loginPage(loginData{Action: s.Path("/login")}))
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, loginPage(loginData{
			Action:  s.Path("/login"),
			Message: "Solicitud no válida.",
		}))
		return
	}

	email := r.PostForm.Get("email")
	res := s.engine.Login(r.Context(), email, r.PostForm.Get("password"))
	if !res.Success {
		status := http.StatusUnauthorized
		msg := "Ingresa tu correo electrónico y contraseña."
		if !errors.Is(res.Err, aura.ErrInvalidCredentials) {
			status = http.StatusServiceUnavailable
			msg = "No se pudo iniciar sesión. Inténtalo de nuevo."
		}
		s.render(w, r, status, loginPage(loginData{
			Action:  s.Path("/login"),
			Email:   email,
			Message: msg,
		}))
		return
	}

	http.Redirect(w, r, s.Path("/"), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Logout(r.Context())
	if res.Err != nil {
		s.logger.WarnContext(r.Context(), "console.logout_erase_fail", slog.String("error", res.Err.Error()))
	}
	http.Redirect(w, r, s.Path("/login"), http.StatusSeeOther)
}
