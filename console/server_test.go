package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/storage"
	"github.com/MrEthical07/aura/storage/memory"
	"github.com/coder/websocket"
)

func newTestEngine(t *testing.T, kv storage.KV) *aura.Engine {
	t.Helper()
	if kv == nil {
		kv = memory.New()
	}
	cfg := aura.DefaultConfig()
	cfg.Session.LoginDelay = 0
	engine, err := aura.New().WithConfig(cfg).WithStorage(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestProtectedPagePlaceholderWhileLoading(t *testing.T) {
	engine := newTestEngine(t, nil)
	srv := New(engine, Options{})

	rr := do(t, srv, http.MethodGet, "/dashboard", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Cargando") {
		t.Fatalf("expected loading view, got %s", body)
	}
	if strings.Contains(body, "Cerrar Sesión") || strings.Contains(body, "Panel de Control") {
		t.Fatal("placeholder must not render protected content")
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	for _, path := range []string{"/", "/dashboard", "/users", "/profile", "/no-such-page"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %q", path, loc)
		}
	}

	rr := do(t, srv, http.MethodPost, "/logout", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for unauthenticated logout, got %d", rr.Code)
	}
}

func TestLoginPageRenders(t *testing.T) {
	engine := newTestEngine(t, nil)
	srv := New(engine, Options{})

	rr := do(t, srv, http.MethodGet, "/login", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`action="/login"`, `name="email"`, `name="password"`, "Iniciar Sesión", "Demo:"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in login page", want)
		}
	}
}

func TestLoginBrowseLogoutFlow(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	rr := do(t, srv, http.MethodPost, "/login", credentials("a@b.edu", "x"))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home after login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if !engine.IsAuthenticated() {
		t.Fatal("expected engine to be authenticated")
	}

	rr = do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on home, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Bienvenido a AURA", "John Doe", "Administrator", "University of Technology", "Cerrar Sesión", `action="/logout"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in home page", want)
		}
	}
	for _, item := range navItems {
		if !strings.Contains(body, `href="`+item.Path+`"`) {
			t.Fatalf("expected nav link to %s", item.Path)
		}
	}

	rr = do(t, srv, http.MethodGet, "/profile", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "a@b.edu") {
		t.Fatalf("expected profile with email, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/no-such-page", nil)
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "Página no encontrada") {
		t.Fatalf("expected 404 inside the shell, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/logout", nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login after logout, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected engine to be signed out")
	}

	rr = do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", rr.Code)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	rr := do(t, srv, http.MethodPost, "/login", credentials("  ", "x"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `role="alert"`) {
		t.Fatal("expected error message in login page")
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected no session after rejected login")
	}
}

type unavailableKV struct {
	*memory.Store
}

func (unavailableKV) Set(context.Context, string, []byte) error {
	return storage.ErrUnavailable
}

func TestLoginPersistFailureKeepsSignedOut(t *testing.T) {
	engine := newTestEngine(t, unavailableKV{memory.New()})
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	rr := do(t, srv, http.MethodPost, "/login", credentials("a@b.edu", "x"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `value="a@b.edu"`) {
		t.Fatal("expected email to be kept in the form")
	}
	if engine.IsAuthenticated() {
		t.Fatal("expected no session after persist failure")
	}
}

func TestPagesEscapeIdentity(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	do(t, srv, http.MethodPost, "/login", credentials("<script>@b.edu", "x"))

	rr := do(t, srv, http.MethodGet, "/profile", nil)
	body := rr.Body.String()
	if strings.Contains(body, "<script>") {
		t.Fatal("identity must be escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;@b.edu") {
		t.Fatalf("expected escaped email in profile, got %s", body)
	}
}

func TestBasePath(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{BasePath: "Aura-Page-test/"})

	rr := do(t, srv, http.MethodGet, "/Aura-Page-test/dashboard", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/Aura-Page-test/login" {
		t.Fatalf("expected redirect to prefixed login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/Aura-Page-test", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/Aura-Page-test/" {
		t.Fatalf("expected redirect to base root, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/dashboard", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside base path, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/Aura-Page-test/login", credentials("a@b.edu", "x"))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/Aura-Page-test/" {
		t.Fatalf("expected redirect to prefixed home, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/Aura-Page-test/", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `href="/Aura-Page-test/dashboard"`) {
		t.Fatalf("expected prefixed nav links, got %d", rr.Code)
	}
}

func TestRedirectSignedIn(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	engine.Login(context.Background(), "a@b.edu", "x")

	rr := do(t, New(engine, Options{}), http.MethodGet, "/login", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login page by default, got %d", rr.Code)
	}

	rr = do(t, New(engine, Options{RedirectSignedIn: true}), http.MethodGet, "/login", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestHealthAndReadiness(t *testing.T) {
	engine := newTestEngine(t, nil)
	srv := New(engine, Options{})

	if rr := do(t, srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readyz 503 before restore, got %d", rr.Code)
	}

	engine.Initialize(context.Background())
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected readyz 200 after restore, got %d", rr.Code)
	}
}

func TestReadinessFailsWhenStorageCloses(t *testing.T) {
	kv := memory.New()
	engine := newTestEngine(t, kv)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	_ = kv.Close()
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readyz 503 with closed storage, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	srv := New(engine, Options{})

	do(t, srv, http.MethodGet, "/dashboard", nil)

	rr := do(t, srv, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "aura_guard_redirect_total 1") {
		t.Fatalf("expected guard redirect counter, got:\n%s", rr.Body.String())
	}
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, want FeedMessage) {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("feed read failed waiting for %+v: %v", want, err)
		}
		var got FeedMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("bad feed frame %q: %v", data, err)
		}
		if got == want {
			return
		}
	}
}

func TestSessionFeed(t *testing.T) {
	engine := newTestEngine(t, nil)
	ts := httptest.NewServer(New(engine, Options{}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/session/events", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	readUntil(t, ctx, conn, FeedMessage{Loading: true})

	engine.Initialize(context.Background())
	readUntil(t, ctx, conn, FeedMessage{})

	engine.Login(context.Background(), "a@b.edu", "x")
	readUntil(t, ctx, conn, FeedMessage{Authenticated: true})

	engine.Logout(context.Background())
	readUntil(t, ctx, conn, FeedMessage{})
}

func TestSessionFeedClosesWithEngine(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.Initialize(context.Background())
	ts := httptest.NewServer(New(engine, Options{}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/session/events", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	readUntil(t, ctx, conn, FeedMessage{})
	engine.Close()

	for {
		_, _, err := conn.Read(ctx)
		if err == nil {
			continue
		}
		if websocket.CloseStatus(err) != websocket.StatusGoingAway {
			t.Fatalf("expected going-away close, got %v", err)
		}
		return
	}
}

func TestNewPanicsWithoutEngine(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, aura.ErrSessionNotProvisioned) {
			t.Fatalf("expected ErrSessionNotProvisioned panic, got %v", r)
		}
	}()
	New(nil, Options{})
}
