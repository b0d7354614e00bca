package serve

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func testLogEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// newSite writes files (relative path -> content) into a fresh output
// directory and returns its path.
func newSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestRouter(t *testing.T, sc *ServingContext) (http.Handler, *Bus) {
	t.Helper()
	bus := NewBus()
	metrics := NewMetrics(prometheus.NewRegistry())
	log := testLogEntry()
	lr := newLiveReload(bus, metrics, log)
	return newRouter(sc, lr, metrics, log), bus
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesStaticFiles(t *testing.T) {
	dir := newSite(t, map[string]string{
		"index.html":      "<h1>Home</h1>",
		"css/style.css":   "body { margin: 0 }",
		"guide/ch01.html": "<h1>Chapter 1</h1>",
		"404.html":        "custom not found",
	})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, "/css/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "body { margin: 0 }" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = get(t, router, "/guide/ch01.html")
	if rec.Code != http.StatusOK {
		t.Errorf("nested file status = %d, want 200", rec.Code)
	}
}

func TestRouterRootServesIndexWithoutLocale(t *testing.T) {
	dir := newSite(t, map[string]string{
		"index.html": "<h1>Home</h1>",
		"404.html":   "nope",
	})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "<h1>Home</h1>" {
		t.Errorf("body = %q", got)
	}
}

func TestRouterLocaleRedirect(t *testing.T) {
	dir := newSite(t, map[string]string{
		"en/index.html": "<h1>English</h1>",
		"en/404.html":   "not found",
	})
	sc := &ServingContext{OutputDir: dir, Locale: "en", NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/en/index.html" {
		t.Errorf("Location = %q, want /en/index.html", loc)
	}

	// Localized sub-pages are still plain static assets.
	rec = get(t, router, "/en/index.html")
	if rec.Code != http.StatusOK {
		t.Errorf("localized page status = %d, want 200", rec.Code)
	}
}

func TestRouterNotFoundFallback(t *testing.T) {
	dir := newSite(t, map[string]string{
		"index.html": "home",
		"404.html":   "<h1>custom not found</h1>",
	})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, "/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Body.String(); got != "<h1>custom not found</h1>" {
		t.Errorf("body = %q, want the configured 404 document", got)
	}
}

func TestRouterNotFoundFallbackUsesLocaleDir(t *testing.T) {
	dir := newSite(t, map[string]string{
		"en/index.html": "home",
		"en/404.html":   "english not found",
	})
	sc := &ServingContext{OutputDir: dir, Locale: "en", NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, "/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Body.String(); got != "english not found" {
		t.Errorf("body = %q", got)
	}
}

func TestRouterLiveReloadPathNeverShadowedByFile(t *testing.T) {
	// A file named like the reserved endpoint must not be served.
	dir := newSite(t, map[string]string{
		LiveReloadEndpoint: "should never be served",
		"404.html":         "nope",
	})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, LiveReloadPath)
	if rec.Code == http.StatusOK {
		t.Fatalf("reserved path served a static file (status 200)")
	}
	if rec.Body.String() == "should never be served" {
		t.Fatal("reserved path resolved to the on-disk file")
	}
}

func TestRouterServesClientScript(t *testing.T) {
	dir := newSite(t, map[string]string{"404.html": "nope"})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	rec := get(t, router, ClientScriptPath)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "WebSocket") {
		t.Errorf("body does not look like the reload client: %q", body)
	}
}

func TestRouterConditionalRequests(t *testing.T) {
	dir := newSite(t, map[string]string{
		"index.html": "home",
		"404.html":   "nope",
	})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	req.Header.Set("If-Modified-Since", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
}

func TestRouterRejectsNonGet(t *testing.T) {
	dir := newSite(t, map[string]string{"404.html": "nope"})
	sc := &ServingContext{OutputDir: dir, NotFoundRel: "404.html"}
	router, _ := newTestRouter(t, sc)

	req := httptest.NewRequest(http.MethodPost, "/index.html", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStaticRelPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/", ".", true},
		{"/index.html", "index.html", true},
		{"/guide/ch01.html", "guide/ch01.html", true},
		{"/../etc/passwd", "", false},
		{"/a/../../etc/passwd", "", false},
		{"//etc/passwd", "", false},
		{"/a\\b", "", false},
		{"/a/./b", "", false},
		{"/\x00", "", false},
	}

	for _, tt := range tests {
		got, ok := staticRelPath(tt.path)
		if ok != tt.ok {
			t.Errorf("staticRelPath(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("staticRelPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
