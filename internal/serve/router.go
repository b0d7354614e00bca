package serve

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// newRouter composes the preview routes in precedence order:
//
//  1. livereload upgrade and client script on the reserved paths
//  2. locale redirect for the site root (only when a locale is set)
//  3. static assets from the output directory
//  4. the configured 404 document for everything else
//
// The reserved routes are registered explicitly so no on-disk file of
// the same name can shadow them.
func newRouter(sc *ServingContext, livereload http.Handler, metrics *Metrics, log *logrus.Entry) chi.Router {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(requestLogger(log))

	notFound := &notFoundHandler{path: sc.NotFoundPath()}
	static := &staticHandler{root: sc.OutputDir, fallback: notFound}

	r.Get(LiveReloadPath, livereload.ServeHTTP)
	r.Get(ClientScriptPath, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Write([]byte(clientScript))
	})

	if sc.Locale != "" {
		// Absolute target: a relative redirect would break asset
		// resolution on localized sub-pages.
		index := "/" + sc.Locale + "/index.html"
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, index, http.StatusFound)
		})
	}

	r.Handle("/*", static)
	r.NotFound(static.ServeHTTP)

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Round(time.Microsecond),
			}).Debug("request")
		})
	}
}

// staticHandler serves files from the output directory verbatim and
// hands unmatched paths to the 404 fallback.
type staticHandler struct {
	root     string
	fallback http.Handler
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := staticRelPath(r.URL.Path)
	if !ok {
		h.fallback.ServeHTTP(w, r)
		return
	}

	full := filepath.Join(h.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		h.fallback.ServeHTTP(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		h.fallback.ServeHTTP(w, r)
		return
	}
	defer f.Close()

	// ServeContent supplies content-type inference and conditional
	// request handling (If-Modified-Since, Range).
	http.ServeContent(w, r, full, info.ModTime(), f)
}

// staticRelPath returns a sanitized output-relative path for a request.
// It rejects traversal and absolute-path tricks so static serving
// cannot escape the output directory. The root path maps to ".".
func staticRelPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "//etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away"
	// traversal attempts.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "" || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

// notFoundHandler serves the configured 404 document instead of the
// generic server default.
type notFoundHandler struct {
	path string
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := os.ReadFile(h.path)
	if err != nil {
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(body)
}
