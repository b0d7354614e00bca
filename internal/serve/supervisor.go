package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/docsmith-dev/docsmith/internal/build"
	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/errors"
	"github.com/docsmith-dev/docsmith/internal/watch"
)

// shutdownTimeout bounds the drain on graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Options configures the supervisor.
type Options struct {
	// Config is the project configuration.
	Config *config.Config

	// Builder overrides the default external-command builder.
	Builder SiteBuilder

	// OnReady is called once the listener is bound, with the
	// browsable URL. Used by the CLI to open the browser.
	OnReady func(url string)

	// Logger overrides the default logger.
	Logger *logrus.Logger
}

// Supervisor owns the process topology of the preview server: it
// derives the serving context once, runs the initial build, then runs
// the serving line and the watch-and-rebuild line concurrently for the
// rest of the process lifetime. The reload bus is the only state
// shared between the two lines.
type Supervisor struct {
	cfg     *config.Config
	builder SiteBuilder
	bus     *Bus
	metrics *Metrics
	reg     *prometheus.Registry
	onReady func(url string)
	logger  *logrus.Logger
	log     *logrus.Entry
}

// NewSupervisor creates a supervisor for the given project.
func NewSupervisor(opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	builder := opts.Builder
	if builder == nil {
		builder = build.New(opts.Config)
	}

	reg := prometheus.NewRegistry()

	return &Supervisor{
		cfg:     opts.Config,
		builder: builder,
		bus:     NewBus(),
		metrics: NewMetrics(reg),
		reg:     reg,
		onReady: opts.OnReady,
		logger:  logger,
		log:     logger.WithField("component", "serve"),
	}
}

// Run starts the preview server and blocks until the context is
// canceled or the serving line fails. Startup errors (address
// resolution, initial build) are returned before any server starts;
// faults on the serving line after startup are fatal to the process.
func (s *Supervisor) Run(ctx context.Context) error {
	sc, err := NewServingContext(s.cfg)
	if err != nil {
		return err
	}

	buildOpts := build.Options{
		LivereloadURL: sc.LivereloadURL(),
		SiteURL:       "/",
	}

	s.log.Info("building site")
	buildCtx, span := otel.Tracer("docsmith/serve").Start(ctx, "initial_build")
	result := s.builder.Build(buildCtx, buildOpts)
	span.End()
	if !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return errors.New("E101")
	}
	s.log.WithField("duration", result.Duration.Round(roundTo)).Info("built")

	livereload := newLiveReload(s.bus, s.metrics, s.log)
	router := newRouter(sc, livereload, s.metrics, s.log)

	srv := &http.Server{
		Addr:    sc.Addr.String(),
		Handler: s.fatalHook(router),
	}

	// The serving line runs on its own goroutine; the fatal hook and
	// the error channel make sure a fault there cannot go unnoticed
	// while the process appears to hang.
	errCh := make(chan error, 1)
	go func() {
		defer s.recoverToFatal("serving line")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.New("E202").Wrap(err)
			return
		}
		errCh <- nil
	}()

	s.log.WithField("url", sc.URL()).Info("serving")
	if s.onReady != nil {
		s.onReady(sc.URL())
	}

	if addr := s.cfg.Serve.MetricsAddr; addr != "" {
		go s.serveMetrics(addr)
	}

	// Watch-and-rebuild line: the watcher delivers change batches
	// serially, the trigger rebuilds synchronously and publishes on
	// success.
	trigger := NewTrigger(s.builder, s.bus, buildOpts, s.metrics, s.log)
	watcher := watch.New(watch.Config{
		Root:   s.cfg.SourcePath(),
		Ignore: append(append([]string{}, watch.DefaultIgnore...), s.cfg.Build.Ignore...),
	})
	watcher.OnChange(trigger.HandleChange)
	go func() {
		defer s.recoverToFatal("watch line")
		if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("watcher stopped")
		}
	}()
	defer watcher.Stop()

	select {
	case <-ctx.Done():
		s.shutdown(srv)
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}
}

// shutdown drains in-flight requests, then gives up after the timeout.
// Waiting livereload connections are closed without a notification.
func (s *Supervisor) shutdown(srv *http.Server) {
	s.log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
	}
}

// fatalHook converts an unrecovered handler fault into process
// termination with a non-zero status. A silently dead serving path is
// worse than a visible crash.
func (s *Supervisor) fatalHook(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverToFatal("request handler")
		next.ServeHTTP(w, r)
	})
}

func (s *Supervisor) recoverToFatal(where string) {
	if r := recover(); r != nil {
		// logrus.Fatalf exits with status 1 via the logger's ExitFunc.
		s.logger.Fatalf("unable to serve: panic in %s: %v", where, r)
	}
}

// serveMetrics exposes the Prometheus registry on its own listener so
// the preview route precedence stays untouched.
func (s *Supervisor) serveMetrics(addr string) {
	handler := promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	s.log.WithField("addr", addr).Info("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		s.log.WithError(errors.New("E203").Wrap(err)).Warn("metrics listener stopped")
	}
}
