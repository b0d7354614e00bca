package serve

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/docsmith-dev/docsmith/internal/build"
	"github.com/docsmith-dev/docsmith/internal/watch"
)

// roundTo is the precision used when logging build durations.
const roundTo = time.Millisecond

// SiteBuilder is the narrow interface to the external build
// collaborator: render the full document set into the output directory.
type SiteBuilder interface {
	Build(ctx context.Context, opts build.Options) build.Result
}

// Trigger bridges the file watcher to the reload bus. It owns no shared
// mutable state beyond the bus producer handle and never touches client
// connections.
type Trigger struct {
	builder SiteBuilder
	bus     *Bus
	opts    build.Options
	metrics *Metrics
	log     *logrus.Entry
	tracer  trace.Tracer
}

// NewTrigger creates a rebuild trigger. The build options carry the
// livereload endpoint and are re-applied on every rebuild, because the
// external builder is not guaranteed to persist settings across builds.
func NewTrigger(builder SiteBuilder, bus *Bus, opts build.Options, metrics *Metrics, log *logrus.Entry) *Trigger {
	return &Trigger{
		builder: builder,
		bus:     bus,
		opts:    opts,
		metrics: metrics,
		log:     log,
		tracer:  otel.Tracer("docsmith/serve"),
	}
}

// HandleChange rebuilds the site for one batch of changed files and, on
// success, publishes a reload notification. Build failure is never
// fatal: the last-good output stays served and no reload is broadcast.
func (t *Trigger) HandleChange(cs watch.ChangeSet) {
	t.log.WithFields(logrus.Fields{
		"root":  cs.Root,
		"paths": cs.Paths,
	}).Info("files changed, rebuilding")

	ctx, span := t.tracer.Start(context.Background(), "rebuild",
		trace.WithAttributes(attribute.Int("changes", len(cs.Paths))))
	defer span.End()

	result := t.builder.Build(ctx, t.opts)
	span.SetAttributes(attribute.Float64("duration_seconds", result.Duration.Seconds()))

	if !result.Success {
		t.metrics.RebuildFailed()
		span.SetStatus(codes.Error, "build failed")
		if result.Error != nil {
			span.RecordError(result.Error)
		}
		t.log.WithError(result.Error).Error("rebuild failed, keeping previous output")
		return
	}

	t.metrics.RebuildSucceeded()
	span.SetStatus(codes.Ok, "")
	t.log.WithField("duration", result.Duration.Round(roundTo)).Info("rebuilt")

	t.bus.Publish()
	t.metrics.ReloadPublished()
}
