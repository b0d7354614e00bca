package serve

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docsmith-dev/docsmith/internal/build"
	"github.com/docsmith-dev/docsmith/internal/watch"
)

// scriptedBuilder returns canned results in order and records the
// options of every invocation.
type scriptedBuilder struct {
	results []build.Result
	calls   []build.Options
}

func (b *scriptedBuilder) Build(ctx context.Context, opts build.Options) build.Result {
	b.calls = append(b.calls, opts)
	if len(b.results) == 0 {
		return build.Result{Success: true}
	}
	r := b.results[0]
	b.results = b.results[1:]
	return r
}

func newTestTrigger(builder SiteBuilder, bus *Bus, opts build.Options) *Trigger {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewTrigger(builder, bus, opts, metrics, testLogEntry())
}

func TestTriggerPublishesOnSuccess(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	builder := &scriptedBuilder{results: []build.Result{{Success: true}}}
	trigger := newTestTrigger(builder, bus, build.Options{})

	trigger.HandleChange(watch.ChangeSet{Root: "docs", Paths: []string{"docs/intro.md"}})

	if err := receiveWithTimeout(t, sub, time.Second); err != nil {
		t.Fatalf("Receive = %v, want a reload after a successful rebuild", err)
	}
}

func TestTriggerSuppressesPublishOnFailure(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	builder := &scriptedBuilder{results: []build.Result{
		{Success: false, Error: context.DeadlineExceeded},
		{Success: true},
	}}
	trigger := newTestTrigger(builder, bus, build.Options{})

	trigger.HandleChange(watch.ChangeSet{Paths: []string{"docs/broken.md"}})
	if err := receiveWithTimeout(t, sub, 100*time.Millisecond); err != context.DeadlineExceeded {
		t.Fatalf("Receive = %v, want no reload after a failed rebuild", err)
	}

	// The next successful rebuild unblocks waiting clients.
	trigger.HandleChange(watch.ChangeSet{Paths: []string{"docs/broken.md"}})
	if err := receiveWithTimeout(t, sub, time.Second); err != nil {
		t.Fatalf("Receive = %v, want a reload after recovery", err)
	}
}

func TestTriggerReappliesOptionsEveryBuild(t *testing.T) {
	bus := NewBus()
	opts := build.Options{
		LivereloadURL: "ws://localhost:3000/__livereload",
		SiteURL:       "/",
	}
	builder := &scriptedBuilder{}
	trigger := newTestTrigger(builder, bus, opts)

	trigger.HandleChange(watch.ChangeSet{Paths: []string{"a.md"}})
	trigger.HandleChange(watch.ChangeSet{Paths: []string{"b.md"}})

	if len(builder.calls) != 2 {
		t.Fatalf("builds = %d, want 2", len(builder.calls))
	}
	for i, got := range builder.calls {
		if got != opts {
			t.Errorf("build %d options = %+v, want %+v", i, got, opts)
		}
	}
}

func TestTriggerPublishesOncePerChange(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	builder := &scriptedBuilder{}
	trigger := newTestTrigger(builder, bus, build.Options{})

	trigger.HandleChange(watch.ChangeSet{Paths: []string{"a.md"}})

	if err := receiveWithTimeout(t, sub, time.Second); err != nil {
		t.Fatalf("first Receive = %v, want nil", err)
	}
	if err := receiveWithTimeout(t, sub, 100*time.Millisecond); err != context.DeadlineExceeded {
		t.Fatalf("second Receive = %v, want deadline: one publish per change", err)
	}
}
