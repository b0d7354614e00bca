package build

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	stderrors "errors"

	"github.com/sirupsen/logrus"

	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/errors"
)

// DefaultCommand is the renderer invoked when build.command is unset.
const DefaultCommand = "docsmith-render"

// Options carry per-invocation settings the renderer cannot be assumed
// to remember between builds. The livereload URL in particular must be
// passed again on every rebuild.
type Options struct {
	// LivereloadURL is the websocket endpoint baked into rendered
	// pages. Empty for plain builds.
	LivereloadURL string

	// SiteURL overrides the rendered site-url. The preview server
	// sets "/" so the 404 document resolves assets correctly.
	SiteURL string
}

// Result contains the outcome of a build.
type Result struct {
	// Success indicates if the build succeeded.
	Success bool

	// Duration is how long the build took.
	Duration time.Duration

	// Output is the renderer's combined output.
	Output string

	// Error is the build error, if any.
	Error error
}

// Builder renders the document set into the output directory by
// invoking the configured external build command. Builds are
// idempotent: every invocation rebuilds the full output in place.
type Builder struct {
	cfg *config.Config
	log *logrus.Entry
}

// New creates a builder for the given project configuration.
func New(cfg *config.Config) *Builder {
	return &Builder{
		cfg: cfg,
		log: logrus.WithField("component", "build"),
	}
}

// Build runs the external build command once.
func (b *Builder) Build(ctx context.Context, opts Options) Result {
	start := time.Now()

	command := b.cfg.Build.Command
	if command == "" {
		command = DefaultCommand
	}

	cmd := exec.CommandContext(ctx, command, b.cfg.Build.Args...)
	cmd.Dir = b.cfg.Dir()

	env := os.Environ()
	env = append(env,
		"DOCSMITH_SOURCE="+b.cfg.SourcePath(),
		"DOCSMITH_OUTPUT="+b.cfg.OutputPath(),
	)
	if opts.LivereloadURL != "" {
		env = append(env, "DOCSMITH_LIVERELOAD_URL="+opts.LivereloadURL)
	}
	if opts.SiteURL != "" {
		env = append(env, "DOCSMITH_SITE_URL="+opts.SiteURL)
	}
	cmd.Env = env

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	b.log.WithField("command", command).Debug("running build")
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		code := "E101"
		if stderrors.Is(err, exec.ErrNotFound) {
			code = "E102"
		}
		return Result{
			Duration: duration,
			Output:   out.String(),
			Error:    errors.New(code).WithDetail("%s", out.String()).Wrap(err),
		}
	}

	if _, statErr := os.Stat(b.cfg.OutputPath()); statErr != nil {
		return Result{
			Duration: duration,
			Output:   out.String(),
			Error:    errors.New("E103").Wrap(statErr),
		}
	}

	return Result{
		Success:  true,
		Duration: duration,
		Output:   out.String(),
	}
}
