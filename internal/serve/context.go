package serve

import (
	"net"
	"path/filepath"

	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/errors"
)

// ServingContext is the immutable startup-derived bundle the server
// runtime works from: concrete bind address, output directory, optional
// locale, and the 404 document target. It is never mutated after the
// server starts; rebuilds render into the same output directory.
type ServingContext struct {
	// Addr is the resolved network address to bind.
	Addr *net.TCPAddr

	// Address is the original host:port string, kept for URLs.
	Address string

	// OutputDir is the absolute path of the build output directory.
	OutputDir string

	// Locale is the configured language tag, or "" when the site is
	// not localized.
	Locale string

	// NotFoundRel is the 404 document path relative to the
	// locale-specific output directory.
	NotFoundRel string
}

// NewServingContext derives the serving context from the project
// configuration. The host:port string is resolved once; resolution
// failure is a startup error.
func NewServingContext(cfg *config.Config) (*ServingContext, error) {
	address := cfg.Address()

	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, errors.New("E201").
			WithDetail("no address found for %q", address).
			Wrap(err)
	}

	return &ServingContext{
		Addr:        addr,
		Address:     address,
		OutputDir:   cfg.OutputPath(),
		Locale:      cfg.Language,
		NotFoundRel: cfg.NotFoundPage,
	}, nil
}

// NotFoundPath returns the on-disk path of the 404 document:
// {output}[/{locale}]/{notFoundRel}.
func (sc *ServingContext) NotFoundPath() string {
	if sc.Locale != "" {
		return filepath.Join(sc.OutputDir, sc.Locale, sc.NotFoundRel)
	}
	return filepath.Join(sc.OutputDir, sc.NotFoundRel)
}

// URL returns the browsable server URL.
func (sc *ServingContext) URL() string {
	return "http://" + sc.Address
}

// LivereloadURL returns the websocket endpoint URL baked into rendered
// pages.
func (sc *ServingContext) LivereloadURL() string {
	return "ws://" + sc.Address + LiveReloadPath
}
