//go:generate options-setters -input ./options.go -output ./options_setters.go
package pipeline

import (
	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/emit"
	"github.com/goliatone/go-machinegen/manifest"
)

type Option func(*Pipeline)

func WithRegistry(r *emit.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

func WithWriter(w machinegen.FileWriter) Option {
	return func(p *Pipeline) {
		p.writer = w
	}
}

func WithLogger(l machinegen.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithManifest overrides the ledger loaded from cfg.ManifestPath.
func WithManifest(m *manifest.Manager) Option {
	return func(p *Pipeline) {
		p.ledger = m
	}
}
