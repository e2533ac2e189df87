//go:generate options-setters -input ./options.go -output ./options_setters.go
package watch

import (
	"time"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/manifest"
)

type Option func(*Rebuilder)

// WithSchedule sets the cron expression. An empty expression keeps the
// default.
func WithSchedule(expression string) Option {
	return func(r *Rebuilder) {
		if expression != "" {
			r.schedule = expression
		}
	}
}

func WithLedger(m *manifest.Manager) Option {
	return func(r *Rebuilder) {
		r.ledger = m
	}
}

func WithLogger(logger machinegen.Logger) Option {
	return func(r *Rebuilder) {
		r.logger = logger
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Rebuilder) {
		if loc != nil {
			r.location = loc
		}
	}
}
