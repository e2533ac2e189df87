// Package watch hosts periodic rebuilds. A Rebuilder fires the compile
// pipeline on a cron expression, consulting the build ledger first so cycles
// with unchanged sources cost one check instead of one run. There is no
// filesystem event mode; every cycle is a single non-preemptible unit.
package watch

import (
	"context"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/manifest"
)

// DefaultSchedule rebuilds once a minute.
const DefaultSchedule = "*/1 * * * *"

// Runner is the compile surface the rebuilder drives on each cycle.
type Runner interface {
	Run(sources []string) machinegen.Summary
}

// Rebuilder schedules a Runner over a fixed source list. Cycles never
// overlap; a cycle that outlives the schedule interval makes the next one
// skip.
type Rebuilder struct {
	runner   Runner
	sources  []string
	ledger   *manifest.Manager
	logger   machinegen.Logger
	schedule string
	location *time.Location

	mu      sync.Mutex
	cron    *rcron.Cron
	started bool
}

// New builds a rebuilder over runner and sources. When no ledger option is
// given and the runner exposes one, the rebuilder shares it, so skip checks
// see every commit the runner makes.
func New(runner Runner, sources []string, opts ...Option) *Rebuilder {
	r := &Rebuilder{
		runner:   runner,
		sources:  sources,
		schedule: DefaultSchedule,
		location: time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = machinegen.EnsureLogger(r.logger)
	if r.ledger == nil {
		if m, ok := runner.(interface{ Manifest() *manifest.Manager }); ok {
			r.ledger = m.Manifest()
		}
	}
	return r
}

// Start schedules the rebuild job and begins firing it. Calling Start on a
// running rebuilder is a no-op.
func (r *Rebuilder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	logger := cronLogger{logger: r.logger}
	c := rcron.New(
		rcron.WithLocation(r.location),
		rcron.WithChain(rcron.SkipIfStillRunning(logger), rcron.Recover(logger)),
		rcron.WithLogger(logger),
	)
	if _, err := c.AddFunc(r.schedule, r.Rebuild); err != nil {
		return machinegen.ScheduleError(r.schedule, err)
	}
	c.Start()

	r.cron = c
	r.started = true
	r.logger.Info("watch started schedule=%q sources=%d", r.schedule, len(r.sources))
	return nil
}

// Stop halts the schedule and waits for an in-flight cycle to finish, up to
// the context deadline.
func (r *Rebuilder) Stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.started = false
	r.mu.Unlock()
	if c == nil {
		return nil
	}

	drained := c.Stop()
	select {
	case <-drained.Done():
		r.logger.Info("watch stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rebuild executes one cycle synchronously: a ledger check, then a run when
// anything changed. The scheduler calls it on every tick; callers can invoke
// it directly for an immediate build.
func (r *Rebuilder) Rebuild() {
	if r.ledger != nil && len(r.sources) > 0 && r.ledger.IsUpToDate(r.sources) {
		r.logger.Debug("watch cycle skipped, sources unchanged count=%d", len(r.sources))
		return
	}
	sum := r.runner.Run(r.sources)
	r.logger.Info("watch cycle machines=%d files=%d errors=%d warnings=%d duration=%dms",
		sum.Stats.MachinesGenerated, sum.Stats.FilesCreated,
		len(sum.Errors), len(sum.Warnings), sum.Stats.DurationMs)
}

// cronLogger routes the scheduler's own chatter into the shared logger,
// wake-up notes at debug and recovered panics at error.
type cronLogger struct {
	logger machinegen.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	if len(kv) == 0 {
		l.logger.Debug("%s", msg)
		return
	}
	l.logger.Debug("%s %v", msg, kv)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	if len(kv) == 0 {
		l.logger.Error("%s: %v", msg, err)
		return
	}
	l.logger.Error("%s: %v %v", msg, err, kv)
}
