// Package scheduler hosts the periodic pipeline run. A long-lived cron
// timer spawns each run as an isolated unit with its own failure domain:
// an error or panic in one run is logged and never stops future ticks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// OverlapPolicy decides what happens when a tick fires while the previous
// run is still in flight.
type OverlapPolicy string

const (
	// OverlapSkip drops the new tick. This is the default: the pipeline
	// writes to a single embedded database file and must never hold it
	// open from two runs at once.
	OverlapSkip OverlapPolicy = "skip"
	// OverlapAllow lets runs overlap.
	OverlapAllow OverlapPolicy = "allow"
)

// ParseOverlapPolicy maps a config string to an OverlapPolicy.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch OverlapPolicy(s) {
	case OverlapSkip, OverlapAllow:
		return OverlapPolicy(s), nil
	case "":
		return OverlapSkip, nil
	default:
		return "", fmt.Errorf("invalid overlap policy %q (want %q or %q)", s, OverlapSkip, OverlapAllow)
	}
}

// Status is a point-in-time snapshot of the scheduler, served by the
// status endpoint.
type Status struct {
	JobName       string     `json:"job_name"`
	Running       bool       `json:"running"`
	Runs          uint64     `json:"runs"`
	Failures      uint64     `json:"failures"`
	Skips         uint64     `json:"skips"`
	LastStart     *time.Time `json:"last_start,omitempty"`
	LastFinish    *time.Time `json:"last_finish,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	OverlapPolicy string     `json:"overlap_policy"`
}

// Scheduler drives a single named Job on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	policy OverlapPolicy

	name    string
	job     Job
	entryID cron.EntryID

	mu         sync.Mutex
	inFlight   int
	runs       uint64
	failures   uint64
	skips      uint64
	lastStart  time.Time
	lastFinish time.Time
	lastErr    error

	wg sync.WaitGroup

	baseCtx    context.Context
	cancelRuns context.CancelFunc
}

// New creates a Scheduler. The logger must not be nil.
func New(logger *slog.Logger, policy OverlapPolicy) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(),
		logger:     logger,
		policy:     policy,
		baseCtx:    ctx,
		cancelRuns: cancel,
	}
}

// Schedule registers the job under a standard 5-field cron spec. It must be
// called once, before Start.
func (s *Scheduler) Schedule(spec, name string, job Job) error {
	s.name = name
	s.job = job
	id, err := s.cron.AddFunc(spec, func() { s.tick() })
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// Start begins firing ticks. It returns immediately; the cron timer runs on
// its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		"job", s.name,
		"overlap_policy", string(s.policy),
		"next_run", s.cron.Entry(s.entryID).Next,
	)
}

// RunNow fires one tick immediately, outside the cron schedule. The
// overlap policy applies to it and Stop drains it like any scheduled run.
func (s *Scheduler) RunNow() {
	s.tick()
}

// Stop halts future ticks, cancels the in-flight run's context and waits
// for it to drain, up to the deadline of ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cron.Stop()
	s.cancelRuns()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped", "job", s.name)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Status returns a snapshot for diagnostics.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		JobName:       s.name,
		Running:       s.inFlight > 0,
		Runs:          s.runs,
		Failures:      s.failures,
		Skips:         s.skips,
		OverlapPolicy: string(s.policy),
	}
	if !s.lastStart.IsZero() {
		t := s.lastStart
		st.LastStart = &t
	}
	if !s.lastFinish.IsZero() {
		t := s.lastFinish
		st.LastFinish = &t
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		st.NextRun = &next
	}
	return st
}

// tick fires on the cron goroutine and hands the work to runOnce, applying
// the overlap policy first.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.inFlight > 0 && s.policy == OverlapSkip {
		s.skips++
		s.mu.Unlock()
		s.logger.Warn("previous run still in flight, skipping tick", "job", s.name)
		return
	}
	s.inFlight++
	s.lastStart = time.Now()
	s.runs++
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runOnce()
}

// runOnce executes the job in its own failure domain. A non-nil error or a
// panic is recorded and logged; the scheduler itself keeps going.
func (s *Scheduler) runOnce() {
	defer s.wg.Done()

	start := time.Now()
	s.logger.Info("run started", "job", s.name)

	err := s.invoke()

	s.mu.Lock()
	s.inFlight--
	s.lastFinish = time.Now()
	s.lastErr = err
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("run failed", "job", s.name, "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Info("run finished", "job", s.name, "duration", time.Since(start))
}

func (s *Scheduler) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.job(s.baseCtx)
}
