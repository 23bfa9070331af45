// Package scheduler runs the periodic sweeps: completing confirmed
// interviews whose slot has passed and pruning stale push tokens.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// InterviewCompleter moves elapsed confirmed interviews to completed.
type InterviewCompleter interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

// TokenPruner deletes push tokens unused for longer than maxAge.
type TokenPruner interface {
	PruneStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Config holds the cron specs, e.g. "@every 15m".
type Config struct {
	InterviewSweep string
	TokenPrune     string
	TokenMaxAge    time.Duration
}

// Scheduler wraps robfig/cron and manages the sweep jobs.
type Scheduler struct {
	cron       *cron.Cron
	interviews InterviewCompleter
	tokens     TokenPruner
	cfg        Config
	log        logger.Logger
	now        func() time.Time

	wg sync.WaitGroup
}

// New creates a Scheduler. Jobs never overlap with themselves.
func New(interviews InterviewCompleter, tokens TokenPruner, cfg Config, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		interviews: interviews,
		tokens:     tokens,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Start registers the jobs and starts the scheduler. Both sweeps also run
// once immediately so a restart does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.InterviewSweep, func() { s.SweepInterviews(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc interview sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.TokenPrune, func() { s.PruneTokens(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc token prune: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", map[string]interface{}{
		"interviewSweep": s.cfg.InterviewSweep, "tokenPrune": s.cfg.TokenPrune,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.SweepInterviews(ctx)
		s.PruneTokens(ctx)
	}()
	return nil
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped", nil)
}

// SweepInterviews completes confirmed interviews whose slot has passed.
func (s *Scheduler) SweepInterviews(ctx context.Context) {
	n, err := s.interviews.CompleteElapsed(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("interview sweep failed", map[string]interface{}{"error": err, "completed": n})
		return
	}
	if n > 0 {
		s.log.Info("interviews completed", map[string]interface{}{"count": n})
	}
}

// PruneTokens deletes push tokens older than the configured age.
func (s *Scheduler) PruneTokens(ctx context.Context) {
	n, err := s.tokens.PruneStale(ctx, s.cfg.TokenMaxAge)
	if err != nil {
		s.log.Error("token prune failed", map[string]interface{}{"error": err})
		return
	}
	if n > 0 {
		s.log.Info("stale push tokens pruned", map[string]interface{}{"count": n})
	}
}
