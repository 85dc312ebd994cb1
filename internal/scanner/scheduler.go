package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/illi4/asx-screener/pkg/logger"
)

// Scheduler runs scans on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	scanner *Scanner
	ctx     context.Context
}

// NewScheduler creates a scheduler evaluating spec (with a seconds field) in loc
func NewScheduler(ctx context.Context, s *Scanner, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	sch := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		scanner: s,
		ctx:     ctx,
	}
	if _, err := sch.cron.AddFunc(spec, sch.RunNow); err != nil {
		return nil, fmt.Errorf("register scan %q: %w", spec, err)
	}
	return sch, nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// Next returns the time of the next scheduled scan
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow runs a scan of the latest data immediately
func (s *Scheduler) RunNow() {
	_, err := s.scanner.Scan(s.ctx, time.Time{})
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		logger.Warn("Skipping scheduled scan, previous run still in progress")
	case err != nil:
		logger.Error("Scheduled scan failed", logger.ErrorField(err))
	}
}
