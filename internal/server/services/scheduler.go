package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/logging"
	sc "github.com/dmitrijs2005/sharedtodo/internal/server/config"
	"github.com/dmitrijs2005/sharedtodo/internal/server/recurrence"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// ResetReport summarizes one ScanAndReset pass over a space.
type ResetReport struct {
	SpaceID    string `json:"spaceId"`
	Candidates int    `json:"candidates"`
	Reset      int    `json:"reset"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// Add folds o into r.
func (r *ResetReport) Add(o ResetReport) {
	r.Candidates += o.Candidates
	r.Reset += o.Reset
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// Scheduler archives and clears completed recurring items whose reset time
// has passed.
type Scheduler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	location    *time.Location
	concurrency int
	now         func() time.Time
}

func NewScheduler(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *Scheduler {
	concurrency := config.ScanConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		db:          db,
		repomanager: repomanager,
		logger:      logger.With("module", "scheduler"),
		location:    config.Location(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ScanAndReset resets every due item of spaceID. Each candidate is reset in
// its own transaction and re-checked under its row lock, so concurrent or
// repeated passes never reset an item twice. A failing candidate is logged
// and counted; it never stops the scan. Only the candidate query itself can
// make ScanAndReset fail.
func (s *Scheduler) ScanAndReset(ctx context.Context, spaceID string) (ResetReport, error) {
	now := s.now().In(s.location)
	report := ResetReport{SpaceID: spaceID}

	candidates, err := s.repomanager.Items(s.db).ListDueForReset(ctx, spaceID, now)
	if err != nil {
		return report, storeError("scan for reset", err)
	}
	report.Candidates = len(candidates)

	for _, c := range candidates {
		reset, err := s.resetOne(ctx, c.ID, now)
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error(ctx, "reset failed", "item_id", c.ID, "space_id", spaceID, "error", err)
		case reset:
			report.Reset++
		default:
			report.Skipped++
		}
	}

	if report.Candidates > 0 {
		s.logger.Info(ctx, "space scanned", "space_id", spaceID,
			"candidates", report.Candidates, "reset", report.Reset, "skipped", report.Skipped, "failed", report.Failed)
	}
	return report, nil
}

func (s *Scheduler) resetOne(ctx context.Context, itemID string, now time.Time) (bool, error) {
	var reset bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		reset = false
		repo := s.repomanager.Items(tx)

		item, err := repo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if !recurrence.ApplyReset(item, now) {
			return nil
		}
		if err := repo.Save(ctx, item); err != nil {
			return err
		}
		reset = true
		return nil
	})
	return reset, err
}

// ScanAll runs ScanAndReset for every space holding due items, at most
// concurrency spaces at a time, and returns the combined report.
func (s *Scheduler) ScanAll(ctx context.Context) (ResetReport, error) {
	var total ResetReport

	spaces, err := s.repomanager.Items(s.db).ListSpacesDueForReset(ctx, s.now().In(s.location))
	if err != nil {
		return total, storeError("list spaces due for reset", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, spaceID := range spaces {
		g.Go(func() error {
			r, err := s.ScanAndReset(gctx, spaceID)
			if err != nil {
				s.logger.Error(gctx, "space scan failed", "space_id", spaceID, "error", err)
			}
			mu.Lock()
			total.Add(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return total, nil
}

// Run calls ScanAll once immediately and then every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.ScanAll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "reset job failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "reset job stopped")
			return
		case <-ticker.C:
		}
	}
}
