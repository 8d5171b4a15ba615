package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/fixtureverify/internal/config"
	"github.com/rewired-gh/fixtureverify/internal/engine"
	"github.com/rewired-gh/fixtureverify/internal/evidence"
	"github.com/rewired-gh/fixtureverify/internal/hints"
	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/metrics"
	"github.com/rewired-gh/fixtureverify/internal/models"
	"github.com/rewired-gh/fixtureverify/internal/storage"
	"github.com/rewired-gh/fixtureverify/internal/telegram"
	"github.com/rewired-gh/fixtureverify/internal/verify"
	"github.com/rewired-gh/fixtureverify/internal/websearch"
)

// reporter delivers the end-of-run report.
type reporter interface {
	SendReport(r telegram.Report) error
}

// runner owns everything that outlives a single verification run.
type runner struct {
	cfg        *config.Config
	store      *storage.Store
	history    storage.HistoryStore
	reporter   reporter
	metrics    *metrics.Recorder
	scoreboard *evidence.ScoreboardClient
	search     verify.SearchFunc
	sports     *engine.SportDetector
	newID      func() string
	now        func() time.Time
}

func newRunner(cfg *config.Config, history storage.HistoryStore, tg *telegram.Client) *runner {
	r := &runner{
		cfg:     cfg,
		store:   storage.New(cfg.Storage.GroupsDir, cfg.Storage.FilePermissions, cfg.Storage.DirPermissions),
		history: history,
		sports:  engine.NewSportDetector(cfg.Verify.SportKeywords),
		newID:   uuid.NewString,
		now:     time.Now,
	}

	// Assigning a nil *telegram.Client would make a non-nil interface
	if tg != nil {
		r.reporter = tg
	}

	if cfg.Metrics.Enabled {
		r.metrics = metrics.NewRecorder()
	}

	if cfg.Evidence.Scoreboard.Enabled {
		sb := cfg.Evidence.Scoreboard
		r.scoreboard = evidence.NewScoreboardClient(sb.BaseURL, sb.Sports, sb.Timeout, sb.MaxRetries, sb.RetryDelayBase)
	}

	if cfg.Verify.WebSearchEnabled {
		ws := cfg.WebSearch
		r.search = websearch.NewClient(ws.BaseURL, ws.APIKey, ws.Timeout, ws.RequestsPerSecond).Search
	}

	return r
}

// run performs one verification pass over every group. Per-group failures
// are logged and skipped; the returned error covers only failures that leave
// the run's outputs incomplete (no readable groups, history or report writes).
func (r *runner) run(parent context.Context, started time.Time) error {
	startTime := r.now()
	runID := r.newID()
	logger.Info("Starting verification run %s", runID)

	ctx, cancel := context.WithTimeout(parent, r.cfg.Verify.Deadline)
	defer cancel()

	// Outputs are written even after the deadline so a partial run still lands
	saveCtx := context.WithoutCancel(parent)

	bundle := r.loadEvidence(ctx)

	hist, err := r.history.Load(saveCtx)
	if err != nil {
		logger.Warn("History unreadable, starting from empty history: %v", err)
	}
	logger.Debug("Loaded history with %d runs", len(hist.Runs))

	groups, loadErrs := r.store.LoadGroups()
	for _, err := range loadErrs {
		logger.Warn("Skipping group: %v", err)
	}
	if len(groups) == 0 && len(loadErrs) > 0 {
		return fmt.Errorf("no group could be loaded: %w", errors.Join(loadErrs...))
	}
	logger.Info("Loaded %d groups (%d live sports, %d headlines, %d sport data files)",
		len(groups), len(bundle.Live), len(bundle.Headlines), len(bundle.SportData))

	var observer engine.Observer
	if r.metrics != nil {
		observer = r.metrics
	}
	eng := engine.New(engine.Evidence{
		Live:      bundle.Live,
		Headlines: bundle.Headlines,
		SportData: bundle.SportData,
	}, engine.Options{
		WebSearchEnabled: r.cfg.Verify.WebSearchEnabled,
		Search:           r.search,
		SearchBudget:     r.cfg.Verify.WebSearchBudget,
		Sports:           r.sports,
		Observer:         observer,
		Now:              r.now,
	})

	opts := engine.ProcessOptions{
		RunID:              runID,
		ApplyCorrections:   r.cfg.Verify.ApplyCorrections,
		NeedsResearchRatio: r.cfg.Verify.NeedsResearchRatio,
	}

	var outcomes []engine.GroupOutcome
	var issues []models.Issue
	partial := false
	for i := range groups {
		if ctx.Err() != nil {
			partial = true
			logger.Warn("Run deadline reached, %d of %d groups not checked", len(groups)-i, len(groups))
			break
		}

		gf := &groups[i]
		outcome := eng.ProcessGroup(ctx, &gf.Group, opts)
		if err := r.store.SaveGroup(gf); err != nil {
			logger.Error("%v", engine.GroupError{FileID: gf.Group.FileID, Err: err})
		}
		if r.metrics != nil {
			r.metrics.ObserveGroup(outcome.Summary())
		}
		outcomes = append(outcomes, outcome)
		issues = append(issues, outcome.Issues...)
	}

	run := engine.NewRun(runID, started, outcomes, partial)
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	var errs []error
	hist = hist.Append(run, r.cfg.Storage.HistoryMaxRuns)
	if err := r.history.Save(saveCtx, hist); err != nil {
		errs = append(errs, fmt.Errorf("failed to save history: %w", err))
	}

	hs := hints.Build(hist)
	now := r.now()
	if r.cfg.Storage.HintsPath != "" {
		if err := r.store.WriteHints(r.cfg.Storage.HintsPath, hs, now); err != nil {
			errs = append(errs, fmt.Errorf("failed to write hints: %w", err))
		}
	}
	if r.cfg.Storage.IssuesPath != "" {
		if err := r.store.WriteIssues(r.cfg.Storage.IssuesPath, runID, issues, now); err != nil {
			errs = append(errs, fmt.Errorf("failed to write issues: %w", err))
		}
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(run, eng.SearchesUsed(), time.Since(startTime))
		path := r.cfg.Metrics.TextfilePath
		if err := os.MkdirAll(filepath.Dir(path), r.cfg.Storage.DirPermissions); err != nil {
			logger.Warn("Failed to create metrics directory: %v", err)
		} else if err := r.metrics.WriteTextfile(path); err != nil {
			logger.Warn("%v", err)
		}
	}

	if r.reporter != nil {
		if err := r.reporter.SendReport(telegram.NewReport(run, outcomes, hs)); err != nil {
			logger.Error("Failed to send Telegram report: %v", err)
		} else {
			logger.Debug("Sent Telegram report for run %s", runID)
		}
	}

	proposed, applied := 0, 0
	for _, s := range run.Results {
		proposed += s.CorrectionsProposed
		applied += s.CorrectionsApplied
	}
	logger.Info("Run %s completed in %v: %d groups, %d events, %d corrections proposed, %d applied, %d issues, %d hints, %d web searches (partial: %v)",
		runID, time.Since(startTime), run.ConfigsChecked, run.EventsChecked, proposed, applied,
		len(issues), len(hs), eng.SearchesUsed(), partial)

	return errors.Join(errs...)
}

// loadEvidence reads the evidence files and, when configured, overlays fresh
// scoreboard listings.
func (r *runner) loadEvidence(ctx context.Context) *evidence.Bundle {
	bundle, errs := evidence.Load(evidence.Paths{
		LiveEventsFile: r.cfg.Evidence.LiveEventsFile,
		RSSFile:        r.cfg.Evidence.RSSFile,
		SportDataDir:   r.cfg.Evidence.SportDataDir,
	})
	for _, err := range errs {
		logger.Warn("Evidence unavailable: %v", err)
	}

	if r.scoreboard != nil {
		live, failed := r.scoreboard.FetchLiveEvents(ctx)
		bundle.MergeLive(live)
		if len(failed) > 0 {
			logger.Warn("Scoreboard fetch failed for %d of %d sports", len(failed), len(failed)+len(live))
		}
	}
	return bundle
}
