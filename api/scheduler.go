/*
scheduler.go - Background deadline watcher

PURPOSE:
  Periodically re-checks every project's phase set against the date
  invariants and collects the soft warnings (phases past their deadline
  with hours still allocated). Mutations surface these warnings inline;
  the watcher catches the ones that appear simply because time passed.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Read-only: it never writes corrections, only reports
  - Keeps the latest run's findings in memory for UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the watcher is active (default: true)

USAGE:
  watcher := NewDeadlineWatcher(store, handler)
  watcher.Start()
  // ... later
  watcher.Stop()

SEE ALSO:
  - handlers.go: mutation-time warnings from the same synchronization
*/
package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/vault/forecast-engine/forecast"
)

// DeadlineFinding is one flagged project from a watcher run.
type DeadlineFinding struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Warnings    []string `json:"warnings"`
}

// DeadlineReport is the outcome of one watcher pass.
type DeadlineReport struct {
	RanAt    time.Time         `json:"ran_at"`
	Checked  int               `json:"checked"`
	Findings []DeadlineFinding `json:"findings,omitempty"`
}

// DeadlineWatcher re-evaluates date warnings on a timer.
type DeadlineWatcher struct {
	Store         forecast.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastRun *DeadlineReport
}

// NewDeadlineWatcher creates a watcher over the given store.
func NewDeadlineWatcher(store forecast.Store, handler *Handler) *DeadlineWatcher {
	return &DeadlineWatcher{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the watcher.
func (dw *DeadlineWatcher) Start() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.Enabled {
		log.Println("[Watcher] Disabled, not starting")
		return
	}

	dw.ticker = time.NewTicker(dw.CheckInterval)
	dw.wg.Add(1)
	go dw.run()

	log.Printf("[Watcher] Started with check interval: %v", dw.CheckInterval)
}

// Stop stops the watcher.
func (dw *DeadlineWatcher) Stop() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.ticker != nil {
		dw.ticker.Stop()
		close(dw.stop)
		dw.wg.Wait()
		log.Println("[Watcher] Stopped")
	}
}

func (dw *DeadlineWatcher) run() {
	defer dw.wg.Done()

	// Run immediately on start
	dw.check()

	for {
		select {
		case <-dw.ticker.C:
			dw.check()
		case <-dw.stop:
			return
		}
	}
}

func (dw *DeadlineWatcher) check() {
	ctx := context.Background()
	now := dw.Handler.Now()

	projects, err := dw.Store.ListProjects(ctx)
	if err != nil {
		log.Printf("[Watcher] Error listing projects: %v", err)
		return
	}

	report := &DeadlineReport{RanAt: time.Now().UTC(), Checked: len(projects)}
	for _, p := range projects {
		phases, err := dw.Store.ListPhases(ctx, p.ID)
		if err != nil {
			log.Printf("[Watcher] Error loading phases for %s: %v", p.ID, err)
			continue
		}

		res, err := forecast.SyncProjectPhaseDates(p, phases, forecast.ChangeProjectDates, now)
		if err != nil {
			// Stored state that no longer validates deserves a finding too.
			report.Findings = append(report.Findings, DeadlineFinding{
				ProjectID:   string(p.ID),
				ProjectName: p.Name,
				Warnings:    []string{err.Error()},
			})
			continue
		}
		if len(res.Warnings) > 0 {
			report.Findings = append(report.Findings, DeadlineFinding{
				ProjectID:   string(p.ID),
				ProjectName: p.Name,
				Warnings:    res.Warnings,
			})
		}
	}

	dw.mu.Lock()
	dw.lastRun = report
	dw.mu.Unlock()

	if len(report.Findings) > 0 {
		log.Printf("[Watcher] Completed: %d projects checked, %d flagged",
			report.Checked, len(report.Findings))
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (dw *DeadlineWatcher) RunNow() {
	dw.check()
}

// LastRun returns the most recent report, or nil before the first pass.
func (dw *DeadlineWatcher) LastRun() *DeadlineReport {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.lastRun
}

// ServeLastRun exposes the latest report for UI display.
func (dw *DeadlineWatcher) ServeLastRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dw.LastRun())
}
