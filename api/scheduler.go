/*
scheduler.go - Periodic balance verification

PURPOSE:
  Replays the journal of every balance row on an interval and logs rows
  whose Total/Used/Remaining disagree with the journal. This catches
  out-of-band edits to the database between requests.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Keeps the outcome of the last run for inspection

CONFIGURATION:
  - CheckInterval: How often to verify (LEAVE_VERIFY_INTERVAL)
  - Enabled: false when the interval is zero

USAGE:
  scheduler := NewVerificationScheduler(svc, time.Hour, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: VerifyBalances endpoint (manual verification)
  - leave/balance.go: BalanceLedger.Verify
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Verifier is the part of leave.Service the scheduler needs.
type Verifier interface {
	VerifyBalances(ctx context.Context, employeeID string) error
}

// VerificationRun is the outcome of one scheduled verification.
type VerificationRun struct {
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// VerificationScheduler runs balance verification in the background.
type VerificationScheduler struct {
	Verifier      Verifier
	CheckInterval time.Duration
	Enabled       bool

	logger  *zap.Logger
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun *VerificationRun
}

// NewVerificationScheduler creates a new scheduler. A non-positive interval
// disables it.
func NewVerificationScheduler(v Verifier, interval time.Duration, logger *zap.Logger) *VerificationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationScheduler{
		Verifier:      v,
		CheckInterval: interval,
		Enabled:       interval > 0,
		logger:        logger.Named("scheduler"),
	}
}

// Start begins the scheduler.
func (vs *VerificationScheduler) Start() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if !vs.Enabled {
		vs.logger.Info("disabled, not starting")
		return
	}
	if vs.ticker != nil {
		return
	}

	vs.ticker = time.NewTicker(vs.CheckInterval)
	vs.stop = make(chan struct{})
	vs.wg.Add(1)

	go vs.run(vs.ticker, vs.stop)

	vs.logger.Info("started", zap.Duration("interval", vs.CheckInterval))
}

// Stop stops the scheduler and waits for a run in progress to finish.
func (vs *VerificationScheduler) Stop() {
	vs.mu.Lock()
	ticker, stop := vs.ticker, vs.stop
	vs.ticker, vs.stop = nil, nil
	vs.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	vs.wg.Wait()
	vs.logger.Info("stopped")
}

// LastRun returns the most recent verification, or nil before the first.
func (vs *VerificationScheduler) LastRun() *VerificationRun {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.lastRun == nil {
		return nil
	}
	run := *vs.lastRun
	return &run
}

func (vs *VerificationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer vs.wg.Done()

	// Run immediately on start
	vs.verify()

	for {
		select {
		case <-ticker.C:
			vs.verify()
		case <-stop:
			return
		}
	}
}

func (vs *VerificationScheduler) verify() {
	start := time.Now()
	err := vs.Verifier.VerifyBalances(context.Background(), "")
	run := &VerificationRun{StartedAt: start, Duration: time.Since(start), Err: err}

	if err != nil {
		vs.logger.Error("balance verification failed", zap.Error(err))
	} else {
		vs.logger.Debug("balances consistent", zap.Duration("took", run.Duration))
	}

	vs.mu.Lock()
	vs.lastRun = run
	vs.mu.Unlock()
}
