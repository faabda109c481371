/*
service.go - Leave engine facade

PURPOSE:
  Service wires the directory, balance ledger, lifecycle and reports over a
  single Store and is the only type adapters (HTTP, scenarios, cmd) use.

CONCURRENCY:
  Every method holds one mutex for its whole duration, reads included, so
  operations on the same balance never interleave.

USAGE:
  svc := leave.NewService(memory.New(), leave.Options{Logger: logger})
  emp, _ := svc.CreateEmployee(ctx, leave.EmployeeInput{ID: "EMP001", Name: "Ada"})
  req, _ := svc.Submit(ctx, leave.SubmitInput{EmployeeID: "EMP001", LeaveType: "annual leave",
      StartDate: "2025-02-17", EndDate: "2025-02-20"})
  svc.Decide(ctx, leave.DecideInput{RequestID: req.ID, Approver: "Manager", Decision: "Approved"})
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// Options configures a Service. Zero values are usable.
type Options struct {
	Clock           generic.Clock
	Logger          *zap.Logger
	StrictDecisions bool
}

// Service is the leave engine.
type Service struct {
	mu sync.Mutex

	store     Store
	ledger    *BalanceLedger
	directory *Directory
	lifecycle *Lifecycle
	reports   *Reports
	logger    *zap.Logger
}

func NewService(store Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = generic.Today
	}

	ledger := NewBalanceLedger(store, logger)
	lifecycle := NewLifecycle(store, ledger, clock, logger)
	lifecycle.StrictDecisions = opts.StrictDecisions

	return &Service{
		store:     store,
		ledger:    ledger,
		directory: NewDirectory(store, ledger, clock, logger),
		lifecycle: lifecycle,
		reports:   NewReports(store, clock),
		logger:    logger.Named("leave"),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.Add(ctx, in)
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.Lookup(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.List(ctx)
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Service) Submit(ctx context.Context, in SubmitInput) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.Submit(ctx, in)
}

func (s *Service) GetRequest(ctx context.Context, id string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.Get(ctx, id)
}

func (s *Service) Decide(ctx context.Context, in DecideInput) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.Decide(ctx, in)
}

func (s *Service) Cancel(ctx context.Context, requestID, employeeID string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.Cancel(ctx, requestID, employeeID)
}

// =============================================================================
// REPORTING
// =============================================================================

func (s *Service) ListRequests(ctx context.Context, f RequestFilter) ([]Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.ListRequests(ctx, f)
}

func (s *Service) ListBalances(ctx context.Context, employeeID string) ([]Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.ListBalances(ctx, employeeID)
}

func (s *Service) AnnualSummary(ctx context.Context, year int) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.AnnualSummary(ctx, year)
}

// Journal returns the balance journal of employeeID, limited to leaveType
// when it is not empty.
func (s *Service) Journal(ctx context.Context, employeeID, leaveType string) ([]generic.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.directory.Lookup(ctx, employeeID); err != nil {
		return nil, err
	}
	var lt LeaveType
	if leaveType != "" {
		parsed, err := ParseLeaveType(leaveType)
		if err != nil {
			return nil, err
		}
		lt = parsed
	}
	return s.ledger.History(ctx, employeeID, lt)
}

// VerifyBalances replays the journal of every balance row of employeeID, or
// of all employees when employeeID is empty. It returns the joined
// invariant errors of the rows that disagree.
func (s *Service) VerifyBalances(ctx context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.reports.ListBalances(ctx, employeeID)
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range rows {
		if _, err := s.ledger.Verify(ctx, b.EmployeeID, b.LeaveType); err != nil {
			s.logger.Error("balance verification failed",
				zap.String("employee_id", b.EmployeeID),
				zap.String("leave_type", string(b.LeaveType)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrResetUnsupported is returned by Reset when the store cannot be emptied.
var ErrResetUnsupported = errors.New("store does not support reset")

// Reset drops every record of the underlying store.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.store.(Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	s.logger.Info("store reset")
	return nil
}
