/*
request.go - Leave request lifecycle: submit, decide, cancel

PURPOSE:
  Moves a leave request through its states and applies the balance effect
  of each transition. Every transition runs in one store transaction, so
  the request record, the balance row and the journal entry change together
  or not at all.

STATE MACHINE:
                 decide(Approved)  -> Approved  --cancel--> Cancelled (credit)
  submit -> Pending --decide(Rejected)  -> Rejected  --cancel--> Cancelled
                 decide(<other>)   -> <other>   --cancel--> Cancelled
                 cancel            -> Cancelled

  Only Pending requests can be decided. A Cancelled request cannot be
  cancelled again. Only the decision "Approved" touches the balance.

SUBMIT CHECKS (in order, first failure wins):
  1. Leave type      -> ErrInvalidLeaveType
  2. Date format     -> ErrInvalidDateFormat
  3. start > end     -> ErrInvalidDateRange
  4. start < today   -> ErrPastDateNotAllowed
  5. Working days    (weekends excluded)
  6. Balance         -> ErrInsufficientBalance
  7. Employee        -> ErrEmployeeNotFound
  8. Allocate LRnnn and store as Pending. Nothing is debited yet.

DECIDE CHECKS (in order):
  1. Request exists  -> ErrRequestNotFound
  2. Decision        -> ErrInvalidDecision (empty means Approved)
  3. Still Pending   -> ErrInvalidTransition

APPROVAL RE-CHECK:
  Several Pending requests can be accepted against the same remaining
  days. Approval checks the balance again and fails with
  ErrInsufficientBalance, leaving the request Pending, if an earlier
  approval already used the days.

SEE ALSO:
  - balance.go: Debit and Credit
  - generic/time.go: ParseDate and WorkingDays
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// SubmitInput is a new leave request as entered by an employee.
type SubmitInput struct {
	EmployeeID string
	LeaveType  string
	StartDate  string
	EndDate    string
	Reason     string
}

// DecideInput is an approver's decision on a request. An empty Decision
// means Approved.
type DecideInput struct {
	RequestID string
	Approver  string
	Decision  string
	Comments  string
}

// Lifecycle runs the request state machine.
type Lifecycle struct {
	store  Store
	ledger *BalanceLedger
	clock  generic.Clock
	logger *zap.Logger

	// StrictDecisions limits decisions to Approved and Rejected.
	StrictDecisions bool
}

func NewLifecycle(store Store, ledger *BalanceLedger, clock generic.Clock, logger *zap.Logger) *Lifecycle {
	if clock == nil {
		clock = generic.Today
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{store: store, ledger: ledger, clock: clock, logger: logger.Named("leave.lifecycle")}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates in and stores it as a Pending request.
func (lc *Lifecycle) Submit(ctx context.Context, in SubmitInput) (Request, error) {
	lc.logger.Debug("submit", zap.String("employee_id", in.EmployeeID), zap.String("leave_type", in.LeaveType))

	lt, err := ParseLeaveType(in.LeaveType)
	if err != nil {
		return Request{}, lc.rejected("submit", err)
	}
	start, err := generic.ParseDate(in.StartDate)
	if err != nil {
		return Request{}, lc.rejected("submit", &DateFormatError{Field: "start_date", Value: in.StartDate})
	}
	end, err := generic.ParseDate(in.EndDate)
	if err != nil {
		return Request{}, lc.rejected("submit", &DateFormatError{Field: "end_date", Value: in.EndDate})
	}
	period := generic.Period{Start: start, End: end}
	if !period.Valid() {
		return Request{}, lc.rejected("submit", fmt.Errorf("%w: %s", ErrInvalidDateRange, period))
	}
	today := lc.clock()
	if start.Before(today) {
		return Request{}, lc.rejected("submit", fmt.Errorf("%w: %s is before %s", ErrPastDateNotAllowed, start, today))
	}
	days := period.WorkingDays()

	var req Request
	err = lc.store.WithTx(ctx, func(tx Store) error {
		if err := lc.ledger.on(tx).Check(ctx, in.EmployeeID, lt, days); err != nil {
			var insufficient *InsufficientBalanceError
			if errors.As(err, &insufficient) && insufficient.Missing {
				emp, lookupErr := tx.GetEmployee(ctx, in.EmployeeID)
				if lookupErr != nil {
					return fmt.Errorf("load employee %s: %w", in.EmployeeID, lookupErr)
				}
				if emp == nil {
					return fmt.Errorf("%w: %s", ErrEmployeeNotFound, in.EmployeeID)
				}
			}
			return err
		}

		emp, err := tx.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return fmt.Errorf("load employee %s: %w", in.EmployeeID, err)
		}
		if emp == nil {
			return fmt.Errorf("%w: %s", ErrEmployeeNotFound, in.EmployeeID)
		}

		seq, err := tx.NextRequestSeq(ctx)
		if err != nil {
			return fmt.Errorf("allocate request id: %w", err)
		}
		req = Request{
			ID:           FormatRequestID(seq),
			Sequence:     seq,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			LeaveType:    lt,
			StartDate:    start,
			EndDate:      end,
			TotalDays:    days,
			Reason:       in.Reason,
			Status:       StatusPending,
			AppliedDate:  today,
		}
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request %s: %w", req.ID, err)
		}
		return nil
	})
	if err != nil {
		return Request{}, lc.failed("submit", err)
	}

	lc.logger.Info("request submitted",
		zap.String("request_id", req.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", string(lt)),
		zap.Stringer("period", req.Period()),
		zap.Int("days", days))
	return req, nil
}

// =============================================================================
// DECIDE
// =============================================================================

// Decide records an approver's decision on a Pending request. The decision
// "Approved" debits the balance; any other accepted decision only changes
// the status.
func (lc *Lifecycle) Decide(ctx context.Context, in DecideInput) (Request, error) {
	lc.logger.Debug("decide", zap.String("request_id", in.RequestID), zap.String("decision", in.Decision))

	decision := Status(strings.TrimSpace(in.Decision))
	if decision == "" {
		decision = StatusApproved
	}

	var req Request
	err := lc.store.WithTx(ctx, func(tx Store) error {
		found, err := lc.load(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		req = *found
		if err := lc.validDecision(decision); err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &TransitionError{RequestID: req.ID, From: req.Status, To: decision}
		}

		if decision == StatusApproved {
			ledger := lc.ledger.on(tx)
			if err := ledger.Check(ctx, req.EmployeeID, req.LeaveType, req.TotalDays); err != nil {
				return err
			}
			if _, err := ledger.Debit(ctx, req.EmployeeID, req.LeaveType, req.TotalDays, req.ID); err != nil {
				return err
			}
		}

		req.Status = decision
		req.ApprovedBy = in.Approver
		req.ApprovedDate = lc.clock()
		req.Comments = in.Comments
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request %s: %w", req.ID, err)
		}
		return nil
	})
	if err != nil {
		return Request{}, lc.failed("decide", err)
	}

	lc.logger.Info("request decided",
		zap.String("request_id", req.ID),
		zap.String("status", string(req.Status)),
		zap.String("approver", req.ApprovedBy))
	return req, nil
}

func (lc *Lifecycle) validDecision(decision Status) error {
	switch decision {
	case StatusPending:
		return fmt.Errorf("%w: %s is not a decision", ErrInvalidDecision, decision)
	case StatusApproved, StatusRejected:
		return nil
	}
	if lc.StrictDecisions {
		return fmt.Errorf("%w: %q, expected Approved or Rejected", ErrInvalidDecision, decision)
	}
	return nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel cancels a request on behalf of its owner. Approved requests have
// their days credited back.
func (lc *Lifecycle) Cancel(ctx context.Context, requestID, employeeID string) (Request, error) {
	lc.logger.Debug("cancel", zap.String("request_id", requestID), zap.String("employee_id", employeeID))

	var req Request
	err := lc.store.WithTx(ctx, func(tx Store) error {
		found, err := lc.load(ctx, tx, requestID)
		if err != nil {
			return err
		}
		req = *found
		if req.EmployeeID != employeeID {
			return fmt.Errorf("%w: request %s belongs to another employee", ErrNotAuthorized, req.ID)
		}
		if req.Status == StatusCancelled {
			return &TransitionError{RequestID: req.ID, From: req.Status, To: StatusCancelled}
		}

		if req.Status == StatusApproved {
			if _, err := lc.ledger.on(tx).Credit(ctx, req.EmployeeID, req.LeaveType, req.TotalDays, req.ID); err != nil {
				return err
			}
		}

		req.Status = StatusCancelled
		req.Comments = CancellationComment
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request %s: %w", req.ID, err)
		}
		return nil
	})
	if err != nil {
		return Request{}, lc.failed("cancel", err)
	}

	lc.logger.Info("request cancelled", zap.String("request_id", req.ID), zap.String("employee_id", req.EmployeeID))
	return req, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (lc *Lifecycle) load(ctx context.Context, store Store, requestID string) (*Request, error) {
	req, err := store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	return req, nil
}

// Get returns the request with id or ErrRequestNotFound.
func (lc *Lifecycle) Get(ctx context.Context, id string) (Request, error) {
	req, err := lc.load(ctx, lc.store, id)
	if err != nil {
		return Request{}, err
	}
	return *req, nil
}

func (lc *Lifecycle) rejected(op string, err error) error {
	lc.logger.Warn(op+" rejected", zap.Error(err))
	return err
}

func (lc *Lifecycle) failed(op string, err error) error {
	if IsClientError(err) {
		return lc.rejected(op, err)
	}
	lc.logger.Error(op+" failed", zap.Error(err))
	return err
}
