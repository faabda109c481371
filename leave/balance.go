/*
balance.go - Balance ledger: per employee, per leave type day counts

PURPOSE:
  Every employee has one row per leave type holding total, used and
  remaining days. Rows are created once, when the employee is added, for
  that year. Approvals debit a row and cancellations of approved requests
  credit it back.

CRITICAL INVARIANTS:
  1. used + remaining == total for every row at rest
  2. remaining and used never go below zero
  3. Every change is mirrored in the journal:
       grant       +total      key balance-<emp>-<type>-<year>
       consumption -days       key <requestID>-debit
       reversal    +days       key <requestID>-credit
     so a request is debited at most once and credited at most once.

YEAR SCOPING:
  Rows exist only for the year the employee was created. A request is
  checked against and debited from that row whatever its dates are.

FAILURES:
  A debit that would drive remaining below zero, or a credit that would
  drive used below zero, returns *generic.InvariantError. Callers check
  sufficiency first, so this only happens on a bug or corrupt data.

SEE ALSO:
  - generic/ledger.go: Journal
  - request.go: Lifecycle transitions that debit and credit
*/
package leave

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// BalanceLedger maintains balance rows and their journal.
type BalanceLedger struct {
	store   Store
	journal generic.Ledger
	logger  *zap.Logger
}

func NewBalanceLedger(store Store, logger *zap.Logger) *BalanceLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceLedger{
		store:   store,
		journal: generic.NewLedger(store),
		logger:  logger.Named("leave.ledger"),
	}
}

// on returns a ledger with the same logger bound to store. Used inside WithTx.
func (l *BalanceLedger) on(store Store) *BalanceLedger {
	return &BalanceLedger{store: store, journal: generic.NewLedger(store), logger: l.logger}
}

func grantKey(employeeID string, lt LeaveType, year int) string {
	return fmt.Sprintf("balance-%s-%s-%d", employeeID, lt, year)
}

func debitKey(requestID string) string  { return requestID + "-debit" }
func creditKey(requestID string) string { return requestID + "-credit" }

// =============================================================================
// INITIALIZE
// =============================================================================

// Initialize creates the five balance rows of an employee for year, each with
// used = 0 and remaining = total, and journals one grant per row. If the
// employee already has rows nothing is changed.
func (l *BalanceLedger) Initialize(ctx context.Context, employeeID, name string, annualEntitlement, year int) error {
	existing, err := l.store.ListBalances(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("load balances of %s: %w", employeeID, err)
	}
	if len(existing) > 0 {
		l.logger.Warn("balances already initialized",
			zap.String("employee_id", employeeID),
			zap.Int("year", existing[0].Year))
		return nil
	}

	grants := make([]generic.Transaction, 0, len(LeaveTypes))
	for _, lt := range LeaveTypes {
		total := lt.Entitlement(annualEntitlement)
		b := Balance{
			EmployeeID:   employeeID,
			EmployeeName: name,
			LeaveType:    lt,
			Year:         year,
			Total:        total,
			Used:         0,
			Remaining:    total,
		}
		if err := l.store.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("save %s balance of %s: %w", lt, employeeID, err)
		}
		grants = append(grants, generic.Transaction{
			EntityID:       generic.EntityID(employeeID),
			Resource:       string(lt),
			Year:           year,
			Delta:          generic.Days(total),
			Type:           generic.TxGrant,
			Reason:         fmt.Sprintf("%d entitlement", year),
			IdempotencyKey: grantKey(employeeID, lt, year),
		})
	}
	if err := l.journal.AppendBatch(ctx, grants); err != nil {
		return fmt.Errorf("journal grants of %s: %w", employeeID, err)
	}

	l.logger.Info("balances initialized",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("annual_entitlement", annualEntitlement))
	return nil
}

// =============================================================================
// SUFFICIENCY
// =============================================================================

// Check returns nil when the employee's row for lt has at least days
// remaining, and an *InsufficientBalanceError otherwise.
func (l *BalanceLedger) Check(ctx context.Context, employeeID string, lt LeaveType, days int) error {
	b, err := l.store.GetBalance(ctx, employeeID, lt)
	if err != nil {
		return fmt.Errorf("load %s balance of %s: %w", lt, employeeID, err)
	}
	if b == nil {
		return &InsufficientBalanceError{EmployeeID: employeeID, LeaveType: lt, Requested: days, Missing: true}
	}
	if b.Remaining < days {
		return &InsufficientBalanceError{EmployeeID: employeeID, LeaveType: lt, Available: b.Remaining, Requested: days}
	}
	return nil
}

// HasSufficientBalance reports whether a row exists with remaining >= days.
// The error is non-nil only when the store fails.
func (l *BalanceLedger) HasSufficientBalance(ctx context.Context, employeeID string, lt LeaveType, days int) (bool, error) {
	err := l.Check(ctx, employeeID, lt, days)
	if err == nil {
		return true, nil
	}
	var insufficient *InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return false, nil
	}
	return false, err
}

// =============================================================================
// DEBIT / CREDIT
// =============================================================================

// Debit moves days from remaining to used on behalf of requestID.
func (l *BalanceLedger) Debit(ctx context.Context, employeeID string, lt LeaveType, days int, requestID string) (Balance, error) {
	b, err := l.row(ctx, employeeID, lt, days)
	if err != nil {
		return Balance{}, err
	}

	b.Used += days
	b.Remaining -= days
	if b.Remaining < 0 {
		return Balance{}, &generic.InvariantError{
			Invariant: "remaining >= 0",
			Subject:   fmt.Sprintf("%s balance of %s", lt, employeeID),
			Detail:    fmt.Sprintf("debit of %d days for %s leaves %d", days, requestID, b.Remaining),
		}
	}

	if err := l.record(ctx, "debit", generic.Transaction{
		EntityID:       generic.EntityID(employeeID),
		Resource:       string(lt),
		Year:           b.Year,
		Delta:          generic.Days(-days),
		Type:           generic.TxConsumption,
		ReferenceID:    requestID,
		Reason:         "leave approved",
		IdempotencyKey: debitKey(requestID),
	}); err != nil {
		return Balance{}, err
	}
	if err := l.store.SaveBalance(ctx, *b); err != nil {
		return Balance{}, fmt.Errorf("save %s balance of %s: %w", lt, employeeID, err)
	}

	l.logger.Info("balance debited",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", string(lt)),
		zap.String("request_id", requestID),
		zap.Int("days", days),
		zap.Int("remaining", b.Remaining))
	return *b, nil
}

// Credit moves days from used back to remaining on behalf of requestID.
func (l *BalanceLedger) Credit(ctx context.Context, employeeID string, lt LeaveType, days int, requestID string) (Balance, error) {
	b, err := l.row(ctx, employeeID, lt, days)
	if err != nil {
		return Balance{}, err
	}

	b.Used -= days
	b.Remaining += days
	if b.Used < 0 {
		return Balance{}, &generic.InvariantError{
			Invariant: "used >= 0",
			Subject:   fmt.Sprintf("%s balance of %s", lt, employeeID),
			Detail:    fmt.Sprintf("credit of %d days for %s leaves %d used", days, requestID, b.Used),
		}
	}

	if err := l.record(ctx, "credit", generic.Transaction{
		EntityID:       generic.EntityID(employeeID),
		Resource:       string(lt),
		Year:           b.Year,
		Delta:          generic.Days(days),
		Type:           generic.TxReversal,
		ReferenceID:    requestID,
		Reason:         "leave cancelled",
		IdempotencyKey: creditKey(requestID),
	}); err != nil {
		return Balance{}, err
	}
	if err := l.store.SaveBalance(ctx, *b); err != nil {
		return Balance{}, fmt.Errorf("save %s balance of %s: %w", lt, employeeID, err)
	}

	l.logger.Info("balance credited",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", string(lt)),
		zap.String("request_id", requestID),
		zap.Int("days", days),
		zap.Int("remaining", b.Remaining))
	return *b, nil
}

// record journals a debit or credit. A request already holding that entry
// means the lifecycle let it through twice.
func (l *BalanceLedger) record(ctx context.Context, op string, tx generic.Transaction) error {
	err := l.journal.Append(ctx, tx)
	if generic.IsDuplicate(err) {
		return &generic.InvariantError{
			Invariant: "one " + op + " per request",
			Subject:   "request " + tx.ReferenceID,
			Detail:    "journal already holds " + tx.IdempotencyKey,
			Err:       err,
		}
	}
	if err != nil {
		return fmt.Errorf("journal %s of %s: %w", op, tx.ReferenceID, err)
	}
	return nil
}

func (l *BalanceLedger) row(ctx context.Context, employeeID string, lt LeaveType, days int) (*Balance, error) {
	b, err := l.store.GetBalance(ctx, employeeID, lt)
	if err != nil {
		return nil, fmt.Errorf("load %s balance of %s: %w", lt, employeeID, err)
	}
	if b == nil {
		return nil, &InsufficientBalanceError{EmployeeID: employeeID, LeaveType: lt, Requested: days, Missing: true}
	}
	return b, nil
}

// =============================================================================
// VERIFY
// =============================================================================

// Verify replays the journal of one row and returns the row if both agree.
func (l *BalanceLedger) Verify(ctx context.Context, employeeID string, lt LeaveType) (Balance, error) {
	b, err := l.store.GetBalance(ctx, employeeID, lt)
	if err != nil {
		return Balance{}, fmt.Errorf("load %s balance of %s: %w", lt, employeeID, err)
	}
	if b == nil {
		return Balance{}, &InsufficientBalanceError{EmployeeID: employeeID, LeaveType: lt, Missing: true}
	}
	subject := fmt.Sprintf("%s balance of %s", lt, employeeID)

	if !b.Consistent() {
		return *b, &generic.InvariantError{
			Invariant: "used + remaining == total",
			Subject:   subject,
			Detail:    fmt.Sprintf("total %d, used %d, remaining %d", b.Total, b.Used, b.Remaining),
		}
	}

	totals, err := l.journal.Totals(ctx, b.Key())
	if err != nil {
		return *b, fmt.Errorf("replay journal of %s: %w", subject, err)
	}
	if !totals.Granted.Equal(generic.Days(b.Total)) ||
		!totals.Consumed.Equal(generic.Days(b.Used)) ||
		!totals.Remaining().Equal(generic.Days(b.Remaining)) {
		return *b, &generic.InvariantError{
			Invariant: "journal matches balance",
			Subject:   subject,
			Detail: fmt.Sprintf("journal granted %s consumed %s, row total %d used %d",
				totals.Granted.Value, totals.Consumed.Value, b.Total, b.Used),
		}
	}
	return *b, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns the journal entries of employeeID in append order, limited
// to the row of lt when lt is set.
func (l *BalanceLedger) History(ctx context.Context, employeeID string, lt LeaveType) ([]generic.Transaction, error) {
	if lt == "" {
		txs, err := l.journal.EntityTransactions(ctx, generic.EntityID(employeeID))
		if err != nil {
			return nil, fmt.Errorf("load journal of %s: %w", employeeID, err)
		}
		return txs, nil
	}

	b, err := l.store.GetBalance(ctx, employeeID, lt)
	if err != nil {
		return nil, fmt.Errorf("load %s balance of %s: %w", lt, employeeID, err)
	}
	if b == nil {
		return nil, nil
	}
	txs, err := l.journal.Transactions(ctx, b.Key())
	if err != nil {
		return nil, fmt.Errorf("load %s journal of %s: %w", lt, employeeID, err)
	}
	return txs, nil
}
