package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// QUERIES
// =============================================================================

// RequestFilter narrows ListRequests. Empty fields match everything.
type RequestFilter struct {
	EmployeeID string
	Status     Status
}

func (f RequestFilter) matches(r Request) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Reports answers read-only questions about requests and balances.
type Reports struct {
	store Store
	clock generic.Clock
}

func NewReports(store Store, clock generic.Clock) *Reports {
	if clock == nil {
		clock = generic.Today
	}
	return &Reports{store: store, clock: clock}
}

// ListRequests returns the requests matching f in submission order.
func (r *Reports) ListRequests(ctx context.Context, f RequestFilter) ([]Request, error) {
	all, err := r.store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	out := make([]Request, 0, len(all))
	for _, req := range all {
		if f.matches(req) {
			out = append(out, req)
		}
	}
	return out, nil
}

// ListBalances returns the balance rows of employeeID, or of every employee
// when employeeID is empty.
func (r *Reports) ListBalances(ctx context.Context, employeeID string) ([]Balance, error) {
	rows, err := r.store.ListBalances(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return rows, nil
}

// =============================================================================
// ANNUAL SUMMARY
// =============================================================================

// Summary aggregates the requests whose start date falls in Year.
type Summary struct {
	Year               int
	TotalRequests      int
	Approved           int
	Pending            int
	Rejected           int
	Cancelled          int
	ByStatus           map[Status]int
	TotalDaysRequested int
	TotalDaysApproved  int
	ApprovalRate       decimal.Decimal // percent, two decimals
}

// AnnualSummary summarizes year, or the current year when year is 0.
// It returns nil when no request starts in that year.
func (r *Reports) AnnualSummary(ctx context.Context, year int) (*Summary, error) {
	if year == 0 {
		year = r.clock().Year()
	}
	all, err := r.store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	window := generic.YearPeriod(year)
	s := &Summary{Year: year, ByStatus: make(map[Status]int)}
	for _, req := range all {
		if !window.Contains(req.StartDate) {
			continue
		}
		s.TotalRequests++
		s.TotalDaysRequested += req.TotalDays
		s.ByStatus[req.Status]++
		switch req.Status {
		case StatusApproved:
			s.Approved++
			s.TotalDaysApproved += req.TotalDays
		case StatusPending:
			s.Pending++
		case StatusRejected:
			s.Rejected++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	if s.TotalRequests == 0 {
		return nil, nil
	}

	// Exact decimal quotient, rounded half away from zero.
	s.ApprovalRate = decimal.NewFromInt(int64(s.Approved)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.TotalRequests))).
		Round(2)
	return s, nil
}
