/*
store.go - Persistence interface of the leave engine

PURPOSE:
  One Store holds every record the engine owns: employees, balance rows,
  leave requests, the request sequence and the journal (generic.Store).
  Components never keep records of their own; they are handed a Store.

LOOKUPS:
  Get* methods return (nil, nil) when the record does not exist. Callers
  turn that into the matching domain error.

ORDERING:
  ListEmployees returns insertion order. ListRequests returns sequence
  order. ListBalances returns the rows of one employee, or of everyone
  when employeeID is empty, in employee insertion order and then in
  LeaveTypes order.

TRANSACTIONS:
  WithTx runs fn against a Store scoped to one transaction. If fn returns
  an error, every write made through that Store is discarded, including
  the sequence counter and journal entries.

IMPLEMENTATIONS:
  - store/memory: Snapshot and restore
  - store/sqlite: database/sql transaction

SEE ALSO:
  - generic/store.go: Journal persistence
*/
package leave

import (
	"context"

	"github.com/warp/leave-engine/generic"
)

// Store persists employees, balances, requests and the journal.
type Store interface {
	generic.Store

	// Employees (insert only)
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// Balance rows (upsert by employee and leave type)
	SaveBalance(ctx context.Context, b Balance) error
	GetBalance(ctx context.Context, employeeID string, lt LeaveType) (*Balance, error)
	ListBalances(ctx context.Context, employeeID string) ([]Balance, error)

	// Requests (upsert by id)
	SaveRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context) ([]Request, error)

	// NextRequestSeq allocates the next request sequence number, starting at 1.
	NextRequestSeq(ctx context.Context) (int, error)

	WithTx(ctx context.Context, fn func(Store) error) error
}

// Resetter is implemented by stores that can drop all their data.
// Demo scenarios use it to start from an empty engine.
type Resetter interface {
	Reset(ctx context.Context) error
}
