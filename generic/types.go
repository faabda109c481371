/*
Package generic provides the domain-agnostic building blocks of the leave engine.

PURPOSE:
  Date math, quantities and the append-only journal live here. The leave
  package layers entitlements, balances and the request lifecycle on top.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days, backed by decimal.Decimal
  - Transaction: An immutable journal entry recording a balance change
  - EntityID: Type-safe identifier of the balance owner (an employee)

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only reversed
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Auditability: Every transaction has reason, reference, and idempotency key

USAGE:
  tx := generic.Transaction{
      EntityID:       "EMP001",
      Resource:       "Annual Leave",
      Year:           2025,
      Delta:          generic.Days(-4),
      Type:           generic.TxConsumption,
      ReferenceID:    "LR001",
      IdempotencyKey: "LR001-debit",
  }

SEE ALSO:
  - ledger.go: Journal over a Store
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Days is NewAmountFromInt(n, UnitDays).
func Days(n int) Amount {
	return NewAmountFromInt(n, UnitDays)
}

// ParseAmount reads an amount stored as its decimal text and unit.
func ParseAmount(value string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount         { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool { return a.Value.Equal(b.Value) }

// IntPart returns the whole-day part of the amount.
func (a Amount) IntPart() int { return int(a.Value.IntPart()) }

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// =============================================================================
// TRANSACTION - Atomic change to a balance
// =============================================================================

type TransactionType string

const (
	TxGrant       TransactionType = "grant"       // Yearly entitlement seeded at employee creation
	TxConsumption TransactionType = "consumption" // Days debited by an approved request
	TxReversal    TransactionType = "reversal"    // Days credited back by a cancellation
	TxAdjustment  TransactionType = "adjustment"  // Manual admin correction
)

// Transaction is one journal entry. Balances for (EntityID, Resource, Year) are
// the sum of their transactions' deltas.
type Transaction struct {
	ID             TransactionID
	EntityID       EntityID
	Resource       string // leave type
	Year           int
	Delta          Amount
	Type           TransactionType
	ReferenceID    string
	Reason         string
	IdempotencyKey string

	// Audit fields
	CreatedBy string
	CreatedAt time.Time
}

// BucketKey identifies the balance a transaction belongs to.
type BucketKey struct {
	EntityID EntityID
	Resource string
	Year     int
}

func (tx Transaction) Bucket() BucketKey {
	return BucketKey{EntityID: tx.EntityID, Resource: tx.Resource, Year: tx.Year}
}
