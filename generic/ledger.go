/*
ledger.go - Append-only transaction journal

PURPOSE:
  The journal records every change to a leave balance: the yearly grant,
  each approved debit and each cancellation credit. The leave package keeps
  a materialized total/used/remaining row per balance; the journal lets that
  row be re-derived and checked at any time.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IDEMPOTENT: Same idempotency key = same transaction (no duplicates)

CORRECTIONS:
  A cancelled approval is not erased. A Reversal transaction with the
  opposite sign is appended and both remain in the journal.

EXAMPLE FLOW:
  1. Employee granted 25 days:  TxGrant       +25
  2. LR001 approved (4 days):    TxConsumption -4
  3. LR001 cancelled:            TxReversal    +4

  Annual Leave journal: [+25, -4, +4] = 25 days remaining

SEE ALSO:
  - store.go: Low-level persistence interface
  - leave/balance.go: Balance ledger built on this journal
*/
package generic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - Append-only transaction log
// =============================================================================

// Ledger is the journal of balance changes.
type Ledger interface {
	// Append adds a transaction. Fails if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// AppendBatch adds multiple transactions atomically.
	AppendBatch(ctx context.Context, txs []Transaction) error

	// Transactions returns all transactions for a bucket, in append order.
	Transactions(ctx context.Context, key BucketKey) ([]Transaction, error)

	// EntityTransactions returns every transaction of an entity, in append order.
	EntityTransactions(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// Totals replays a bucket into its per-type sums.
	Totals(ctx context.Context, key BucketKey) (Totals, error)
}

// Totals is the replayed state of one bucket.
type Totals struct {
	Granted  Amount // grants and adjustments
	Consumed Amount // consumption minus reversals
}

// Remaining returns Granted - Consumed.
func (t Totals) Remaining() Amount {
	return t.Granted.Sub(t.Consumed)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
	now   func() time.Time
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store, now: time.Now}
}

// prepare fills the id and timestamp of a transaction that has none.
func (l *DefaultLedger) prepare(tx Transaction) Transaction {
	if tx.ID == "" {
		tx.ID = TransactionID(uuid.NewString())
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.now().UTC()
	}
	if tx.Delta.Unit == "" {
		tx.Delta.Unit = UnitDays
	}
	return tx
}

func (l *DefaultLedger) Append(ctx context.Context, tx Transaction) error {
	tx = l.prepare(tx)
	if tx.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, tx)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, txs []Transaction) error {
	prepared := make([]Transaction, len(txs))
	seen := make(map[string]bool, len(txs))
	for i, tx := range txs {
		tx = l.prepare(tx)
		if tx.IdempotencyKey != "" {
			if seen[tx.IdempotencyKey] {
				return ErrDuplicateIdempotencyKey
			}
			seen[tx.IdempotencyKey] = true

			exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateIdempotencyKey
			}
		}
		prepared[i] = tx
	}
	return l.Store.AppendBatch(ctx, prepared)
}

func (l *DefaultLedger) Transactions(ctx context.Context, key BucketKey) ([]Transaction, error) {
	return l.Store.Load(ctx, key)
}

func (l *DefaultLedger) EntityTransactions(ctx context.Context, entityID EntityID) ([]Transaction, error) {
	return l.Store.LoadByEntity(ctx, entityID)
}

func (l *DefaultLedger) Totals(ctx context.Context, key BucketKey) (Totals, error) {
	txs, err := l.Store.Load(ctx, key)
	if err != nil {
		return Totals{}, err
	}

	totals := Totals{Granted: Days(0), Consumed: Days(0)}
	for _, tx := range txs {
		switch tx.Type {
		case TxGrant, TxAdjustment:
			totals.Granted = totals.Granted.Add(tx.Delta)
		case TxConsumption:
			totals.Consumed = totals.Consumed.Add(tx.Delta.Neg()) // stored negative
		case TxReversal:
			totals.Consumed = totals.Consumed.Sub(tx.Delta)
		}
	}
	return totals, nil
}
