/*
store.go - Persistence interface for journal transactions

PURPOSE:
  Defines the interface between the journal and the database. The Store
  handles persistence while maintaining append-only semantics.

APPEND-ONLY CONTRACT:
  - Append(): Single transaction write
  - AppendBatch(): Atomic multi-transaction write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  Every write carries an idempotency key. If the key already exists, the
  write is rejected with ErrDuplicateIdempotencyKey. The leave lifecycle
  keys debits and credits by request id, so a request cannot be debited
  or credited twice.

IMPLEMENTATIONS:
  - store/memory: In-memory, the default backend
  - store/sqlite: SQLite, for local files and tests

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// =============================================================================
// STORE - Interface for transaction persistence (append-only)
// =============================================================================

// Store handles persistence of transactions.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete.
type Store interface {
	// Append persists a transaction. Returns error if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// AppendBatch persists multiple transactions atomically.
	AppendBatch(ctx context.Context, txs []Transaction) error

	// Load returns all transactions for one bucket in append order.
	Load(ctx context.Context, key BucketKey) ([]Transaction, error)

	// LoadByEntity returns every transaction of an entity in append order.
	LoadByEntity(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
