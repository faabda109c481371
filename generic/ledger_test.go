package generic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
)

func annualKey() generic.BucketKey {
	return generic.BucketKey{EntityID: "EMP001", Resource: "Annual Leave", Year: 2025}
}

func journalTx(txType generic.TransactionType, delta int, key string) generic.Transaction {
	return generic.Transaction{
		EntityID:       "EMP001",
		Resource:       "Annual Leave",
		Year:           2025,
		Delta:          generic.Days(delta),
		Type:           txType,
		IdempotencyKey: key,
	}
}

func TestLedger_AppendFillsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	ledger := generic.NewLedger(memory.New())

	require.NoError(t, ledger.Append(ctx, journalTx(generic.TxGrant, 25, "grant")))

	txs, err := ledger.Transactions(ctx, annualKey())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.NotEmpty(t, txs[0].ID)
	assert.False(t, txs[0].CreatedAt.IsZero())
	assert.Equal(t, generic.UnitDays, txs[0].Delta.Unit)
}

func TestLedger_DuplicateIdempotencyKeyRejected(t *testing.T) {
	// GIVEN: LR001 already debited
	// WHEN: The same debit key is appended again
	// THEN: ErrDuplicateIdempotencyKey and the journal is unchanged
	ctx := context.Background()
	ledger := generic.NewLedger(memory.New())

	require.NoError(t, ledger.Append(ctx, journalTx(generic.TxGrant, 25, "grant")))
	require.NoError(t, ledger.Append(ctx, journalTx(generic.TxConsumption, -4, "LR001-debit")))

	err := ledger.Append(ctx, journalTx(generic.TxConsumption, -4, "LR001-debit"))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	assert.True(t, generic.IsDuplicate(err))

	totals, err := ledger.Totals(ctx, annualKey())
	require.NoError(t, err)
	assert.True(t, totals.Consumed.Equal(generic.Days(4)), "consumed %s", totals.Consumed)
}

func TestLedger_AppendBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	ledger := generic.NewLedger(memory.New())

	err := ledger.AppendBatch(ctx, []generic.Transaction{
		journalTx(generic.TxGrant, 25, "a"),
		journalTx(generic.TxGrant, 15, "a"),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	txs, err := ledger.Transactions(ctx, annualKey())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLedger_TotalsReplay(t *testing.T) {
	// GIVEN: +25 grant, -4 consumption, +4 reversal, -3 consumption
	// THEN: granted 25, consumed 3, remaining 22
	ctx := context.Background()
	ledger := generic.NewLedger(memory.New())

	require.NoError(t, ledger.AppendBatch(ctx, []generic.Transaction{
		journalTx(generic.TxGrant, 25, "grant"),
		journalTx(generic.TxConsumption, -4, "LR001-debit"),
		journalTx(generic.TxReversal, 4, "LR001-credit"),
		journalTx(generic.TxConsumption, -3, "LR002-debit"),
	}))

	totals, err := ledger.Totals(ctx, annualKey())
	require.NoError(t, err)
	assert.True(t, totals.Granted.Equal(generic.Days(25)))
	assert.True(t, totals.Consumed.Equal(generic.Days(3)))
	assert.True(t, totals.Remaining().Equal(generic.Days(22)))
}

func TestLedger_TotalsAreScopedToBucket(t *testing.T) {
	ctx := context.Background()
	ledger := generic.NewLedger(memory.New())

	sick := journalTx(generic.TxGrant, 15, "sick-grant")
	sick.Resource = "Sick Leave"
	require.NoError(t, ledger.Append(ctx, sick))

	totals, err := ledger.Totals(ctx, annualKey())
	require.NoError(t, err)
	assert.True(t, totals.Granted.IsZero())
}

func TestInvariantError(t *testing.T) {
	err := &generic.InvariantError{Invariant: "remaining >= 0", Subject: "Annual Leave of EMP001", Detail: "-1"}
	assert.ErrorIs(t, err, generic.ErrInvariantViolation)
	assert.True(t, generic.IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "remaining >= 0")

	// GIVEN: An invariant exposed by a duplicate journal key
	// THEN: Both the invariant and the cause match
	caused := &generic.InvariantError{Invariant: "one debit per request", Subject: "LR001", Detail: "already debited", Err: generic.ErrDuplicateIdempotencyKey}
	assert.True(t, generic.IsInvariantViolation(caused))
	assert.True(t, generic.IsDuplicate(caused))
	assert.Contains(t, caused.Error(), "duplicate idempotency key")
}
