/*
Package sqlite provides a SQLite-backed leave.Store.

PURPOSE:
  Persists employees, balance rows, leave requests, the request sequence
  and the journal in one SQLite database. Use a file path to keep data
  across restarts or ":memory:" for tests.

APPEND-ONLY ENFORCEMENT:
  The transactions table is only ever inserted into:
  - No UPDATE statements on transactions
  - No DELETE statements on transactions (except Reset)
  - Cancellations are recorded as reversal transactions

KEY TABLES:
  employees:        Directory records, rowid = insertion order
  balances:         One row per (employee, leave type)
  requests:         Leave requests, ordered by seq
  request_sequence: Single-row counter behind LRnnn ids
  transactions:     Journal of grants, consumptions and reversals

MIGRATION:
  Schema lives in migrations/*.sql, embedded in the binary and applied
  with goose on New(). Goose output goes to the logger given with
  WithLogger, and is dropped otherwise.

CORRUPT ROWS:
  A stored date or amount that does not parse fails the read with an
  error naming the column. It is never read back as a zero value.

CONNECTIONS:
  The pool is limited to one connection. ":memory:" databases are per
  connection, and SQLite allows a single writer anyway. Inside WithTx
  every query goes through the sql.Tx so it never waits on the pool.

USAGE:
  store, err := sqlite.New("./data/leave.db", sqlite.WithLogger(logger))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store, leave.Options{})

SEE ALSO:
  - leave/store.go: Interface definition
  - store/memory: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sends migration output to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db, o.logger.Named("sqlite.migrate")); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// gooseLogger adapts zap to goose.Logger.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.sugar.Infof(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.sugar.Fatalf(strings.TrimSpace(format), v...)
}

func migrate(db *sql.DB, logger *zap.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{sugar: logger.Sugar()})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// JOURNAL (generic.Store)
// =============================================================================

const transactionColumns = `id, entity_id, resource, year, delta_value, delta_unit,
	tx_type, reference_id, reason, idempotency_key, created_by, created_at`

func appendTx(ctx context.Context, q querier, tx generic.Transaction) error {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.EntityID,
		tx.Resource,
		tx.Year,
		tx.Delta.Value.String(),
		tx.Delta.Unit,
		tx.Type,
		nullString(tx.ReferenceID),
		nullString(tx.Reason),
		nullString(tx.IdempotencyKey),
		nullString(tx.CreatedBy),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func appendBatch(ctx context.Context, q querier, txs []generic.Transaction) error {
	for _, tx := range txs {
		if err := appendTx(ctx, q, tx); err != nil {
			return err
		}
	}
	return nil
}

func queryTransactions(ctx context.Context, q querier, where string, args ...any) ([]generic.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+where+` ORDER BY rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []generic.Transaction
	for rows.Next() {
		var (
			tx             generic.Transaction
			deltaValue     string
			deltaUnit      string
			referenceID    sql.NullString
			reason         sql.NullString
			idempotencyKey sql.NullString
			createdBy      sql.NullString
			createdAt      string
		)
		if err := rows.Scan(
			&tx.ID, &tx.EntityID, &tx.Resource, &tx.Year, &deltaValue, &deltaUnit,
			&tx.Type, &referenceID, &reason, &idempotencyKey, &createdBy, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Delta, err = generic.ParseAmount(deltaValue, generic.Unit(deltaUnit)); err != nil {
			return nil, fmt.Errorf("transaction %s delta_value: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("transaction %s created_at: %w", tx.ID, err)
		}
		tx.ReferenceID = referenceID.String
		tx.Reason = reason.String
		tx.IdempotencyKey = idempotencyKey.String
		tx.CreatedBy = createdBy.String
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func exists(ctx context.Context, q querier, idempotencyKey string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?", idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTx(ctx, s.db, tx)
}

// AppendBatch adds multiple transactions atomically.
func (s *Store) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", generic.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	if err := appendBatch(ctx, sqlTx, txs); err != nil {
		return err
	}
	return commit(sqlTx)
}

func (s *Store) Load(ctx context.Context, key generic.BucketKey) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db, "entity_id = ? AND resource = ? AND year = ?",
		key.EntityID, key.Resource, key.Year)
}

func (s *Store) LoadByEntity(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db, "entity_id = ?", entityID)
}

func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return exists(ctx, s.db, idempotencyKey)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, department, position, email, phone, join_date, annual_entitlement, created_at`

func saveEmployee(ctx context.Context, q querier, emp leave.Employee) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emp.ID, emp.Name, emp.Department, emp.Position, emp.Email, emp.Phone,
		emp.JoinDate.String(), emp.AnnualEntitlement, emp.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", leave.ErrDuplicateEmployee, emp.ID)
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func scanEmployee(sc interface{ Scan(...any) error }) (leave.Employee, error) {
	var (
		emp       leave.Employee
		joinDate  string
		createdAt string
	)
	if err := sc.Scan(&emp.ID, &emp.Name, &emp.Department, &emp.Position, &emp.Email, &emp.Phone,
		&joinDate, &emp.AnnualEntitlement, &createdAt); err != nil {
		return emp, err
	}
	var err error
	if emp.JoinDate, err = parseDay(joinDate); err != nil {
		return emp, fmt.Errorf("employee %s join_date: %w", emp.ID, err)
	}
	if emp.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return emp, fmt.Errorf("employee %s created_at: %w", emp.ID, err)
	}
	return emp, nil
}

func getEmployee(ctx context.Context, q querier, id string) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &emp, nil
}

func listEmployees(ctx context.Context, q querier) ([]leave.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, emp)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

// =============================================================================
// BALANCES
// =============================================================================

const balanceColumns = `employee_id, leave_type, employee_name, year, total, used, remaining`

func saveBalance(ctx context.Context, q querier, b leave.Balance) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO balances (`+balanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, leave_type) DO UPDATE SET
			employee_name = excluded.employee_name,
			year = excluded.year,
			total = excluded.total,
			used = excluded.used,
			remaining = excluded.remaining`,
		b.EmployeeID, b.LeaveType, b.EmployeeName, b.Year, b.Total, b.Used, b.Remaining,
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func scanBalance(sc interface{ Scan(...any) error }) (leave.Balance, error) {
	var b leave.Balance
	err := sc.Scan(&b.EmployeeID, &b.LeaveType, &b.EmployeeName, &b.Year, &b.Total, &b.Used, &b.Remaining)
	return b, err
}

func getBalance(ctx context.Context, q querier, employeeID string, lt leave.LeaveType) (*leave.Balance, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE employee_id = ? AND leave_type = ?`, employeeID, lt)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &b, nil
}

func listBalances(ctx context.Context, q querier, employeeID string) ([]leave.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances`
	var args []any
	if employeeID != "" {
		query += ` WHERE employee_id = ?`
		args = append(args, employeeID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, b)
}

func (s *Store) GetBalance(ctx context.Context, employeeID string, lt leave.LeaveType) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, employeeID, lt)
}

func (s *Store) ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBalances(ctx, s.db, employeeID)
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, seq, employee_id, employee_name, leave_type, start_date, end_date,
	total_days, reason, status, applied_date, approved_by, approved_date, comments`

func saveRequest(ctx context.Context, q querier, r leave.Request) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			approved_by = excluded.approved_by,
			approved_date = excluded.approved_date,
			comments = excluded.comments`,
		r.ID, r.Sequence, r.EmployeeID, r.EmployeeName, r.LeaveType,
		r.StartDate.String(), r.EndDate.String(), r.TotalDays, r.Reason, r.Status,
		r.AppliedDate.String(), r.ApprovedBy, r.ApprovedDate.String(), r.Comments,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func scanRequest(sc interface{ Scan(...any) error }) (leave.Request, error) {
	var r leave.Request
	var startDate, endDate, appliedDate, approvedDate string
	if err := sc.Scan(&r.ID, &r.Sequence, &r.EmployeeID, &r.EmployeeName, &r.LeaveType,
		&startDate, &endDate, &r.TotalDays, &r.Reason, &r.Status,
		&appliedDate, &r.ApprovedBy, &approvedDate, &r.Comments); err != nil {
		return r, err
	}
	for _, col := range []struct {
		name string
		raw  string
		dst  *generic.TimePoint
	}{
		{"start_date", startDate, &r.StartDate},
		{"end_date", endDate, &r.EndDate},
		{"applied_date", appliedDate, &r.AppliedDate},
		{"approved_date", approvedDate, &r.ApprovedDate},
	} {
		day, err := parseDay(col.raw)
		if err != nil {
			return r, fmt.Errorf("request %s %s: %w", r.ID, col.name, err)
		}
		*col.dst = day
	}
	return r, nil
}

func getRequest(ctx context.Context, q querier, id string) (*leave.Request, error) {
	row := q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &r, nil
}

func listRequests(ctx context.Context, q querier) ([]leave.Request, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func nextRequestSeq(ctx context.Context, q querier) (int, error) {
	if _, err := q.ExecContext(ctx, `UPDATE request_sequence SET value = value + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("failed to advance request sequence: %w", err)
	}
	var seq int
	if err := q.QueryRowContext(ctx, `SELECT value FROM request_sequence WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read request sequence: %w", err)
	}
	return seq, nil
}

func (s *Store) SaveRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func (s *Store) ListRequests(ctx context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db)
}

// NextRequestSeq increments and returns the sequence in its own transaction.
func (s *Store) NextRequestSeq(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", generic.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	seq, err := nextRequestSeq(ctx, sqlTx)
	if err != nil {
		return 0, err
	}
	return seq, commit(sqlTx)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn within a database transaction. It commits when fn
// returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", generic.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return commit(sqlTx)
}

func commit(sqlTx *sql.Tx) error {
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", generic.ErrTransactionFailed, err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, tx generic.Transaction) error {
	return appendTx(ctx, ts.tx, tx)
}

func (ts *txStore) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	return appendBatch(ctx, ts.tx, txs)
}

func (ts *txStore) Load(ctx context.Context, key generic.BucketKey) ([]generic.Transaction, error) {
	return queryTransactions(ctx, ts.tx, "entity_id = ? AND resource = ? AND year = ?",
		key.EntityID, key.Resource, key.Year)
}

func (ts *txStore) LoadByEntity(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return queryTransactions(ctx, ts.tx, "entity_id = ?", entityID)
}

func (ts *txStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	return exists(ctx, ts.tx, idempotencyKey)
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) SaveBalance(ctx context.Context, b leave.Balance) error {
	return saveBalance(ctx, ts.tx, b)
}

func (ts *txStore) GetBalance(ctx context.Context, employeeID string, lt leave.LeaveType) (*leave.Balance, error) {
	return getBalance(ctx, ts.tx, employeeID, lt)
}

func (ts *txStore) ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	return listBalances(ctx, ts.tx, employeeID)
}

func (ts *txStore) SaveRequest(ctx context.Context, r leave.Request) error {
	return saveRequest(ctx, ts.tx, r)
}

func (ts *txStore) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequests(ctx context.Context) ([]leave.Request, error) {
	return listRequests(ctx, ts.tx)
}

func (ts *txStore) NextRequestSeq(ctx context.Context) (int, error) {
	return nextRequestSeq(ctx, ts.tx)
}

// WithTx inside a transaction joins it.
func (ts *txStore) WithTx(_ context.Context, fn func(leave.Store) error) error {
	return fn(ts)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data and restarts the request sequence.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"transactions", "requests", "balances", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE request_sequence SET value = 0 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to reset request sequence: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// parseDay reads a stored YYYY-MM-DD day. Empty means no date.
func parseDay(s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, nil
	}
	t, err := time.Parse(generic.DateLayout, s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return generic.TimePoint{Time: t}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
