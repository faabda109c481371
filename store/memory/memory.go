// Package memory provides the in-memory leave.Store, the default backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type balanceKey struct {
	EmployeeID string
	LeaveType  leave.LeaveType
}

// state is everything the store holds. Methods on state do not lock.
type state struct {
	employees     map[string]leave.Employee
	employeeOrder []string

	balances     map[balanceKey]leave.Balance
	balanceOrder []balanceKey

	requests     map[string]leave.Request
	requestOrder []string
	seq          int

	transactions []generic.Transaction
	idempotency  map[string]bool
}

func newState() *state {
	return &state{
		employees:   make(map[string]leave.Employee),
		balances:    make(map[balanceKey]leave.Balance),
		requests:    make(map[string]leave.Request),
		idempotency: make(map[string]bool),
	}
}

func (st *state) clone() *state {
	c := &state{
		employees:     make(map[string]leave.Employee, len(st.employees)),
		employeeOrder: append([]string{}, st.employeeOrder...),
		balances:      make(map[balanceKey]leave.Balance, len(st.balances)),
		balanceOrder:  append([]balanceKey{}, st.balanceOrder...),
		requests:      make(map[string]leave.Request, len(st.requests)),
		requestOrder:  append([]string{}, st.requestOrder...),
		seq:           st.seq,
		transactions:  append([]generic.Transaction{}, st.transactions...),
		idempotency:   make(map[string]bool, len(st.idempotency)),
	}
	for k, v := range st.employees {
		c.employees[k] = v
	}
	for k, v := range st.balances {
		c.balances[k] = v
	}
	for k, v := range st.requests {
		c.requests[k] = v
	}
	for k, v := range st.idempotency {
		c.idempotency[k] = v
	}
	return c
}

// Store is a leave.Store kept in process memory.
type Store struct {
	mu sync.RWMutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

var _ leave.Store = (*Store)(nil)

// =============================================================================
// JOURNAL (generic.Store)
// =============================================================================

func (st *state) append(tx generic.Transaction) error {
	if tx.IdempotencyKey != "" && st.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	st.transactions = append(st.transactions, tx)
	if tx.IdempotencyKey != "" {
		st.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (st *state) appendBatch(txs []generic.Transaction) error {
	// Check all idempotency keys first so the batch lands whole or not at all
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey == "" {
			continue
		}
		if st.idempotency[tx.IdempotencyKey] || seen[tx.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[tx.IdempotencyKey] = true
	}
	for _, tx := range txs {
		if err := st.append(tx); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) load(key generic.BucketKey) []generic.Transaction {
	var result []generic.Transaction
	for _, tx := range st.transactions {
		if tx.Bucket() == key {
			result = append(result, tx)
		}
	}
	return result
}

func (st *state) loadByEntity(entityID generic.EntityID) []generic.Transaction {
	var result []generic.Transaction
	for _, tx := range st.transactions {
		if tx.EntityID == entityID {
			result = append(result, tx)
		}
	}
	return result
}

func (s *Store) Append(_ context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.append(tx)
}

func (s *Store) AppendBatch(_ context.Context, txs []generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.appendBatch(txs)
}

func (s *Store) Load(_ context.Context, key generic.BucketKey) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.load(key), nil
}

func (s *Store) LoadByEntity(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.loadByEntity(entityID), nil
}

func (s *Store) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.idempotency[idempotencyKey], nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (st *state) saveEmployee(emp leave.Employee) error {
	if _, ok := st.employees[emp.ID]; ok {
		return fmt.Errorf("%w: %s", leave.ErrDuplicateEmployee, emp.ID)
	}
	st.employees[emp.ID] = emp
	st.employeeOrder = append(st.employeeOrder, emp.ID)
	return nil
}

func (st *state) getEmployee(id string) *leave.Employee {
	emp, ok := st.employees[id]
	if !ok {
		return nil
	}
	return &emp
}

func (st *state) listEmployees() []leave.Employee {
	out := make([]leave.Employee, 0, len(st.employeeOrder))
	for _, id := range st.employeeOrder {
		out = append(out, st.employees[id])
	}
	return out
}

func (s *Store) SaveEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.saveEmployee(emp)
}

func (s *Store) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getEmployee(id), nil
}

func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listEmployees(), nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (st *state) saveBalance(b leave.Balance) {
	k := balanceKey{EmployeeID: b.EmployeeID, LeaveType: b.LeaveType}
	if _, ok := st.balances[k]; !ok {
		st.balanceOrder = append(st.balanceOrder, k)
	}
	st.balances[k] = b
}

func (st *state) getBalance(employeeID string, lt leave.LeaveType) *leave.Balance {
	b, ok := st.balances[balanceKey{EmployeeID: employeeID, LeaveType: lt}]
	if !ok {
		return nil
	}
	return &b
}

func (st *state) listBalances(employeeID string) []leave.Balance {
	var out []leave.Balance
	for _, k := range st.balanceOrder {
		if employeeID == "" || k.EmployeeID == employeeID {
			out = append(out, st.balances[k])
		}
	}
	return out
}

func (s *Store) SaveBalance(_ context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.saveBalance(b)
	return nil
}

func (s *Store) GetBalance(_ context.Context, employeeID string, lt leave.LeaveType) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getBalance(employeeID, lt), nil
}

func (s *Store) ListBalances(_ context.Context, employeeID string) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listBalances(employeeID), nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (st *state) saveRequest(req leave.Request) {
	if _, ok := st.requests[req.ID]; !ok {
		st.requestOrder = append(st.requestOrder, req.ID)
	}
	st.requests[req.ID] = req
}

func (st *state) getRequest(id string) *leave.Request {
	req, ok := st.requests[id]
	if !ok {
		return nil
	}
	return &req
}

func (st *state) listRequests() []leave.Request {
	out := make([]leave.Request, 0, len(st.requestOrder))
	for _, id := range st.requestOrder {
		out = append(out, st.requests[id])
	}
	return out
}

func (st *state) nextRequestSeq() int {
	st.seq++
	return st.seq
}

func (s *Store) SaveRequest(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.saveRequest(req)
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getRequest(id), nil
}

func (s *Store) ListRequests(_ context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listRequests(), nil
}

func (s *Store) NextRequestSeq(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.nextRequestSeq(), nil
}

// Reset drops all data, including the request sequence.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = newState()
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a view of the store while holding the write lock.
// Writes go straight to the live state; on error the state taken before fn
// ran is restored.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txView{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// txView is the leave.Store handed to WithTx callbacks. The parent lock is
// already held, so it touches state directly.
type txView struct {
	st *state
}

func (tv *txView) Append(_ context.Context, tx generic.Transaction) error {
	return tv.st.append(tx)
}

func (tv *txView) AppendBatch(_ context.Context, txs []generic.Transaction) error {
	return tv.st.appendBatch(txs)
}

func (tv *txView) Load(_ context.Context, key generic.BucketKey) ([]generic.Transaction, error) {
	return tv.st.load(key), nil
}

func (tv *txView) LoadByEntity(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return tv.st.loadByEntity(entityID), nil
}

func (tv *txView) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	return tv.st.idempotency[idempotencyKey], nil
}

func (tv *txView) SaveEmployee(_ context.Context, emp leave.Employee) error {
	return tv.st.saveEmployee(emp)
}

func (tv *txView) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	return tv.st.getEmployee(id), nil
}

func (tv *txView) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	return tv.st.listEmployees(), nil
}

func (tv *txView) SaveBalance(_ context.Context, b leave.Balance) error {
	tv.st.saveBalance(b)
	return nil
}

func (tv *txView) GetBalance(_ context.Context, employeeID string, lt leave.LeaveType) (*leave.Balance, error) {
	return tv.st.getBalance(employeeID, lt), nil
}

func (tv *txView) ListBalances(_ context.Context, employeeID string) ([]leave.Balance, error) {
	return tv.st.listBalances(employeeID), nil
}

func (tv *txView) SaveRequest(_ context.Context, req leave.Request) error {
	tv.st.saveRequest(req)
	return nil
}

func (tv *txView) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	return tv.st.getRequest(id), nil
}

func (tv *txView) ListRequests(_ context.Context) ([]leave.Request, error) {
	return tv.st.listRequests(), nil
}

func (tv *txView) NextRequestSeq(_ context.Context) (int, error) {
	return tv.st.nextRequestSeq(), nil
}

// WithTx inside a transaction joins it.
func (tv *txView) WithTx(_ context.Context, fn func(leave.Store) error) error {
	return fn(tv)
}
