/*
handlers_test.go - HTTP handler tests

Tests for:
- Status code and error code mapping of every domain error kind
- Body validation (validator tags)
- The submit / approve / cancel flow and its balance effect
- Summary and verification endpoints
*/
package api

import (
	"context"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/store/sqlite"
)

// Monday 10 February 2025
var testToday = generic.NewTimePoint(2025, 2, 10)

type testServer struct {
	router  http.Handler
	handler *Handler
	svc     *leave.Service
	store   leave.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	clock := generic.FixedClock(testToday)
	svc := leave.NewService(store, leave.Options{Clock: clock})
	h := NewHandler(svc, clock, nil)
	return &testServer{
		router:  NewRouter(h, nil),
		handler: h,
		svc:     svc,
		store:   store,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) addEmployee(t *testing.T, id string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{ID: id, Name: "Employee " + id})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (ts *testServer) submit(t *testing.T, body SubmitRequest) RequestDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/requests", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[RequestDTO](t, rec)
}

func annualBalance(t *testing.T, ts *testServer, id string) BalanceDTO {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/employees/"+id+"/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]BalanceDTO](t, rec)
	require.Len(t, rows, 5)
	require.Equal(t, string(leave.AnnualLeave), rows[0].LeaveType)
	return rows[0]
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee_Success(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{
		ID:         "EMP001",
		Name:       "Ada Lovelace",
		Department: "Engineering",
		Email:      "ada@example.com",
		JoinDate:   "15/01/2020",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	emp := decode[EmployeeDTO](t, rec)
	assert.Equal(t, "EMP001", emp.ID)
	assert.Equal(t, "2020-01-15", emp.JoinDate)
	assert.Equal(t, 25, emp.AnnualEntitlement)

	rec = ts.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]EmployeeDTO](t, rec), 1)

	b := annualBalance(t, ts, "EMP001")
	assert.Equal(t, 25, b.Total)
	assert.Equal(t, 25, b.Remaining)
	assert.Equal(t, 2025, b.Year)
}

func TestCreateEmployee_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		code    string
		message string
	}{
		{"malformed json", `{"id":`, CodeInvalidBody, "Invalid request body"},
		{"missing id", CreateEmployeeRequest{Name: "Ada"}, CodeValidationFailed, "id is required"},
		{"missing name", CreateEmployeeRequest{ID: "EMP001"}, CodeValidationFailed, "name is required"},
		{"bad email", CreateEmployeeRequest{ID: "EMP001", Name: "Ada", Email: "not-an-email"}, CodeValidationFailed, "email must be a valid email address"},
		{"negative entitlement", map[string]any{"id": "EMP001", "name": "Ada", "annual_entitlement": -1}, CodeValidationFailed, "annual_entitlement must be at least 0"},
		{"blank id", CreateEmployeeRequest{ID: "  ", Name: "Ada"}, leave.KindInvalidEmployee, ""},
		{"bad join date", CreateEmployeeRequest{ID: "EMP001", Name: "Ada", JoinDate: "soon"}, leave.KindInvalidEmployee, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/api/employees", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error)
			}
		})
	}
}

func TestCreateEmployee_ZeroEntitlementAllowed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/employees", map[string]any{"id": "EMP001", "name": "Ada", "annual_entitlement": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[EmployeeDTO](t, rec).AnnualEntitlement)
}

func TestCreateEmployee_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")

	rec := ts.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{ID: "EMP001", Name: "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, leave.KindDuplicateEmployee, decode[ErrorResponse](t, rec).Code)
}

func TestGetEmployee_NotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/employees/EMP404", "/api/employees/EMP404/balances"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, leave.KindEmployeeNotFound, decode[ErrorResponse](t, rec).Code, path)
	}
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

func TestRequestFlow_SubmitApproveCancel(t *testing.T) {
	// GIVEN: EMP001 with 25 annual days
	// WHEN: A 4 working day request is approved, then cancelled
	// THEN: Balance goes 25 -> 21 -> 25 and the request ends Cancelled
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.addEmployee(t, "EMP002")

	created := ts.submit(t, SubmitRequest{
		EmployeeID: "EMP001",
		LeaveType:  "annual leave",
		StartDate:  "2025-02-15",
		EndDate:    "20/02/2025",
		Reason:     "Family vacation",
	})
	assert.Equal(t, "LR001", created.ID)
	assert.Equal(t, 4, created.TotalDays)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, "Annual Leave", created.LeaveType)
	assert.Equal(t, "2025-02-20", created.EndDate)
	assert.Equal(t, "2025-02-10", created.AppliedDate)
	assert.Empty(t, created.ApprovedDate)
	assert.False(t, created.Decided)
	assert.Equal(t, 25, annualBalance(t, ts, "EMP001").Remaining, "submission does not debit")

	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR Manager", Decision: "Approved", Comments: "Enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[RequestDTO](t, rec)
	assert.Equal(t, "Approved", approved.Status)
	assert.Equal(t, "HR Manager", approved.ApprovedBy)
	assert.Equal(t, "2025-02-10", approved.ApprovedDate)
	assert.True(t, approved.Decided)

	b := annualBalance(t, ts, "EMP001")
	assert.Equal(t, 4, b.Used)
	assert.Equal(t, 21, b.Remaining)

	// Decided requests cannot be decided again
	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR Manager", Decision: "Rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, leave.KindInvalidTransition, resp.Code)
	assert.Equal(t, map[string]any{"request_id": "LR001", "from": "Approved", "to": "Rejected"}, resp.Details)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/cancel", CancelRequest{EmployeeID: "EMP002"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, leave.KindNotAuthorized, decode[ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/cancel", CancelRequest{EmployeeID: "EMP001"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[RequestDTO](t, rec)
	assert.Equal(t, "Cancelled", cancelled.Status)
	assert.Equal(t, leave.CancellationComment, cancelled.Comments)
	assert.True(t, cancelled.Decided, "cancelling keeps the approval record")

	b = annualBalance(t, ts, "EMP001")
	assert.Equal(t, 0, b.Used)
	assert.Equal(t, 25, b.Remaining)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/cancel", CancelRequest{EmployeeID: "EMP001"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/requests/LR001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cancelled", decode[RequestDTO](t, rec).Status)
}

func TestSubmitRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   SubmitRequest
		status int
		code   string
	}{
		{"invalid leave type", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Vacation", StartDate: "2025-02-17", EndDate: "2025-02-17"}, http.StatusBadRequest, leave.KindInvalidLeaveType},
		{"bad start date", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "17.02.2025", EndDate: "2025-02-17"}, http.StatusBadRequest, leave.KindInvalidDateFormat},
		{"end before start", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-18", EndDate: "2025-02-17"}, http.StatusBadRequest, leave.KindInvalidDateRange},
		{"past start", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-07", EndDate: "2025-02-17"}, http.StatusUnprocessableEntity, leave.KindPastDateNotAllowed},
		{"insufficient", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Personal Leave", StartDate: "2025-02-17", EndDate: "2025-02-24"}, http.StatusUnprocessableEntity, leave.KindInsufficientBalance},
		{"unknown employee", SubmitRequest{EmployeeID: "EMP404", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "2025-02-17"}, http.StatusNotFound, leave.KindEmployeeNotFound},
		{"missing field", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-17"}, http.StatusBadRequest, CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.addEmployee(t, "EMP001")

			rec := ts.do(t, http.MethodPost, "/api/requests", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)

			reqs, err := ts.svc.ListRequests(context.Background(), leave.RequestFilter{})
			require.NoError(t, err)
			assert.Empty(t, reqs)
		})
	}
}

func TestSubmitRequest_ErrorDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")

	rec := ts.do(t, http.MethodPost, "/api/requests", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Personal Leave", StartDate: "2025-02-17", EndDate: "2025-02-24"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	details, ok := decode[ErrorResponse](t, rec).Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), details["available"])
	assert.Equal(t, float64(6), details["requested"])
	assert.Equal(t, "Personal Leave", details["leave_type"])

	rec = ts.do(t, http.MethodPost, "/api/requests", SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "tomorrow"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"field": "end_date", "value": "tomorrow"}, decode[ErrorResponse](t, rec).Details)
}

func TestDecideRequest_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "2025-02-17"})

	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Decision: "Approved"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "approver is required", decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR", Decision: "Pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, leave.KindInvalidDecision, decode[ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR999/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, leave.KindRequestNotFound, decode[ErrorResponse](t, rec).Code)

	// A missing request wins over a bad decision
	rec = ts.do(t, http.MethodPost, "/api/requests/LR999/decision", DecisionRequest{Approver: "HR", Decision: "Pending"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, leave.KindRequestNotFound, decode[ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/api/requests/LR999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR999/cancel", CancelRequest{EmployeeID: "EMP001"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecideRequest_ApprovalRecheck(t *testing.T) {
	// GIVEN: Two Pending 4 day Personal Leave requests against 5 days
	// WHEN: Both are approved
	// THEN: The second approval answers 422 and stays Pending
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Personal Leave", StartDate: "2025-02-17", EndDate: "2025-02-20"})
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Personal Leave", StartDate: "2025-03-03", EndDate: "2025-03-06"})

	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/requests/LR002/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/requests?status=Pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]RequestDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, "LR002", pending[0].ID)
}

func TestDecideRequest_OmittedDecisionApproves(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "2025-02-18"})

	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", `{"approver":"HR"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Approved", decode[RequestDTO](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/employees/EMP001/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]BalanceDTO](t, rec)
	assert.Equal(t, string(leave.SickLeave), rows[1].LeaveType)
	assert.Equal(t, 2, rows[1].Used)
}

func TestListRequests_Filters(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.addEmployee(t, "EMP002")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "2025-02-17"})
	ts.submit(t, SubmitRequest{EmployeeID: "EMP002", LeaveType: "Sick Leave", StartDate: "2025-02-17", EndDate: "2025-02-17"})
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Annual Leave", StartDate: "2025-02-18", EndDate: "2025-02-18"})

	rec := ts.do(t, http.MethodPost, "/api/requests/LR003/decision", DecisionRequest{Approver: "HR", Decision: "Rejected"})
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"LR001", "LR002", "LR003"}},
		{"?employee_id=EMP001", []string{"LR001", "LR003"}},
		{"?status=Rejected", []string{"LR003"}},
		{"?employee_id=EMP002&status=Rejected", []string{}},
	}
	for _, tt := range tests {
		rec := ts.do(t, http.MethodGet, "/api/requests"+tt.query, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		ids := []string{}
		for _, r := range decode[[]RequestDTO](t, rec) {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, tt.want, ids, tt.query)
	}
}

// =============================================================================
// REPORTING
// =============================================================================

func TestListBalances(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP002")
	ts.addEmployee(t, "EMP001")

	rec := ts.do(t, http.MethodGet, "/api/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]BalanceDTO](t, rec)
	require.Len(t, rows, 10)
	assert.Equal(t, "EMP002", rows[0].EmployeeID, "employee insertion order")
	assert.Equal(t, "Paternity Leave", rows[4].LeaveType)
	assert.Equal(t, "EMP001", rows[5].EmployeeID)

	rec = ts.do(t, http.MethodGet, "/api/balances?employee_id=EMP001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]BalanceDTO](t, rec), 5)
}

func TestGetSummary(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	ts.addEmployee(t, "EMP001")
	for _, day := range []string{"2025-02-17", "2025-02-18", "2025-02-19"} {
		ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Sick Leave", StartDate: day, EndDate: day})
	}
	rec = ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/summary?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, float64(3), summary["total_requests"])
	assert.Equal(t, float64(1), summary["approved"])
	assert.Equal(t, float64(2), summary["pending"])
	assert.Equal(t, float64(1), summary["total_days_approved"])
	assert.Equal(t, "33.33", summary["approval_rate"])

	rec = ts.do(t, http.MethodGet, "/api/summary?year=2024", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/summary?year=last", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidQuery, decode[ErrorResponse](t, rec).Code)
}

func TestVerifyBalances(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")

	rec := ts.do(t, http.MethodGet, "/api/balances/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "consistent"}, decode[map[string]string](t, rec))

	// Row edited behind the journal's back
	b, err := ts.store.GetBalance(context.Background(), "EMP001", leave.SickLeave)
	require.NoError(t, err)
	b.Used, b.Remaining = 2, 13
	require.NoError(t, ts.store.SaveBalance(context.Background(), *b))

	rec = ts.do(t, http.MethodGet, "/api/balances/verify", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, leave.KindInvariantViolation, resp.Code)
	assert.Equal(t, "Balance verification failed", resp.Error)
}

func TestGetLastVerification(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")

	// GIVEN: No scheduler attached
	rec := ts.do(t, http.MethodGet, "/api/balances/verify/last", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// GIVEN: A scheduler over the service that has run once
	vs := NewVerificationScheduler(ts.svc, time.Hour, nil)
	ts.handler.AttachScheduler(vs)
	rec = ts.do(t, http.MethodGet, "/api/balances/verify/last", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "not run yet")

	vs.Start()
	require.Eventually(t, func() bool { return vs.LastRun() != nil }, time.Second, 5*time.Millisecond)
	vs.Stop()

	rec = ts.do(t, http.MethodGet, "/api/balances/verify/last", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[VerificationRunDTO](t, rec)
	assert.Equal(t, "consistent", run.Status)
	assert.Empty(t, run.Error)

	// GIVEN: A failed run
	failing := NewVerificationScheduler(&countingVerifier{err: errors.New("drift")}, time.Hour, nil)
	ts.handler.AttachScheduler(failing)
	failing.Start()
	require.Eventually(t, func() bool { return failing.LastRun() != nil }, time.Second, 5*time.Millisecond)
	failing.Stop()

	rec = ts.do(t, http.MethodGet, "/api/balances/verify/last", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run = decode[VerificationRunDTO](t, rec)
	assert.Equal(t, "inconsistent", run.Status)
	assert.Equal(t, "drift", run.Error)
}

func TestGetEmployeeJournal(t *testing.T) {
	ts := newTestServer(t)
	ts.addEmployee(t, "EMP001")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Annual Leave", StartDate: "2025-02-17", EndDate: "2025-02-20"})
	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/EMP001/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]JournalEntryDTO](t, rec), 6)

	rec = ts.do(t, http.MethodGet, "/api/employees/EMP001/journal?leave_type=annual%20leave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]JournalEntryDTO](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "grant", entries[0].Type)
	assert.Equal(t, 25, entries[0].Days)
	assert.Equal(t, "consumption", entries[1].Type)
	assert.Equal(t, -4, entries[1].Days)
	assert.Equal(t, "LR001", entries[1].ReferenceID)
	assert.Equal(t, 2025, entries[1].Year)
	assert.NotEmpty(t, entries[1].ID)

	rec = ts.do(t, http.MethodGet, "/api/employees/EMP404/journal", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/EMP001/journal?leave_type=Holiday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, leave.KindInvalidLeaveType, decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestStatusFor_EveryKind(t *testing.T) {
	tests := map[string]int{
		leave.KindInvalidEmployee:     http.StatusBadRequest,
		leave.KindInvalidLeaveType:    http.StatusBadRequest,
		leave.KindInvalidDateFormat:   http.StatusBadRequest,
		leave.KindInvalidDateRange:    http.StatusBadRequest,
		leave.KindInvalidDecision:     http.StatusBadRequest,
		leave.KindNotAuthorized:       http.StatusForbidden,
		leave.KindEmployeeNotFound:    http.StatusNotFound,
		leave.KindRequestNotFound:     http.StatusNotFound,
		leave.KindDuplicateEmployee:   http.StatusConflict,
		leave.KindInvalidTransition:   http.StatusConflict,
		leave.KindInsufficientBalance: http.StatusUnprocessableEntity,
		leave.KindPastDateNotAllowed:  http.StatusUnprocessableEntity,
		leave.KindInvariantViolation:  http.StatusInternalServerError,
		leave.KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, statusFor(kind), kind)
	}
}

func TestWriteDomainError_InternalHidesMessage(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	rec := httptest.NewRecorder()

	h.writeDomainError(rec, "Failed to list employees", fmt.Errorf("list employees: %w", errors.New("disk I/O error")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Failed to list employees", resp.Error)
	assert.Equal(t, leave.KindInternal, resp.Code)
}

func TestHandlers_SQLiteStore(t *testing.T) {
	// GIVEN: The router over a SQLite store
	// WHEN: An employee submits and gets approval
	// THEN: The balance change is visible through the API
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := generic.FixedClock(testToday)
	svc := leave.NewService(store, leave.Options{Clock: clock})
	ts := &testServer{router: NewRouter(NewHandler(svc, clock, nil), nil), svc: svc, store: store}

	ts.addEmployee(t, "EMP001")
	ts.submit(t, SubmitRequest{EmployeeID: "EMP001", LeaveType: "Annual Leave", StartDate: "2025-02-17", EndDate: "2025-02-21"})
	rec := ts.do(t, http.MethodPost, "/api/requests/LR001/decision", DecisionRequest{Approver: "HR", Decision: "Approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 20, annualBalance(t, ts, "EMP001").Remaining)
}
