/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes leave.Service via a REST API. Handles HTTP request/response,
  JSON serialization and body validation, and delegates to the service.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List employees
    POST   /api/employees                 Create employee (+ balances)
    GET    /api/employees/{id}            Get employee details
    GET    /api/employees/{id}/balances   Balances of one employee
    GET    /api/employees/{id}/journal    Balance journal (?leave_type=)

  Requests:
    GET    /api/requests                  List (?employee_id=&status=)
    POST   /api/requests                  Submit leave request
    GET    /api/requests/{id}             Get request
    POST   /api/requests/{id}/decision    Approve / reject
    POST   /api/requests/{id}/cancel      Cancel own request

  Reporting:
    GET    /api/balances                  All balances (?employee_id=)
    GET    /api/balances/verify           Replay the journal against rows
    GET    /api/balances/verify/last      Last scheduled verification
    GET    /api/summary                   Annual summary (?year=)

  Scenarios:
    GET    /api/scenarios                 List demo scenarios
    GET    /api/scenarios/current         Currently loaded scenario
    POST   /api/scenarios/load            Reset + load a scenario
    POST   /api/scenarios/reset           Reset the store

REQUEST FLOW:
  1. Decode JSON body
  2. Validate shape (validator/v10 tags on the DTO)
  3. Call leave.Service
  4. Serialize response DTO
  5. Map errors through leave.Kind

ERROR HANDLING:
  Errors are returned as ErrorResponse{error, code, details}:
  - 400: Invalid body, validation, leave type, date format or range, decision
  - 403: Cancelling someone else's request
  - 404: Employee or request not found
  - 409: Duplicate employee, invalid state transition
  - 422: Insufficient balance, past start date
  - 500: Invariant violations and store failures

SECURITY NOTE:
  No authentication. The approver and the cancelling employee are taken
  from the request body as given.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Error codes produced by the HTTP layer itself. Domain failures use the
// codes of leave.Kind.
const (
	CodeInvalidBody      = "invalid_body"
	CodeValidationFailed = "validation_failed"
	CodeUnknownScenario  = "unknown_scenario"
	CodeInvalidQuery     = "invalid_query"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	svc      *leave.Service
	validate *validator.Validate
	clock    generic.Clock
	logger   *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string

	scheduler *VerificationScheduler
}

// NewHandler creates a handler over svc. clock anchors scenario dates and
// should be the one the service uses.
func NewHandler(svc *leave.Service, clock generic.Clock, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = generic.Today
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		validate: newValidator(),
		clock:    clock,
		logger:   logger.Named("api"),
	}
}

// AttachScheduler exposes the last run of s through
// GET /api/balances/verify/last.
func (h *Handler) AttachScheduler(s *VerificationScheduler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scheduler = s
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees in insertion order.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee adds an employee and initializes their balances.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.bind(w, r, &req) {
		return
	}

	emp, err := h.svc.CreateEmployee(r.Context(), req.input())
	if err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.svc.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// GetEmployeeBalances returns the five balance rows of one employee.
func (h *Handler) GetEmployeeBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.svc.GetEmployee(ctx, id); err != nil {
		h.writeDomainError(w, "Failed to get balances", err)
		return
	}
	rows, err := h.svc.ListBalances(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get balances", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTOs(rows))
}

// GetEmployeeJournal returns the balance journal of one employee.
func (h *Handler) GetEmployeeJournal(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.Journal(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("leave_type"))
	if err != nil {
		h.writeDomainError(w, "Failed to get journal", err)
		return
	}
	writeJSON(w, http.StatusOK, toJournalEntryDTOs(txs))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListRequests returns requests filtered by employee_id and status.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leave.RequestFilter{
		EmployeeID: q.Get("employee_id"),
		Status:     leave.Status(q.Get("status")),
	}

	reqs, err := h.svc.ListRequests(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// SubmitRequest stores a new Pending leave request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !h.bind(w, r, &req) {
		return
	}

	created, err := h.svc.Submit(r.Context(), leave.SubmitInput{
		EmployeeID: req.EmployeeID,
		LeaveType:  req.LeaveType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// GetRequest returns one leave request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// DecideRequest records an approver's decision.
func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.bind(w, r, &req) {
		return
	}

	decided, err := h.svc.Decide(r.Context(), leave.DecideInput{
		RequestID: chi.URLParam(r, "id"),
		Approver:  req.Approver,
		Decision:  req.Decision,
		Comments:  req.Comments,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to decide request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(decided))
}

// CancelRequest cancels a request on behalf of its owner.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !h.bind(w, r, &req) {
		return
	}

	cancelled, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), req.EmployeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to cancel request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(cancelled))
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// ListBalances returns balance rows, optionally for one employee.
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListBalances(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		h.writeDomainError(w, "Failed to list balances", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTOs(rows))
}

// VerifyBalances replays the journal of every balance row.
func (h *Handler) VerifyBalances(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyBalances(r.Context(), r.URL.Query().Get("employee_id")); err != nil {
		h.writeDomainError(w, "Balance verification failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

// GetLastVerification returns the last scheduled verification, or 204 when
// the scheduler is off or has not run yet.
func (h *Handler) GetLastVerification(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	s := h.scheduler
	h.mu.Unlock()

	if s == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	run := s.LastRun()
	if run == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationRunDTO(run))
}

// GetSummary returns the annual summary, or 204 when the year has no requests.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y <= 0 {
			writeError(w, http.StatusBadRequest, CodeInvalidQuery, "Invalid year", err)
			return
		}
		year = y
	}

	summary, err := h.svc.AnnualSummary(r.Context(), year)
	if err != nil {
		h.writeDomainError(w, "Failed to build summary", err)
		return
	}
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// =============================================================================
// HELPERS
// =============================================================================

// bind decodes the JSON body into dst and validates it, writing a 400 and
// returning false on failure.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err), err)
		return false
	}
	return true
}

// validationMessage describes the first failing field.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// statusFor maps a leave.Kind code to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case leave.KindInvalidEmployee,
		leave.KindInvalidLeaveType,
		leave.KindInvalidDateFormat,
		leave.KindInvalidDateRange,
		leave.KindInvalidDecision:
		return http.StatusBadRequest
	case leave.KindNotAuthorized:
		return http.StatusForbidden
	case leave.KindEmployeeNotFound, leave.KindRequestNotFound:
		return http.StatusNotFound
	case leave.KindDuplicateEmployee, leave.KindInvalidTransition:
		return http.StatusConflict
	case leave.KindInsufficientBalance, leave.KindPastDateNotAllowed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorDetails exposes the context carried by structured domain errors.
func errorDetails(err error) any {
	var balErr *leave.InsufficientBalanceError
	if errors.As(err, &balErr) {
		return map[string]any{
			"employee_id": balErr.EmployeeID,
			"leave_type":  string(balErr.LeaveType),
			"available":   balErr.Available,
			"requested":   balErr.Requested,
		}
	}
	var dateErr *leave.DateFormatError
	if errors.As(err, &dateErr) {
		return map[string]string{"field": dateErr.Field, "value": dateErr.Value}
	}
	var trErr *leave.TransitionError
	if errors.As(err, &trErr) {
		return map[string]string{"request_id": trErr.RequestID, "from": string(trErr.From), "to": string(trErr.To)}
	}
	return err.Error()
}

// writeDomainError answers with the status and code of err's kind. Server
// side failures are logged and their message is not echoed as the error.
func (h *Handler) writeDomainError(w http.ResponseWriter, fallback string, err error) {
	kind := leave.Kind(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		h.logger.Error(fallback, zap.String("code", kind), zap.Error(err))
		writeJSON(w, status, ErrorResponse{Error: fallback, Code: kind, Details: err.Error()})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: kind, Details: errorDetails(err)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
