/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:  EmployeeDTO, CreateEmployeeRequest
  Balance:   BalanceDTO
  Request:   SubmitRequest, RequestDTO, DecisionRequest, CancelRequest
  Summary:   SummaryDTO
  Journal:   JournalEntryDTO, VerificationRunDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request bodies carry validator/v10 tags for shape checks (required
  fields, email format). Domain rules such as date formats, leave types
  and balances stay in the leave package so every caller gets them.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Department        string `json:"department,omitempty"`
	Position          string `json:"position,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	JoinDate          string `json:"join_date"`
	AnnualEntitlement int    `json:"annual_entitlement"`
}

// CreateEmployeeRequest is the request body for creating an employee.
// A missing annual_entitlement means the default of 25 days.
type CreateEmployeeRequest struct {
	ID                string `json:"id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Department        string `json:"department"`
	Position          string `json:"position"`
	Email             string `json:"email" validate:"omitempty,email"`
	Phone             string `json:"phone"`
	JoinDate          string `json:"join_date"`
	AnnualEntitlement *int   `json:"annual_entitlement" validate:"omitempty,gte=0"`
}

func (r CreateEmployeeRequest) input() leave.EmployeeInput {
	return leave.EmployeeInput{
		ID:          r.ID,
		Name:        r.Name,
		Department:  r.Department,
		Position:    r.Position,
		Email:       r.Email,
		Phone:       r.Phone,
		JoinDate:    r.JoinDate,
		Entitlement: r.AnnualEntitlement,
	}
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                e.ID,
		Name:              e.Name,
		Department:        e.Department,
		Position:          e.Position,
		Email:             e.Email,
		Phone:             e.Phone,
		JoinDate:          formatDate(e.JoinDate),
		AnnualEntitlement: e.AnnualEntitlement,
	}
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceDTO is one leave type balance of an employee.
type BalanceDTO struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	LeaveType    string `json:"leave_type"`
	Year         int    `json:"year"`
	Total        int    `json:"total_days"`
	Used         int    `json:"used_days"`
	Remaining    int    `json:"remaining_days"`
}

func toBalanceDTOs(rows []leave.Balance) []BalanceDTO {
	dtos := make([]BalanceDTO, len(rows))
	for i, b := range rows {
		dtos[i] = BalanceDTO{
			EmployeeID:   b.EmployeeID,
			EmployeeName: b.EmployeeName,
			LeaveType:    string(b.LeaveType),
			Year:         b.Year,
			Total:        b.Total,
			Used:         b.Used,
			Remaining:    b.Remaining,
		}
	}
	return dtos
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitRequest is the request body for a new leave request.
// Dates accept YYYY-MM-DD, DD/MM/YYYY, MM/DD/YYYY or DD-MM-YYYY.
type SubmitRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	LeaveType  string `json:"leave_type" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	Reason     string `json:"reason"`
}

// DecisionRequest is the request body for approving or rejecting a request.
// The decision value itself is checked by the lifecycle; omitted means
// Approved.
type DecisionRequest struct {
	Approver string `json:"approver" validate:"required"`
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

// CancelRequest identifies the employee cancelling their own request.
type CancelRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	LeaveType    string `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalDays    int    `json:"total_days"`
	Reason       string `json:"reason"`
	Status       string `json:"status"`
	AppliedDate  string `json:"applied_date"`
	ApprovedBy   string `json:"approved_by,omitempty"`
	ApprovedDate string `json:"approved_date,omitempty"`
	Comments     string `json:"comments,omitempty"`
	Decided      bool   `json:"decided"`
}

func toRequestDTO(r leave.Request) RequestDTO {
	return RequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    string(r.LeaveType),
		StartDate:    formatDate(r.StartDate),
		EndDate:      formatDate(r.EndDate),
		TotalDays:    r.TotalDays,
		Reason:       r.Reason,
		Status:       string(r.Status),
		AppliedDate:  formatDate(r.AppliedDate),
		ApprovedBy:   r.ApprovedBy,
		ApprovedDate: formatDate(r.ApprovedDate),
		Comments:     r.Comments,
		Decided:      r.Decided(),
	}
}

func toRequestDTOs(reqs []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

// =============================================================================
// SUMMARY
// =============================================================================

// SummaryDTO is the annual request summary.
type SummaryDTO struct {
	Year               int             `json:"year"`
	TotalRequests      int             `json:"total_requests"`
	Approved           int             `json:"approved"`
	Pending            int             `json:"pending"`
	Rejected           int             `json:"rejected"`
	Cancelled          int             `json:"cancelled"`
	ByStatus           map[string]int  `json:"by_status"`
	TotalDaysRequested int             `json:"total_days_requested"`
	TotalDaysApproved  int             `json:"total_days_approved"`
	ApprovalRate       decimal.Decimal `json:"approval_rate"`
}

func toSummaryDTO(s *leave.Summary) SummaryDTO {
	byStatus := make(map[string]int, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[string(status)] = n
	}
	return SummaryDTO{
		Year:               s.Year,
		TotalRequests:      s.TotalRequests,
		Approved:           s.Approved,
		Pending:            s.Pending,
		Rejected:           s.Rejected,
		Cancelled:          s.Cancelled,
		ByStatus:           byStatus,
		TotalDaysRequested: s.TotalDaysRequested,
		TotalDaysApproved:  s.TotalDaysApproved,
		ApprovalRate:       s.ApprovalRate,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// JOURNAL
// =============================================================================

// JournalEntryDTO is one balance journal entry. Days is signed: grants and
// reversals are positive, consumptions negative.
type JournalEntryDTO struct {
	ID          string `json:"id"`
	LeaveType   string `json:"leave_type"`
	Year        int    `json:"year"`
	Days        int    `json:"days"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toJournalEntryDTOs(txs []generic.Transaction) []JournalEntryDTO {
	dtos := make([]JournalEntryDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = JournalEntryDTO{
			ID:          string(tx.ID),
			LeaveType:   tx.Resource,
			Year:        tx.Year,
			Days:        tx.Delta.IntPart(),
			Type:        string(tx.Type),
			ReferenceID: tx.ReferenceID,
			Reason:      tx.Reason,
			CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return dtos
}

// VerificationRunDTO is the outcome of the last scheduled verification.
type VerificationRunDTO struct {
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func toVerificationRunDTO(run *VerificationRun) VerificationRunDTO {
	dto := VerificationRunDTO{
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration.Milliseconds(),
		Status:     "consistent",
	}
	if run.Err != nil {
		dto.Status = "inconsistent"
		dto.Error = run.Err.Error()
	}
	return dto
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// formatDate renders a day as YYYY-MM-DD, or "" when unset.
func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}
