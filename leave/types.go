// Package leave implements the leave engine: entitlements, the balance ledger,
// the employee directory, the request lifecycle and reporting.
// It uses the generic package for dates, amounts and the journal.
package leave

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveType is one of the five supported kinds of leave.
type LeaveType string

const (
	AnnualLeave    LeaveType = "Annual Leave"
	SickLeave      LeaveType = "Sick Leave"
	PersonalLeave  LeaveType = "Personal Leave"
	MaternityLeave LeaveType = "Maternity Leave"
	PaternityLeave LeaveType = "Paternity Leave"
)

// DefaultAnnualEntitlement applies when an employee is created without one.
const DefaultAnnualEntitlement = 25

// LeaveTypes lists the leave types in display order.
var LeaveTypes = []LeaveType{AnnualLeave, SickLeave, PersonalLeave, MaternityLeave, PaternityLeave}

// fixedEntitlements holds the yearly days for every type except Annual Leave,
// which comes from the employee record.
var fixedEntitlements = map[LeaveType]int{
	SickLeave:      15,
	PersonalLeave:  5,
	MaternityLeave: 90,
	PaternityLeave: 15,
}

// Entitlement returns the yearly days of lt for an employee whose annual
// entitlement is annual.
func (lt LeaveType) Entitlement(annual int) int {
	if lt == AnnualLeave {
		return annual
	}
	return fixedEntitlements[lt]
}

func (lt LeaveType) Valid() bool {
	for _, t := range LeaveTypes {
		if t == lt {
			return true
		}
	}
	return false
}

func (lt LeaveType) String() string { return string(lt) }

// ParseLeaveType matches s against the supported types ignoring case and
// surrounding or repeated whitespace.
func ParseLeaveType(s string) (LeaveType, error) {
	normalized := LeaveType(cases.Title(language.English).String(strings.Join(strings.Fields(s), " ")))
	if !normalized.Valid() {
		return "", &LeaveTypeError{Value: s}
	}
	return normalized, nil
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a directory record. AnnualEntitlement is fixed at creation.
type Employee struct {
	ID                string
	Name              string
	Department        string
	Position          string
	Email             string
	Phone             string
	JoinDate          generic.TimePoint
	AnnualEntitlement int
	CreatedAt         time.Time
}

// EmployeeInput carries the caller-supplied attributes of a new employee.
// Nil Entitlement means DefaultAnnualEntitlement; empty JoinDate means today.
type EmployeeInput struct {
	ID          string
	Name        string
	Department  string
	Position    string
	Email       string
	Phone       string
	JoinDate    string
	Entitlement *int
}

// =============================================================================
// BALANCE
// =============================================================================

// Balance is the LeaveTypeBalance row of one employee, leave type and year.
type Balance struct {
	EmployeeID   string
	EmployeeName string
	LeaveType    LeaveType
	Year         int
	Total        int
	Used         int
	Remaining    int
}

// Key returns the journal bucket of the balance.
func (b Balance) Key() generic.BucketKey {
	return generic.BucketKey{EntityID: generic.EntityID(b.EmployeeID), Resource: string(b.LeaveType), Year: b.Year}
}

// Consistent reports whether Used + Remaining == Total with neither negative.
func (b Balance) Consistent() bool {
	return b.Used >= 0 && b.Remaining >= 0 && b.Used+b.Remaining == b.Total
}

// =============================================================================
// REQUEST
// =============================================================================

// Status of a leave request. Decisions other than Approved and Rejected are
// stored verbatim, so Status is an open string type.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// CancellationComment replaces a request's comments when it is cancelled.
const CancellationComment = "Cancelled by employee"

// RequestIDPrefix starts every request identifier.
const RequestIDPrefix = "LR"

// FormatRequestID renders sequence n as LR001, LR002, ... LR999, LR1000.
func FormatRequestID(n int) string {
	return fmt.Sprintf("%s%03d", RequestIDPrefix, n)
}

// Request is a leave request. EmployeeName is captured at submission.
type Request struct {
	ID           string
	Sequence     int
	EmployeeID   string
	EmployeeName string
	LeaveType    LeaveType
	StartDate    generic.TimePoint
	EndDate      generic.TimePoint
	TotalDays    int
	Reason       string
	Status       Status
	AppliedDate  generic.TimePoint

	// Set once a decision is made
	ApprovedBy   string
	ApprovedDate generic.TimePoint
	Comments     string
}

// Period returns the requested day range.
func (r Request) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// Decided reports whether the request left Pending through a decision.
func (r Request) Decided() bool {
	return r.ApprovedBy != "" || !r.ApprovedDate.IsZero()
}
