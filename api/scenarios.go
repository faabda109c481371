/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  data for demos. Every scenario goes through leave.Service, so balances,
  journal entries and request ids are produced exactly as in normal use.

AVAILABLE SCENARIOS:
  default:     Five employees, one approved annual leave, one approved
               sick leave and one pending personal leave
  contention:  Two personal leave requests competing for the same days
  empty:       Nothing, the store is only reset

DATES:
  Request dates are relative to the clock's today so that no scenario ever
  submits a past start date. The anchor is the first Monday at least a week
  ahead.

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create employees (balances are initialized by the directory)
 3. Submit requests
 4. Decide some of them

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "default"}

ADDING NEW SCENARIOS:
 1. Add to 'Scenarios' with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, svc, anchor)
 3. Register it in 'loaders'

NOTE:
  Loading a scenario resets the store. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Router-facing handlers
  - cmd/server/main.go: LEAVE_SEED loads the default scenario at startup
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// DefaultScenario is loaded by LEAVE_SEED.
const DefaultScenario = "default"

// Scenarios lists the available demo scenarios.
var Scenarios = []ScenarioDTO{
	{
		ID:          DefaultScenario,
		Name:        "Default Company",
		Description: "Five employees with an approved annual leave, an approved sick leave and a pending personal leave",
	},
	{
		ID:          "contention",
		Name:        "Balance Contention",
		Description: "Two pending personal leave requests that cannot both be approved",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No employees, no requests",
	},
}

type scenarioLoader func(ctx context.Context, svc *leave.Service, anchor generic.TimePoint) error

var loaders = map[string]scenarioLoader{
	DefaultScenario: loadDefaultScenario,
	"contention":    loadContentionScenario,
	"empty":         func(context.Context, *leave.Service, generic.TimePoint) error { return nil },
}

// ErrUnknownScenario is returned by LoadScenario for an unregistered id.
var ErrUnknownScenario = errors.New("unknown scenario")

// LoadScenario resets svc and loads scenario id with dates relative to
// today.
func LoadScenario(ctx context.Context, svc *leave.Service, today generic.TimePoint, id string) error {
	load, ok := loaders[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	if err := svc.Reset(ctx); err != nil {
		return err
	}
	if err := load(ctx, svc, scenarioAnchor(today)); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	return nil
}

// scenarioAnchor returns the first Monday on or after today+7.
func scenarioAnchor(today generic.TimePoint) generic.TimePoint {
	d := today.AddDays(7)
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range Scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.bind(w, r, &req) {
		return
	}
	if _, ok := loaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, CodeUnknownScenario, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := LoadScenario(r.Context(), h.svc, h.clock(), req.ScenarioID); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetData clears every employee, balance, request and journal entry.
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.svc.Reset(r.Context()); err != nil {
		h.writeDomainError(w, "Failed to reset data", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var defaultEmployees = []leave.EmployeeInput{
	{ID: "EMP001", Name: "vibhanshu", Department: "IT", Position: "Developer", Email: "vibhanshu@gaincafe.com", Phone: "123-456-7890"},
	{ID: "EMP002", Name: "gaurav", Department: "HR", Position: "Manager", Email: "gaurav@gaincafe.com", Phone: "123-456-7891"},
	{ID: "EMP003", Name: "lakshay", Department: "SEO", Position: "Specialist", Email: "seo@gaincafe.com", Phone: "123-456-7892"},
	{ID: "EMP004", Name: "manasvi", Department: "Marketing", Position: "Coordinator", Email: "manasvi@gaincafe.com", Phone: "123-456-7893"},
	{ID: "EMP005", Name: "kanchi", Department: "HR", Position: "Assistant", Email: "hr@gaincafe.com", Phone: "123-456-7894"},
}

func createEmployees(ctx context.Context, svc *leave.Service, in []leave.EmployeeInput) error {
	for _, e := range in {
		if _, err := svc.CreateEmployee(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func loadDefaultScenario(ctx context.Context, svc *leave.Service, m generic.TimePoint) error {
	if err := createEmployees(ctx, svc, defaultEmployees); err != nil {
		return err
	}

	// Saturday to Thursday: 4 working days
	annual, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "EMP001",
		LeaveType:  string(leave.AnnualLeave),
		StartDate:  m.AddDays(-2).String(),
		EndDate:    m.AddDays(3).String(),
		Reason:     "Family vacation",
	})
	if err != nil {
		return err
	}
	if _, err := svc.Decide(ctx, leave.DecideInput{
		RequestID: annual.ID,
		Approver:  "HR Manager",
		Decision:  string(leave.StatusApproved),
		Comments:  "Approved as requested",
	}); err != nil {
		return err
	}

	sick, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "EMP002",
		LeaveType:  string(leave.SickLeave),
		StartDate:  m.AddDays(-7).String(),
		EndDate:    m.AddDays(-5).String(),
		Reason:     "Not feeling well",
	})
	if err != nil {
		return err
	}
	if _, err := svc.Decide(ctx, leave.DecideInput{
		RequestID: sick.ID,
		Approver:  "HR Manager",
		Decision:  string(leave.StatusApproved),
		Comments:  "Approved",
	}); err != nil {
		return err
	}

	_, err = svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "EMP003",
		LeaveType:  string(leave.PersonalLeave),
		StartDate:  m.AddDays(8).String(),
		EndDate:    m.AddDays(8).String(),
		Reason:     "Personal appointment",
	})
	return err
}

func loadContentionScenario(ctx context.Context, svc *leave.Service, m generic.TimePoint) error {
	if err := createEmployees(ctx, svc, defaultEmployees[:1]); err != nil {
		return err
	}

	// 5 Personal Leave days, two requests of 4
	first, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "EMP001",
		LeaveType:  string(leave.PersonalLeave),
		StartDate:  m.String(),
		EndDate:    m.AddDays(3).String(),
		Reason:     "House move",
	})
	if err != nil {
		return err
	}
	if _, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "EMP001",
		LeaveType:  string(leave.PersonalLeave),
		StartDate:  m.AddDays(14).String(),
		EndDate:    m.AddDays(17).String(),
		Reason:     "Wedding",
	}); err != nil {
		return err
	}
	_, err = svc.Decide(ctx, leave.DecideInput{
		RequestID: first.ID,
		Approver:  "HR Manager",
		Decision:  string(leave.StatusApproved),
	})
	return err
}
