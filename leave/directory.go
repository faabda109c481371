package leave

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// Directory registers employees and seeds their balance rows.
type Directory struct {
	store  Store
	ledger *BalanceLedger
	clock  generic.Clock
	logger *zap.Logger
}

func NewDirectory(store Store, ledger *BalanceLedger, clock generic.Clock, logger *zap.Logger) *Directory {
	if clock == nil {
		clock = generic.Today
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, ledger: ledger, clock: clock, logger: logger.Named("leave.directory")}
}

// Add validates in, stores the employee and initializes its balances for the
// current year. Both writes happen in one transaction.
func (d *Directory) Add(ctx context.Context, in EmployeeInput) (Employee, error) {
	emp, err := d.build(in)
	if err != nil {
		d.logger.Warn("employee rejected", zap.String("employee_id", in.ID), zap.Error(err))
		return Employee{}, err
	}

	err = d.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetEmployee(ctx, emp.ID)
		if err != nil {
			return fmt.Errorf("load employee %s: %w", emp.ID, err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateEmployee, emp.ID)
		}
		if err := tx.SaveEmployee(ctx, emp); err != nil {
			return fmt.Errorf("save employee %s: %w", emp.ID, err)
		}
		return d.ledger.on(tx).Initialize(ctx, emp.ID, emp.Name, emp.AnnualEntitlement, d.clock().Year())
	})
	if err != nil {
		if IsClientError(err) {
			d.logger.Warn("employee rejected", zap.String("employee_id", emp.ID), zap.Error(err))
		} else {
			d.logger.Error("add employee failed", zap.String("employee_id", emp.ID), zap.Error(err))
		}
		return Employee{}, err
	}

	d.logger.Info("employee added",
		zap.String("employee_id", emp.ID),
		zap.String("department", emp.Department),
		zap.Int("annual_entitlement", emp.AnnualEntitlement))
	return emp, nil
}

func (d *Directory) build(in EmployeeInput) (Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Employee{}, &EmployeeError{Reason: "id is required"}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Employee{}, &EmployeeError{ID: id, Reason: "name is required"}
	}

	entitlement := DefaultAnnualEntitlement
	if in.Entitlement != nil {
		entitlement = *in.Entitlement
	}
	if entitlement < 0 {
		return Employee{}, &EmployeeError{ID: id, Reason: fmt.Sprintf("annual entitlement %d is negative", entitlement)}
	}

	joinDate := d.clock()
	if strings.TrimSpace(in.JoinDate) != "" {
		parsed, err := generic.ParseDate(in.JoinDate)
		if err != nil {
			return Employee{}, &EmployeeError{ID: id, Reason: fmt.Sprintf("join date %q is not a valid date", in.JoinDate)}
		}
		joinDate = parsed
	}

	return Employee{
		ID:                id,
		Name:              name,
		Department:        strings.TrimSpace(in.Department),
		Position:          strings.TrimSpace(in.Position),
		Email:             strings.TrimSpace(in.Email),
		Phone:             strings.TrimSpace(in.Phone),
		JoinDate:          joinDate,
		AnnualEntitlement: entitlement,
		CreatedAt:         d.clock().Time,
	}, nil
}

// Lookup returns the employee with id or ErrEmployeeNotFound.
func (d *Directory) Lookup(ctx context.Context, id string) (Employee, error) {
	emp, err := d.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, fmt.Errorf("load employee %s: %w", id, err)
	}
	if emp == nil {
		return Employee{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	return *emp, nil
}

// List returns all employees in insertion order.
func (d *Directory) List(ctx context.Context) ([]Employee, error) {
	emps, err := d.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return emps, nil
}
