package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

var _ repository.FinanceRepository = (*FinanceRepo)(nil)

// FinanceRepo implementación del puerto FinanceRepository sobre PostgreSQL.
type FinanceRepo struct {
	q Querier
}

// NewFinanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFinanceRepository(q Querier) *FinanceRepo {
	return &FinanceRepo{q: q}
}

// GetIncomeByReference localiza el ingreso de un ítem por su referencia
// polimórfica, nunca por id directo.
func (r *FinanceRepo) GetIncomeByReference(referenceType, referenceID string) (*entity.Income, error) {
	var inc entity.Income
	err := r.q.QueryRow(context.Background(),
		`SELECT id, date, amount, concept, category, reference_type, reference_id, created_by
		 FROM incomes WHERE reference_type = $1 AND reference_id = $2`,
		referenceType, referenceID).Scan(
		&inc.ID, &inc.Date, &inc.Amount, &inc.Concept, &inc.Category,
		&inc.ReferenceType, &inc.ReferenceID, &inc.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get income by reference: %w", err)
	}
	return &inc, nil
}

// CreateIncome persiste un ingreso.
func (r *FinanceRepo) CreateIncome(income *entity.Income) error {
	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	_, err := r.q.Exec(context.Background(),
		`INSERT INTO incomes (id, date, amount, concept, category, reference_type, reference_id, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		income.ID, income.Date, income.Amount, income.Concept, income.Category,
		income.ReferenceType, income.ReferenceID, income.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert income: %w", err)
	}
	return nil
}

// UpdateIncome actualiza monto/fecha/concepto de un ingreso existente.
func (r *FinanceRepo) UpdateIncome(income *entity.Income) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE incomes SET date = $2, amount = $3, concept = $4, category = $5 WHERE id = $1`,
		income.ID, income.Date, income.Amount, income.Concept, income.Category)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteIncome elimina un ingreso (reversión de pago).
func (r *FinanceRepo) DeleteIncome(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM incomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return nil
}

// CreateExpense persiste un gasto (compras de inventario con precio).
func (r *FinanceRepo) CreateExpense(expense *entity.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	_, err := r.q.Exec(context.Background(),
		`INSERT INTO expenses (id, date, amount, concept, category, reference_type, reference_id, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		expense.ID, expense.Date, expense.Amount, expense.Concept, expense.Category,
		expense.ReferenceType, expense.ReferenceID, expense.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}
