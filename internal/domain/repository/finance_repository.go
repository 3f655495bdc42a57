package repository

import "github.com/masapan/erp-inventario/internal/domain/entity"

// FinanceRepository define el puerto de persistencia de ingresos y gastos.
// El ingreso de un ítem de pedido se localiza por (referenceType,
// referenceID), nunca por id directo.
type FinanceRepository interface {
	GetIncomeByReference(referenceType, referenceID string) (*entity.Income, error)
	CreateIncome(income *entity.Income) error
	UpdateIncome(income *entity.Income) error
	DeleteIncome(id string) error
	CreateExpense(expense *entity.Expense) error
}
