package inventory

import (
	"context"

	"github.com/masapan/erp-inventario/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: o todo se confirma o todo se revierte.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		financeRepo repository.FinanceRepository,
	) error) error
}
