package finance

import (
	"context"

	"github.com/masapan/erp-inventario/internal/domain/repository"
)

// TxRunner es la variante amplia del corredor de transacciones: la
// sincronización financiera toca ítems de pedido y finanzas además del
// ledger y el stock.
type TxRunner interface {
	RunFinance(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
		financeRepo repository.FinanceRepository,
	) error) error
}
