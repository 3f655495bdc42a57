package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// ReasonTotal es el total de cantidades de un motivo en un rango de fechas.
type ReasonTotal struct {
	Reason entity.MovementReason
	Total  decimal.Decimal
}

// ProductReasonTotal es el total por producto y motivo (pivot del resumen
// logístico diario).
type ProductReasonTotal struct {
	ProductID string
	Reason    entity.MovementReason
	Total     decimal.Decimal
}

// InventoryMovementRepository define el puerto de persistencia del ledger de
// movimientos. El ledger es append-only: no hay Update ni Delete.
type InventoryMovementRepository interface {
	Create(movement *entity.InventoryMovement) error
	GetByID(id string) (*entity.InventoryMovement, error)
	ListByProduct(productID string, limit, offset int) ([]*entity.InventoryMovement, error)
	ListAll(from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
	SummaryByReason(from, to time.Time, productID string) ([]ReasonTotal, error)
	SummaryByProductAndReason(from, to time.Time, productID string) ([]ProductReasonTotal, error)
}
