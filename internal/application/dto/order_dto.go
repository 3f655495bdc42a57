package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// UpdateOrderItemRequest body para PATCH /api/orders/items/:id. Los campos
// nulos no se tocan.
type UpdateOrderItemRequest struct {
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	SoldQty     *decimal.Decimal `json:"sold_qty,omitempty"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
	ClearPaidAt bool             `json:"clear_paid_at,omitempty"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
}

// CloseLogisticsRequest body para POST /api/orders/items/:id/close.
type CloseLogisticsRequest struct {
	SoldQty     decimal.Decimal `json:"sold_qty"`
	DamagedQty  decimal.Decimal `json:"damaged_qty"`
	GiftQty     decimal.Decimal `json:"gift_qty"`
	ReplacedQty decimal.Decimal `json:"replaced_qty"`
}

// OrderItemDTO respuesta con un ítem de pedido.
type OrderItemDTO struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	SoldQty     decimal.Decimal `json:"sold_qty"`
	DamagedQty  decimal.Decimal `json:"damaged_qty"`
	GiftQty     decimal.Decimal `json:"gift_qty"`
	ReplacedQty decimal.Decimal `json:"replaced_qty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
}

// FromOrderItem convierte la entidad al DTO de respuesta.
func FromOrderItem(i *entity.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductID:   i.ProductID,
		Quantity:    i.Quantity,
		Price:       i.Price,
		SoldQty:     i.SoldQty,
		DamagedQty:  i.DamagedQty,
		GiftQty:     i.GiftQty,
		ReplacedQty: i.ReplacedQty,
		PaidAt:      i.PaidAt,
		DeliveredAt: i.DeliveredAt,
	}
}
