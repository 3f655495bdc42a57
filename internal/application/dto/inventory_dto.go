package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`   // entrada | salida | produccion | ajuste
	Reason        string           `json:"reason"` // vocabulario fijo de motivos
	Quantity      decimal.Decimal  `json:"quantity"`
	Price         *decimal.Decimal `json:"price,omitempty"` // costo de compra
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	Description   string           `json:"description,omitempty"`
}

// MovementDTO respuesta con un movimiento del ledger.
type MovementDTO struct {
	ID            string           `json:"id"`
	OperationID   string           `json:"operation_id,omitempty"`
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`
	Reason        string           `json:"reason"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Description   string           `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	CreatedBy     string           `json:"created_by,omitempty"`
	Date          time.Time        `json:"date"`
}

// FromMovement convierte la entidad al DTO de respuesta.
func FromMovement(m *entity.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:            m.ID,
		OperationID:   m.OperationID,
		ProductID:     m.ProductID,
		Type:          string(m.Type),
		Reason:        string(m.Reason),
		Quantity:      m.Quantity,
		Description:   m.Description,
		Price:         m.Price,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		Date:          m.Date,
	}
}

// SummaryRequest parámetros para GET /api/inventory/summary.
type SummaryRequest struct {
	From      string `query:"from"`       // YYYY-MM-DD; por defecto hoy 00:00
	To        string `query:"to"`         // YYYY-MM-DD; por defecto hoy 23:59
	ProductID string `query:"product_id"` // opcional
}
