package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de referencia de registros financieros.
const (
	FinanceRefOrderItem      = "order_item"
	FinanceRefInventoryEntry = "inventory_entry"
)

// Income es un ingreso ligado a un ítem de pedido pagado. Se upserta por
// (ReferenceType, ReferenceID) y se elimina al desmarcar el pago.
type Income struct {
	ID            string
	Date          time.Time
	Amount        decimal.Decimal
	Concept       string
	Category      string
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}

// Expense es un gasto; el motor solo lo genera en compras de inventario
// (ENTRADA_COMPRA con precio).
type Expense struct {
	ID            string
	Date          time.Time
	Amount        decimal.Decimal
	Concept       string
	Category      string
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}
