package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido.
const (
	OrderStatusPendiente = "pendiente"
	OrderStatusPagado    = "pagado"
)

// Order es un pedido (colaborador externo del motor; aquí solo se consume su
// estado de pago).
type Order struct {
	ID         string
	CustomerID string
	Status     string
	Date       time.Time
	Notes      string
}

// OrderItem es una línea de pedido. El cierre logístico reparte Quantity en
// vendido/dañado/yapa/reemplazo; esos cortes solo pueden crecer (cierre
// monótono) y cada delta positivo genera una salida en el ledger.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	SoldQty     decimal.Decimal
	DamagedQty  decimal.Decimal
	GiftQty     decimal.Decimal
	ReplacedQty decimal.Decimal
	PaidAt      *time.Time
	DeliveredAt *time.Time
}

// BillableQty devuelve la cantidad cobrable: soldQty si es > 0, si no
// quantity (regla de compatibilidad hacia atrás).
func (i *OrderItem) BillableQty() decimal.Decimal {
	if i.SoldQty.GreaterThan(decimal.Zero) {
		return i.SoldQty
	}
	return i.Quantity
}
