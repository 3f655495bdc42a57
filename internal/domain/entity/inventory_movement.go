package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType clasifica la dirección de un movimiento de inventario.
// La cantidad del movimiento es siempre positiva; el signo lo aporta el tipo.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeEntrada    MovementType = "entrada"    // suma stock
	MovementTypeSalida     MovementType = "salida"     // resta stock
	MovementTypeProduccion MovementType = "produccion" // suma stock (salida de producción)
	MovementTypeAjuste     MovementType = "ajuste"     // sobrescribe stock con la cantidad
)

// Valid verifica que el tipo pertenezca al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeEntrada, MovementTypeSalida, MovementTypeProduccion, MovementTypeAjuste:
		return true
	}
	return false
}

// MovementReason es el motivo del movimiento. Vocabulario fijo: agregar un
// motivo es una extensión compatible, renombrar uno no lo es.
type MovementReason string

// Motivos de movimiento (vocabulario cerrado).
const (
	ReasonEntradaProduccion     MovementReason = "ENTRADA_PRODUCCION"
	ReasonEntradaCompra         MovementReason = "ENTRADA_COMPRA"
	ReasonSalidaVenta           MovementReason = "SALIDA_VENTA"
	ReasonSalidaYapa            MovementReason = "SALIDA_YAPA"
	ReasonSalidaDaniado         MovementReason = "SALIDA_DANIADO"
	ReasonSalidaCaducado        MovementReason = "SALIDA_CADUCADO"
	ReasonSalidaConsumoInterno  MovementReason = "SALIDA_CONSUMO_INTERNO"
	ReasonSalidaReemplazo       MovementReason = "SALIDA_REEMPLAZO"
	ReasonAjusteEntrada         MovementReason = "AJUSTE_ENTRADA"
	ReasonAjusteSalida          MovementReason = "AJUSTE_SALIDA"
)

// Valid verifica que el motivo pertenezca al vocabulario fijo.
func (r MovementReason) Valid() bool {
	switch r {
	case ReasonEntradaProduccion, ReasonEntradaCompra,
		ReasonSalidaVenta, ReasonSalidaYapa, ReasonSalidaDaniado,
		ReasonSalidaCaducado, ReasonSalidaConsumoInterno, ReasonSalidaReemplazo,
		ReasonAjusteEntrada, ReasonAjusteSalida:
		return true
	}
	return false
}

// CompatibleWith verifica que el motivo sea coherente con el tipo de
// movimiento (una ENTRADA_COMPRA nunca puede ir en una salida).
func (r MovementReason) CompatibleWith(t MovementType) bool {
	switch t {
	case MovementTypeEntrada:
		return r == ReasonEntradaProduccion || r == ReasonEntradaCompra
	case MovementTypeProduccion:
		return r == ReasonEntradaProduccion
	case MovementTypeSalida:
		switch r {
		case ReasonSalidaVenta, ReasonSalidaYapa, ReasonSalidaDaniado,
			ReasonSalidaCaducado, ReasonSalidaConsumoInterno, ReasonSalidaReemplazo:
			return true
		}
		return false
	case MovementTypeAjuste:
		return r == ReasonAjusteEntrada || r == ReasonAjusteSalida
	}
	return false
}

// InventoryMovement es un registro inmutable del ledger de stock: la única
// fuente de verdad de "por qué cambió el stock". El ledger es append-only;
// una corrección es un movimiento nuevo, nunca una edición.
type InventoryMovement struct {
	ID            string
	OperationID   string // correlaciona todos los movimientos de una misma operación
	ProductID     string
	Type          MovementType
	Reason        MovementReason
	Quantity      decimal.Decimal // siempre en unidad nativa del producto, siempre >= 0
	Description   string
	Price         *decimal.Decimal // costo de compra, opcional
	ReferenceType string           // enlace polimórfico: "order_item", "produccion", ...
	ReferenceID   string
	CreatedBy     string
	Date          time.Time
	CreatedAt     time.Time
}
