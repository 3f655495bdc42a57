package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidad nativa de stock de un producto.
const (
	UnitDiscrete = 1 // se maneja por unidades
	// Cualquier otro unitId significa que el producto se maneja por gramos.
)

// Tipos de producto dentro del motor de inventario.
const (
	ProductTypeRaw          = "raw"          // materia prima / insumo
	ProductTypeIntermediate = "intermediate" // producto de receta que a su vez es ingrediente
	ProductTypeFinal        = "final"        // producto terminado
)

// Product representa un producto del inventario (insumo, intermedio o final).
// Stock está siempre expresado en la unidad nativa del producto (unidades o
// gramos según UnitID) y debe coincidir con la suma firmada del ledger de
// movimientos desde su creación (o desde el último ajuste absoluto).
type Product struct {
	ID                   string
	Name                 string
	UnitID               int             // 1 = unidad discreta, otro = gramos
	StandardWeightGrams  decimal.Decimal // gramos por unidad discreta (para conversión)
	NetWeight            decimal.Decimal // tamaño del empaque: gramos (insumo) o unidades (material)
	Price                decimal.Decimal // precio del empaque
	Stock                decimal.Decimal // cantidad actual en unidad nativa
	Type                 string          // raw | intermediate | final
	ProductionYieldGrams decimal.Decimal // rendimiento en gramos de una corrida base (0 = derivar de receta)
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsDiscrete indica si el producto se maneja por unidades (y no por gramos).
func (p *Product) IsDiscrete() bool {
	return p.UnitID == UnitDiscrete
}

// IsIntermediate indica si el producto es a su vez salida de una receta e
// ingrediente de otra.
func (p *Product) IsIntermediate() bool {
	return p.Type == ProductTypeIntermediate
}
