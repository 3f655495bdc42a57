package entity

import "github.com/shopspring/decimal"

// Tipo de ítem dentro de una línea de receta.
const (
	RecipeItemInsumo   = "insumo"   // ingrediente consumible, costeado por gramo
	RecipeItemMaterial = "material" // empaque/suministro, costeado por unidad discreta
)

// RecipeLine es una arista del BOM: producir una unidad (o un gramo, según la
// unidad del producto final) de ProductFinalID consume Quantity de
// ProductRawID, expresada en gramos o en la unidad nativa del insumo.
// El conjunto de líneas de un mismo ProductFinalID no tiene orden; el grafo
// se asume acíclico y el motor de costeo lo valida antes de recorrerlo.
type RecipeLine struct {
	ID                string
	ProductFinalID    string
	ProductRawID      string
	Quantity          decimal.Decimal
	IsQuantityInGrams bool
	ItemType          string // insumo | material
}

// IsMaterial indica si la línea se costea por unidad discreta.
// Una línea sin ItemType se trata como insumo (compatibilidad).
func (l *RecipeLine) IsMaterial() bool {
	return l.ItemType == RecipeItemMaterial
}
