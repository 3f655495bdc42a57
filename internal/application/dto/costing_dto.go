package dto

import "github.com/shopspring/decimal"

// CostingRequest parámetros para GET /api/recipes/:id/costing.
type CostingRequest struct {
	ProducedQty   decimal.Decimal `query:"produced_qty"`
	ExtrasPercent int             `query:"extras_percent"` // 0..100, solo sobre insumos
	LaborPercent  int             `query:"labor_percent"`  // 0..100, sobre insumos+extras
}

// RecipeLineRequest una línea del editor de recetas.
type RecipeLineRequest struct {
	ProductRawID      string          `json:"product_raw_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	IsQuantityInGrams bool            `json:"is_quantity_in_grams"`
	ItemType          string          `json:"item_type"` // insumo | material
}

// SaveRecipeRequest body para PUT /api/recipes/:id (reemplaza la receta
// completa del producto final).
type SaveRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines"`
}
