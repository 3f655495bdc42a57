package dto

import (
	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name                 string          `json:"name"`
	UnitID               int             `json:"unit_id"` // 1 = unidad discreta, otro = gramos
	StandardWeightGrams  decimal.Decimal `json:"standard_weight_grams"`
	NetWeight            decimal.Decimal `json:"net_weight"` // tamaño del empaque
	Price                decimal.Decimal `json:"price"`      // precio del empaque
	Type                 string          `json:"type"`       // raw | intermediate | final
	ProductionYieldGrams decimal.Decimal `json:"production_yield_grams"`
}

// UpdateProductRequest body para PUT /api/products/:id. El stock no se edita
// por aquí: se mueve vía movimientos.
type UpdateProductRequest struct {
	Name                 string          `json:"name"`
	UnitID               int             `json:"unit_id"`
	StandardWeightGrams  decimal.Decimal `json:"standard_weight_grams"`
	NetWeight            decimal.Decimal `json:"net_weight"`
	Price                decimal.Decimal `json:"price"`
	Type                 string          `json:"type"`
	ProductionYieldGrams decimal.Decimal `json:"production_yield_grams"`
}

// ProductDTO respuesta con un producto.
type ProductDTO struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	UnitID               int             `json:"unit_id"`
	StandardWeightGrams  decimal.Decimal `json:"standard_weight_grams"`
	NetWeight            decimal.Decimal `json:"net_weight"`
	Price                decimal.Decimal `json:"price"`
	Stock                decimal.Decimal `json:"stock"`
	Type                 string          `json:"type"`
	ProductionYieldGrams decimal.Decimal `json:"production_yield_grams"`
}

// FromProduct convierte la entidad al DTO de respuesta.
func FromProduct(p *entity.Product) ProductDTO {
	return ProductDTO{
		ID:                   p.ID,
		Name:                 p.Name,
		UnitID:               p.UnitID,
		StandardWeightGrams:  p.StandardWeightGrams,
		NetWeight:            p.NetWeight,
		Price:                p.Price,
		Stock:                p.Stock,
		Type:                 p.Type,
		ProductionYieldGrams: p.ProductionYieldGrams,
	}
}
