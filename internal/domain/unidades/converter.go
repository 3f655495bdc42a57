// Package unidades convierte cantidades entre gramos y la unidad nativa de
// stock de un producto (unidades discretas o gramos).
//
// Política de degradación: si un producto discreto no tiene
// StandardWeightGrams, la conversión cae a un divisor 1:1 (1 gramo = 1
// unidad) en lugar de fallar. Es una política explícita para datos de
// producto incompletos, no un comportamiento "correcto": los llamadores
// deben registrar una advertencia cuando DegradedConversion lo indique.
package unidades

import (
	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
)

var one = decimal.NewFromInt(1)

// standardWeight devuelve el peso estándar del producto o 1 si no está
// definido (fallback identidad).
func standardWeight(p *entity.Product) decimal.Decimal {
	if p.StandardWeightGrams.GreaterThan(decimal.Zero) {
		return p.StandardWeightGrams
	}
	return one
}

// GramsToStockUnits convierte una cantidad en GRAMOS a la unidad de stock
// del producto. Para productos discretos: unidades = gramos / pesoEstándar.
// Para productos por gramos devuelve los gramos tal cual.
// Función pura y total: nunca falla.
func GramsToStockUnits(p *entity.Product, grams decimal.Decimal) decimal.Decimal {
	if p.IsDiscrete() {
		return grams.Div(standardWeight(p))
	}
	return grams
}

// UnitsToStockUnits convierte una cantidad en UNIDADES a la unidad de stock
// del producto. Para productos discretos devuelve las unidades tal cual.
// Para productos por gramos: gramos = unidades * pesoEstándar.
func UnitsToStockUnits(p *entity.Product, units decimal.Decimal) decimal.Decimal {
	if p.IsDiscrete() {
		return units
	}
	return units.Mul(standardWeight(p))
}

// DegradedConversion indica si una conversión gramos<->unidades para este
// producto usaría el fallback identidad por falta de peso estándar.
func DegradedConversion(p *entity.Product) bool {
	return !p.StandardWeightGrams.GreaterThan(decimal.Zero)
}
