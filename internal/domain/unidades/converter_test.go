package unidades_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/unidades"
)

func discreteProduct(swg float64) *entity.Product {
	return &entity.Product{
		ID:                  "p-unidad",
		Name:                "Pan molde",
		UnitID:              entity.UnitDiscrete,
		StandardWeightGrams: decimal.NewFromFloat(swg),
	}
}

func gramProduct(swg float64) *entity.Product {
	return &entity.Product{
		ID:                  "p-gramos",
		Name:                "Masa madre",
		UnitID:              2,
		StandardWeightGrams: decimal.NewFromFloat(swg),
	}
}

func TestGramsToStockUnits_ProductoDiscreto(t *testing.T) {
	p := discreteProduct(50)

	// 500 g de un producto de 50 g/unidad son 10 unidades.
	got := unidades.GramsToStockUnits(p, decimal.NewFromInt(500))
	assert.True(t, got.Equal(decimal.NewFromInt(10)), "esperaba 10 unidades, obtuve %s", got)
}

func TestGramsToStockUnits_ProductoEnGramos_Identidad(t *testing.T) {
	p := gramProduct(50)

	got := unidades.GramsToStockUnits(p, decimal.NewFromInt(730))
	assert.True(t, got.Equal(decimal.NewFromInt(730)))
}

func TestUnitsToStockUnits_ProductoEnGramos(t *testing.T) {
	p := gramProduct(50)

	// 3 "unidades lógicas" de 50 g son 150 g.
	got := unidades.UnitsToStockUnits(p, decimal.NewFromInt(3))
	assert.True(t, got.Equal(decimal.NewFromInt(150)))
}

func TestUnitsToStockUnits_ProductoDiscreto_Identidad(t *testing.T) {
	p := discreteProduct(50)

	got := unidades.UnitsToStockUnits(p, decimal.NewFromInt(7))
	assert.True(t, got.Equal(decimal.NewFromInt(7)))
}

// La ida y vuelta gramos -> unidad de stock -> gramos debe conservar la
// cantidad para cualquier producto con peso estándar definido.
func TestConversionRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		swg   float64
		grams float64
	}{
		{"peso exacto", 50, 1000},
		{"peso no divisor", 37.5, 412.33},
		{"cantidad pequeña", 12, 0.6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := discreteProduct(tc.swg)
			g := decimal.NewFromFloat(tc.grams)

			units := unidades.GramsToStockUnits(p, g)
			back := units.Mul(p.StandardWeightGrams)

			diff := back.Sub(g).Abs()
			require.True(t, diff.LessThan(decimal.NewFromFloat(1e-9)),
				"ida y vuelta perdió precisión: %s g -> %s u -> %s g", g, units, back)
		})
	}
}

// Sin peso estándar la conversión degrada a identidad 1:1. Es la política
// documentada para datos incompletos, no un cálculo correcto: el llamador
// debe consultarlo con DegradedConversion y dejar constancia en el log.
func TestFallbackIdentidadSinPesoEstandar(t *testing.T) {
	p := discreteProduct(0)

	require.True(t, unidades.DegradedConversion(p))
	got := unidades.GramsToStockUnits(p, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(200)), "fallback 1:1: 200 g deben tratarse como 200 unidades")

	withWeight := discreteProduct(40)
	require.False(t, unidades.DegradedConversion(withWeight))
}
