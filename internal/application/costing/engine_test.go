package costing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/testutil"
	"github.com/masapan/erp-inventario/pkg/logger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newEngine(s *testutil.MemStore) *Engine {
	return NewEngine(testutil.NewProductRepo(s), testutil.NewRecipeRepo(s), logger.Nop())
}

// Fixture de dos niveles:
//
//	F (final, discreto)  requiere 200 g de I por unidad
//	I (intermedio, g)    rinde 100 g y requiere 50 g de R
//	R (insumo crudo)     $2 el empaque de 500 g
func fixtureDosNiveles(s *testutil.MemStore) (f, i, r *entity.Product) {
	r = s.AddProduct(&entity.Product{
		ID: "R", Name: "Harina", UnitID: 2, Type: entity.ProductTypeRaw,
		Price: dec("2"), NetWeight: dec("500"),
	})
	i = s.AddProduct(&entity.Product{
		ID: "I", Name: "Masa Base", UnitID: 2, Type: entity.ProductTypeIntermediate,
		ProductionYieldGrams: dec("100"),
	})
	f = s.AddProduct(&entity.Product{
		ID: "F", Name: "Empanada", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeFinal,
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: "I", ProductRawID: "R",
		Quantity: dec("50"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo,
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: "F", ProductRawID: "I",
		Quantity: dec("200"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo,
	})
	return f, i, r
}

func TestComputeRecursionDosNiveles(t *testing.T) {
	s := testutil.NewMemStore()
	fixtureDosNiveles(s)
	e := newEngine(s)

	res, err := e.Compute(context.Background(), "F", dec("10"), 0, 0)
	require.NoError(t, err)

	// 10 unidades de F demandan 2000 g de I; I a 100 g de rendimiento escala
	// la receta x20 -> 1000 g de R; R cuesta 2/500 = 0.004 por gramo.
	assert.True(t, res.Summary.SubtotalInsumos.Equal(dec("4")),
		"subtotalInsumos = %s", res.Summary.SubtotalInsumos)
	assert.True(t, res.Summary.TotalLote.Equal(dec("4")))
	assert.True(t, res.Summary.CostoUnitario.Equal(dec("0.4")))

	// Una sola hoja, con la ruta completa de padres.
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Empanada > Masa Base > Harina", res.Rows[0].Path)
	assert.Equal(t, "Harina", res.Rows[0].NombreInsumo)
	assert.True(t, res.Rows[0].CantidadUsada.Equal(dec("1000")))

	// El árbol refleja la misma estructura.
	require.Len(t, res.Tree.Children, 1)
	assert.Equal(t, "I", res.Tree.Children[0].Info.ID)
	assert.True(t, res.Tree.Children[0].Info.Mult.Equal(dec("2000")))
}

func TestComputeFilasSumanExactoElTotal(t *testing.T) {
	s := testutil.NewMemStore()
	f, _, _ := fixtureDosNiveles(s)
	// Un material directo en F para mezclar ambos subtotales.
	s.AddProduct(&entity.Product{
		ID: "M", Name: "Caja", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeRaw,
		Price: dec("30"), NetWeight: dec("100"), // $30 el paquete de 100 cajas
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: f.ID, ProductRawID: "M",
		Quantity: dec("1"), ItemType: entity.RecipeItemMaterial,
	})
	e := newEngine(s)

	res, err := e.Compute(context.Background(), "F", dec("7"), 15, 10)
	require.NoError(t, err)

	suma := decimal.Zero
	for _, row := range res.Rows {
		suma = suma.Add(row.Valor)
	}
	assert.True(t, suma.Equal(res.Tree.Cost.TotalNodo),
		"filas suman %s, totalNodo %s", suma, res.Tree.Cost.TotalNodo)
}

func TestComputeExtrasSoloSobreInsumosYLuegoManoDeObra(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddProduct(&entity.Product{
		ID: "R", Name: "Azúcar", UnitID: 2, Type: entity.ProductTypeRaw,
		Price: dec("100"), NetWeight: dec("100"),
	})
	s.AddProduct(&entity.Product{
		ID: "M", Name: "Bolsa", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeRaw,
		Price: dec("10"), NetWeight: dec("1"),
	})
	s.AddProduct(&entity.Product{
		ID: "F", Name: "Dulce", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeFinal,
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: "F", ProductRawID: "R",
		Quantity: dec("100"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo,
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: "F", ProductRawID: "M",
		Quantity: dec("1"), ItemType: entity.RecipeItemMaterial,
	})
	e := newEngine(s)

	res, err := e.Compute(context.Background(), "F", dec("1"), 10, 10)
	require.NoError(t, err)

	// insumos 100, materiales 10. Extras 10% solo sobre insumos = 10;
	// mano de obra 10% sobre (100+10) = 11; el material queda fuera del lote.
	assert.True(t, res.Summary.SubtotalInsumos.Equal(dec("100")))
	assert.True(t, res.Summary.SubtotalMateriales.Equal(dec("10")))
	assert.True(t, res.Summary.Extras.Equal(dec("10")))
	assert.True(t, res.Summary.BaseConExtras.Equal(dec("110")))
	assert.True(t, res.Summary.Labor.Equal(dec("11")))
	assert.True(t, res.Summary.TotalLote.Equal(dec("121")))
}

func TestComputeDetectaCiclo(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddProduct(&entity.Product{ID: "A", Name: "A", UnitID: 2, Type: entity.ProductTypeIntermediate})
	s.AddProduct(&entity.Product{ID: "B", Name: "B", UnitID: 2, Type: entity.ProductTypeIntermediate})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "A", ProductRawID: "B",
		Quantity: dec("10"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "B", ProductRawID: "A",
		Quantity: dec("10"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo})
	e := newEngine(s)

	_, err := e.Compute(context.Background(), "A", dec("1"), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRecipeCycle)
}

func TestComputeConversionDegradadaCuestaCero(t *testing.T) {
	s := testutil.NewMemStore()
	// Insumo por unidades sin peso estándar: el consumo en gramos degrada a 0.
	s.AddProduct(&entity.Product{
		ID: "R", Name: "Huevo", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeRaw,
		Price: dec("12"), NetWeight: dec("30"),
	})
	s.AddProduct(&entity.Product{
		ID: "F", Name: "Torta", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeFinal,
	})
	s.AddRecipeLine(&entity.RecipeLine{
		ProductFinalID: "F", ProductRawID: "R",
		Quantity: dec("3"), ItemType: entity.RecipeItemInsumo,
	})
	e := newEngine(s)

	res, err := e.Compute(context.Background(), "F", dec("1"), 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.True(t, res.Rows[0].Valor.IsZero())
	assert.True(t, res.Summary.SubtotalInsumos.IsZero())
}

func TestComputeProducedGramsDesdeReceta(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddProduct(&entity.Product{
		ID: "R1", Name: "Harina", UnitID: 2, Type: entity.ProductTypeRaw,
	})
	s.AddProduct(&entity.Product{
		ID: "R2", Name: "Huevo", UnitID: entity.UnitDiscrete, Type: entity.ProductTypeRaw,
		StandardWeightGrams: dec("60"),
	})
	s.AddProduct(&entity.Product{
		ID: "I", Name: "Masa", UnitID: 2, Type: entity.ProductTypeIntermediate,
	})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "I", ProductRawID: "R1",
		Quantity: dec("500"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "I", ProductRawID: "R2",
		Quantity: dec("2"), ItemType: entity.RecipeItemInsumo})
	e := newEngine(s)

	// 500 g directos + 2 huevos x 60 g = 620 g implícitos en la receta.
	grams, err := e.ComputeProducedGrams("I")
	require.NoError(t, err)
	assert.True(t, grams.Equal(dec("620")), "producedGrams = %s", grams)

	// Con override el rendimiento declarado manda.
	s.Products["I"].ProductionYieldGrams = dec("600")
	grams, err = e.ComputeProducedGrams("I")
	require.NoError(t, err)
	assert.True(t, grams.Equal(dec("600")))
}

func TestComputeYieldInverso(t *testing.T) {
	s := testutil.NewMemStore()
	fixtureDosNiveles(s)
	e := newEngine(s)

	// 400 g de I cubren 2 unidades de F (200 g por unidad).
	res, err := e.Compute(context.Background(), "I", dec("400"), 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Yield, 1)
	assert.Equal(t, "F", res.Yield[0].ParentID)
	assert.True(t, res.Yield[0].UnidadesPosiblesParent.Equal(dec("2")),
		"posibles = %s", res.Yield[0].UnidadesPosiblesParent)
}

func TestComputeProductoInexistente(t *testing.T) {
	s := testutil.NewMemStore()
	e := newEngine(s)

	_, err := e.Compute(context.Background(), "nada", dec("1"), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
