package catalog

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

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*testutil.MemStore, *ProductUseCase, *RecipeUseCase) {
	t.Helper()
	s := testutil.NewMemStore()
	log := logger.Nop()
	products := testutil.NewProductRepo(s)
	recipes := testutil.NewRecipeRepo(s)
	return s, NewProductUseCase(products, log), NewRecipeUseCase(recipes, products, log)
}

func TestProductCreateYUpdateNoTocanStock(t *testing.T) {
	s, uc, _ := setup(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, &entity.Product{
		Name:  "Harina",
		Type:  entity.ProductTypeRaw,
		Price: dec("2.50"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	assert.True(t, p.Stock.IsZero())

	// Simula stock acumulado por movimientos.
	s.Products[p.ID].Stock = dec("40")

	p.Price = dec("3.00")
	p.Stock = dec("999") // debe ignorarse
	updated, err := uc.Update(ctx, p)
	require.NoError(t, err)
	assert.True(t, updated.Stock.Equal(dec("40")))
	assert.True(t, s.Products[p.ID].Price.Equal(dec("3.00")))
}

func TestProductCreateInvalido(t *testing.T) {
	_, uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, &entity.Product{Name: "", Type: entity.ProductTypeRaw})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, &entity.Product{Name: "X", Type: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecipeReplaceSustituyeLineas(t *testing.T) {
	s, _, uc := setup(t)
	ctx := context.Background()

	s.AddProduct(&entity.Product{ID: "F", Name: "Empanada", Type: entity.ProductTypeFinal})
	s.AddProduct(&entity.Product{ID: "R1", Name: "Harina", Type: entity.ProductTypeRaw})
	s.AddProduct(&entity.Product{ID: "R2", Name: "Queso", Type: entity.ProductTypeRaw})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "F", ProductRawID: "R1", Quantity: dec("100"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo})

	lines, err := uc.Replace(ctx, "F", []*entity.RecipeLine{
		{ProductRawID: "R2", Quantity: dec("30"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)

	got, err := uc.Get(ctx, "F")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R2", got[0].ProductRawID)
}

func TestRecipeReplaceRechazaCiclo(t *testing.T) {
	s, _, uc := setup(t)
	ctx := context.Background()

	s.AddProduct(&entity.Product{ID: "A", Name: "Masa", Type: entity.ProductTypeIntermediate})
	s.AddProduct(&entity.Product{ID: "B", Name: "Pre-masa", Type: entity.ProductTypeIntermediate})
	s.AddRecipeLine(&entity.RecipeLine{ProductFinalID: "B", ProductRawID: "A", Quantity: dec("10"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo})

	_, err := uc.Replace(ctx, "A", []*entity.RecipeLine{
		{ProductRawID: "B", Quantity: dec("10"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo},
	})
	assert.ErrorIs(t, err, domain.ErrRecipeCycle)
}

func TestRecipeReplaceIngredienteInexistente(t *testing.T) {
	s, _, uc := setup(t)
	ctx := context.Background()

	s.AddProduct(&entity.Product{ID: "F", Name: "Empanada", Type: entity.ProductTypeFinal})
	_, err := uc.Replace(ctx, "F", []*entity.RecipeLine{
		{ProductRawID: "nope", Quantity: dec("10"), IsQuantityInGrams: true, ItemType: entity.RecipeItemInsumo},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
