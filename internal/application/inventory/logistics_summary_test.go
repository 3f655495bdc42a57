package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/testutil"
)

func mov(s *testutil.MemStore, productID string, mt entity.MovementType, reason entity.MovementReason, qty string) {
	s.Movements = append(s.Movements, &entity.InventoryMovement{
		ID: s.NextID(), ProductID: productID, Type: mt, Reason: reason,
		Quantity: dec(qty), Date: time.Now(), CreatedAt: time.Now(),
	})
}

func TestDailyResumenPivotYMerma(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddProduct(&entity.Product{ID: "P1", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("30")})
	s.AddProduct(&entity.Product{ID: "P2", Name: "Torta", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("8")})

	// P1: 100 producidos, 60 vendidos, 5 dañados, 5 caducados -> merma 10%.
	mov(s, "P1", entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "100")
	mov(s, "P1", entity.MovementTypeSalida, entity.ReasonSalidaVenta, "60")
	mov(s, "P1", entity.MovementTypeSalida, entity.ReasonSalidaDaniado, "5")
	mov(s, "P1", entity.MovementTypeSalida, entity.ReasonSalidaCaducado, "5")
	// P2: 20 producidos, 1 dañado -> merma 5%.
	mov(s, "P2", entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "20")
	mov(s, "P2", entity.MovementTypeSalida, entity.ReasonSalidaDaniado, "1")

	uc := NewLogisticsSummaryUseCase(testutil.NewMovementRepo(s), testutil.NewProductRepo(s))
	res, err := uc.Daily(context.Background(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	assert.True(t, res.Global.Producido.Equal(dec("120")))
	assert.True(t, res.Global.Vendido.Equal(dec("60")))
	assert.True(t, res.Global.Merma.Equal(dec("11")))

	// Ordenado por merma descendente: P1 primero.
	require.Len(t, res.Products, 2)
	assert.Equal(t, "P1", res.Products[0].ProductID)
	assert.Equal(t, "Pan", res.Products[0].Name)
	assert.True(t, res.Products[0].Merma.Equal(dec("10")))
	assert.True(t, res.Products[0].MermaPct.Equal(dec("10")))
	assert.True(t, res.Products[1].MermaPct.Equal(dec("5")))
	assert.True(t, res.Products[0].StockActual.Equal(dec("30")))
}

func TestDailyFiltraPorProducto(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddProduct(&entity.Product{ID: "P1", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal})
	s.AddProduct(&entity.Product{ID: "P2", Name: "Torta", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal})
	mov(s, "P1", entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "10")
	mov(s, "P2", entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "99")

	uc := NewLogisticsSummaryUseCase(testutil.NewMovementRepo(s), testutil.NewProductRepo(s))
	res, err := uc.Daily(context.Background(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour), "P1")
	require.NoError(t, err)

	assert.True(t, res.Global.Producido.Equal(dec("10")))
	require.Len(t, res.Products, 1)
	assert.Equal(t, "P1", res.Products[0].ProductID)
}

func TestDailyRangoVacio(t *testing.T) {
	s := testutil.NewMemStore()
	uc := NewLogisticsSummaryUseCase(testutil.NewMovementRepo(s), testutil.NewProductRepo(s))

	res, err := uc.Daily(context.Background(), time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.True(t, res.Global.Producido.IsZero())
	// Sin rango explícito el resumen cubre el día en curso.
	assert.Equal(t, res.From.Day(), time.Now().Day())
}
