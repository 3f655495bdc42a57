package finance

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

func setup() (*testutil.MemStore, *UseCase) {
	s := testutil.NewMemStore()
	uc := NewUseCase(&testutil.TxRunner{Store: s}, logger.Nop())
	return s, uc
}

// pedido con un ítem: 10 unidades a $3.
func fixturePedido(s *testutil.MemStore) (*entity.Order, *entity.OrderItem) {
	s.AddProduct(&entity.Product{ID: "P", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("50")})
	order := s.AddOrder(&entity.Order{ID: "ord-1", Status: entity.OrderStatusPendiente})
	item := s.AddOrderItem(&entity.OrderItem{
		ID: "item-1", OrderID: "ord-1", ProductID: "P",
		Quantity: dec("10"), Price: dec("3"),
	})
	return order, item
}

func TestMarkItemPaidCreaIngresoPorCantidadCobrable(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	item, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)
	require.NotNil(t, item.PaidAt)

	// Sin soldQty el cobrable es quantity: 10 x $3 = $30.
	require.Len(t, s.Incomes, 1)
	assert.True(t, s.Incomes[0].Amount.Equal(dec("30")))
	assert.Equal(t, entity.FinanceRefOrderItem, s.Incomes[0].ReferenceType)
	assert.Equal(t, "item-1", s.Incomes[0].ReferenceID)

	// Todos los ítems pagados: el pedido pasa a pagado.
	assert.Equal(t, entity.OrderStatusPagado, s.Orders["ord-1"].Status)
}

func TestMarkItemPaidUsaSoldQtyCuandoExiste(t *testing.T) {
	s, uc := setup()
	_, item := fixturePedido(s)
	item.SoldQty = dec("7")
	s.OrderItems[item.ID] = item

	_, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)

	require.Len(t, s.Incomes, 1)
	assert.True(t, s.Incomes[0].Amount.Equal(dec("21")))
}

func TestMarkItemPaidDobleEsConflicto(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)

	_, err = uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, s.Incomes, 1)
}

func TestMarkItemUnpaidBorraIngresoYReconcilia(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)

	item, err := uc.MarkItemUnpaid(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Nil(t, item.PaidAt)
	assert.Empty(t, s.Incomes)
	assert.Equal(t, entity.OrderStatusPendiente, s.Orders["ord-1"].Status)
}

func TestMarkItemUnpaidSinPagoEsConflicto(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.MarkItemUnpaid(context.Background(), "item-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateItemResincronizaIngreso(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)

	precio := dec("5")
	_, err = uc.UpdateItem(context.Background(), UpdateItemInput{
		ItemID: "item-1", Price: &precio, ActorID: "cajero",
	})
	require.NoError(t, err)

	// El ingreso sigue siendo uno solo, con el monto recalculado.
	require.Len(t, s.Incomes, 1)
	assert.True(t, s.Incomes[0].Amount.Equal(dec("50")))
}

func TestUpdateItemSoldMayorQueQuantity(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	sold := dec("11")
	_, err := uc.UpdateItem(context.Background(), UpdateItemInput{
		ItemID: "item-1", SoldQty: &sold,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCloseItemLogisticsGeneraSalidasPorDelta(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	item, err := uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("6"), DamagedQty: dec("1"),
		GiftQty: dec("1"), ActorID: "repartidor",
	})
	require.NoError(t, err)
	assert.True(t, item.SoldQty.Equal(dec("6")))

	// Stock baja por la suma de los cortes: 50 - 8 = 42.
	assert.True(t, s.Stock("P").Equal(dec("42")))

	// Un movimiento por corte positivo, ninguno para reemplazo.
	require.Len(t, s.Movements, 3)
	byReason := map[entity.MovementReason]decimal.Decimal{}
	for _, m := range s.Movements {
		assert.Equal(t, entity.MovementTypeSalida, m.Type)
		assert.Equal(t, "item-1", m.ReferenceID)
		byReason[m.Reason] = m.Quantity
	}
	assert.True(t, byReason[entity.ReasonSalidaVenta].Equal(dec("6")))
	assert.True(t, byReason[entity.ReasonSalidaDaniado].Equal(dec("1")))
	assert.True(t, byReason[entity.ReasonSalidaYapa].Equal(dec("1")))
}

func TestCloseItemLogisticsEsMonotono(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("6"), ActorID: "repartidor",
	})
	require.NoError(t, err)
	movsAntes := len(s.Movements)
	stockAntes := s.Stock("P")

	// Reducir un corte ya cerrado se rechaza sin tocar nada.
	_, err = uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("4"), ActorID: "repartidor",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, s.Movements, movsAntes)
	assert.True(t, s.Stock("P").Equal(stockAntes))
}

func TestCloseItemLogisticsSegundaVezSoloDeltas(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("4"), ActorID: "repartidor",
	})
	require.NoError(t, err)

	_, err = uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("6"), DamagedQty: dec("1"), ActorID: "repartidor",
	})
	require.NoError(t, err)

	// Solo los deltas generan movimientos nuevos: 4, luego 2 y 1.
	require.Len(t, s.Movements, 3)
	assert.True(t, s.Movements[1].Quantity.Equal(dec("2")))
	assert.True(t, s.Movements[2].Quantity.Equal(dec("1")))
	assert.True(t, s.Stock("P").Equal(dec("43")))
}

func TestCloseItemLogisticsSumaMayorQueEntregado(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)

	_, err := uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("8"), DamagedQty: dec("3"), ActorID: "repartidor",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, s.Movements)
}

func TestCloseItemLogisticsStockInsuficiente(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)
	s.Products["P"].Stock = dec("3")

	_, err := uc.CloseItemLogistics(context.Background(), CloseInput{
		ItemID: "item-1", SoldQty: dec("5"), ActorID: "repartidor",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, s.Movements)
	assert.True(t, s.Stock("P").Equal(dec("3")))
}

func TestReconciliaEstadoConVariosItems(t *testing.T) {
	s, uc := setup()
	fixturePedido(s)
	s.AddOrderItem(&entity.OrderItem{
		ID: "item-2", OrderID: "ord-1", ProductID: "P",
		Quantity: dec("5"), Price: dec("2"),
	})

	_, err := uc.MarkItemPaid(context.Background(), "item-1", "cajero")
	require.NoError(t, err)
	// Queda un ítem impago: el pedido sigue pendiente.
	assert.Equal(t, entity.OrderStatusPendiente, s.Orders["ord-1"].Status)

	_, err = uc.MarkItemPaid(context.Background(), "item-2", "cajero")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPagado, s.Orders["ord-1"].Status)
}
