package inventory

import (
	"context"
	"testing"
	"time"

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

func setup() (*testutil.MemStore, *RegisterMovementUseCase) {
	s := testutil.NewMemStore()
	uc := NewRegisterMovementUseCase(&testutil.TxRunner{Store: s},
		testutil.NewMovementRepo(s), logger.Nop())
	return s, uc
}

func registrar(t *testing.T, uc *RegisterMovementUseCase, mt entity.MovementType, reason entity.MovementReason, qty string) {
	t.Helper()
	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: mt, Reason: reason, Quantity: dec(qty), ActorID: "op-1",
	})
	require.NoError(t, err)
}

// Escenario completo: producto discreto con stock 0, entrada de producción
// de 20 y venta de 5.
func TestRegisterMovementEscenarioProduccionYVenta(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Pan", UnitID: entity.UnitDiscrete,
		StandardWeightGrams: dec("50"), Type: entity.ProductTypeFinal, Stock: dec("0")})

	registrar(t, uc, entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "20")
	assert.True(t, s.Stock("A").Equal(dec("20")))

	registrar(t, uc, entity.MovementTypeSalida, entity.ReasonSalidaVenta, "5")
	assert.True(t, s.Stock("A").Equal(dec("15")))

	require.Len(t, s.Movements, 2)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	totals, err := uc.SummaryByReason(context.Background(), from, to, "A")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	byReason := map[entity.MovementReason]decimal.Decimal{}
	for _, tt := range totals {
		byReason[tt.Reason] = tt.Total
	}
	assert.True(t, byReason[entity.ReasonEntradaProduccion].Equal(dec("20")))
	assert.True(t, byReason[entity.ReasonSalidaVenta].Equal(dec("5")))
}

// Conservación del ledger: el stock final es la suma firmada de los
// movimientos, reiniciada en cada ajuste.
func TestRegisterMovementConservacionDelLedger(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("0")})

	registrar(t, uc, entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "30")
	registrar(t, uc, entity.MovementTypeSalida, entity.ReasonSalidaVenta, "12")
	registrar(t, uc, entity.MovementTypeProduccion, entity.ReasonEntradaProduccion, "7")
	registrar(t, uc, entity.MovementTypeSalida, entity.ReasonSalidaDaniado, "3")

	suma := decimal.Zero
	for _, m := range s.Movements {
		switch m.Type {
		case entity.MovementTypeEntrada, entity.MovementTypeProduccion:
			suma = suma.Add(m.Quantity)
		case entity.MovementTypeSalida:
			suma = suma.Sub(m.Quantity)
		}
	}
	assert.True(t, s.Stock("A").Equal(suma), "stock %s, suma firmada %s", s.Stock("A"), suma)

	// El ajuste sobrescribe: el invariante arranca de nuevo desde ahí.
	registrar(t, uc, entity.MovementTypeAjuste, entity.ReasonAjusteEntrada, "100")
	assert.True(t, s.Stock("A").Equal(dec("100")))

	registrar(t, uc, entity.MovementTypeSalida, entity.ReasonSalidaVenta, "40")
	assert.True(t, s.Stock("A").Equal(dec("60")))

	// El ajuste también queda en el ledger para auditoría.
	ajustes := 0
	for _, m := range s.Movements {
		if m.Type == entity.MovementTypeAjuste {
			ajustes++
		}
	}
	assert.Equal(t, 1, ajustes)
}

// Stock 5, salida de 6: error y nada escrito.
func TestRegisterMovementSinStockNoEscribeNada(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("5")})

	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: entity.MovementTypeSalida,
		Reason: entity.ReasonSalidaVenta, Quantity: dec("6"), ActorID: "op-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, s.Stock("A").Equal(dec("5")))
	assert.Empty(t, s.Movements)
}

func TestRegisterMovementProductoInexistente(t *testing.T) {
	s, uc := setup()

	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "nada", Type: entity.MovementTypeEntrada,
		Reason: entity.ReasonEntradaProduccion, Quantity: dec("1"), ActorID: "op-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, s.Movements)
}

// El vocabulario de motivos es cerrado y tiene que ser coherente con el tipo.
func TestRegisterMovementMotivoInvalido(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("10")})

	// Motivo fuera del vocabulario.
	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: entity.MovementTypeEntrada,
		Reason: "MOTIVO_INVENTADO", Quantity: dec("1"), ActorID: "op-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReason)

	// Motivo válido pero incompatible con el tipo.
	_, err = uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: entity.MovementTypeSalida,
		Reason: entity.ReasonEntradaCompra, Quantity: dec("1"), ActorID: "op-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReason)

	assert.Empty(t, s.Movements)
}

func TestRegisterMovementCantidadNegativa(t *testing.T) {
	_, uc := setup()

	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: entity.MovementTypeEntrada,
		Reason: entity.ReasonEntradaProduccion, Quantity: dec("-1"), ActorID: "op-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Una compra con precio también deja el gasto en finanzas, en la misma
// transacción.
func TestRegisterMovementCompraConPrecioGeneraGasto(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Harina", UnitID: 2,
		Type: entity.ProductTypeRaw, Stock: dec("0")})

	precio := dec("45.50")
	_, err := uc.RegisterMovement(context.Background(), MovementInput{
		ProductID: "A", Type: entity.MovementTypeEntrada,
		Reason: entity.ReasonEntradaCompra, Quantity: dec("1000"),
		Price: &precio, ActorID: "op-1",
	})
	require.NoError(t, err)

	assert.True(t, s.Stock("A").Equal(dec("1000")))
	require.Len(t, s.Expenses, 1)
	assert.True(t, s.Expenses[0].Amount.Equal(precio))
	assert.Equal(t, entity.FinanceRefInventoryEntry, s.Expenses[0].ReferenceType)
}

func TestHistoryDevuelveMasRecientePrimero(t *testing.T) {
	s, uc := setup()
	s.AddProduct(&entity.Product{ID: "A", Name: "Pan", UnitID: entity.UnitDiscrete,
		Type: entity.ProductTypeFinal, Stock: dec("0")})

	registrar(t, uc, entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, "10")
	registrar(t, uc, entity.MovementTypeSalida, entity.ReasonSalidaVenta, "4")

	hist, err := uc.History(context.Background(), "A", 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.MovementTypeSalida, hist[0].Type)
	assert.Equal(t, entity.MovementTypeEntrada, hist[1].Type)
}
