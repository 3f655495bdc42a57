package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
	"github.com/masapan/erp-inventario/pkg/logger"
)

// RegisterMovementUseCase registra movimientos de inventario de forma
// transaccional (entrada, salida, produccion, ajuste) con bloqueo de fila
// (SELECT FOR UPDATE) y Commit/Rollback. Mantiene el invariante: el stock
// del producto es la suma firmada del ledger desde su creación, reiniciada
// en cada ajuste absoluto.
type RegisterMovementUseCase struct {
	txRunner TxRunner
	movRepo  repository.InventoryMovementRepository
	log      *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso. movRepo es la vista de
// solo lectura (fuera de transacción) para historial y resúmenes.
func NewRegisterMovementUseCase(txRunner TxRunner, movRepo repository.InventoryMovementRepository, log *logger.Logger) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{txRunner: txRunner, movRepo: movRepo, log: log}
}

// MovementInput entrada para registrar un movimiento. Quantity es siempre no
// negativa y está en la unidad nativa del producto; la dirección la da Type.
type MovementInput struct {
	ProductID     string
	Type          entity.MovementType
	Reason        entity.MovementReason
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Description   string
	ActorID       string
}

// RegisterMovement valida el payload antes de tomar ningún bloqueo, inicia
// la transacción, bloquea la fila del producto, aplica el delta (o el
// sobreescrito absoluto si es ajuste) y persiste el movimiento. Una salida
// que dejaría el stock negativo aborta con ErrInsufficientStock sin escribir
// nada.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInput) (*entity.InventoryMovement, error) {
	if input.ProductID == "" || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if !input.Reason.Valid() || !input.Reason.CompatibleWith(input.Type) {
		return nil, domain.ErrInvalidReason
	}
	if input.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		OperationID:   uuid.New().String(),
		ProductID:     input.ProductID,
		Type:          input.Type,
		Reason:        input.Reason,
		Quantity:      input.Quantity,
		Description:   input.Description,
		Price:         input.Price,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		CreatedBy:     input.ActorID,
		Date:          now,
		CreatedAt:     now,
	}

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		financeRepo repository.FinanceRepository,
	) error {
		// Bloquea la fila del producto: el chequeo de stock se hace sobre
		// la lectura transaccional, nunca sobre un valor cacheado.
		product, err := productRepo.GetForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}

		switch input.Type {
		case entity.MovementTypeEntrada, entity.MovementTypeProduccion:
			if err := applyDelta(productRepo, product, input.Quantity); err != nil {
				return err
			}
		case entity.MovementTypeSalida:
			if err := applyDelta(productRepo, product, input.Quantity.Neg()); err != nil {
				return err
			}
		case entity.MovementTypeAjuste:
			if err := setAbsoluteStock(productRepo, product, input.Quantity); err != nil {
				return err
			}
		}

		// Compra con precio: registrar también el gasto en finanzas.
		if input.Reason == entity.ReasonEntradaCompra && input.Price != nil {
			expense := &entity.Expense{
				ID:            uuid.New().String(),
				Date:          now,
				Amount:        *input.Price,
				Concept:       fmt.Sprintf("Compra de %s", product.Name),
				Category:      "Compras",
				ReferenceType: entity.FinanceRefInventoryEntry,
				ReferenceID:   product.ID,
				CreatedBy:     input.ActorID,
			}
			if err := financeRepo.CreateExpense(expense); err != nil {
				return err
			}
		}

		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("product_id", input.ProductID).
		Str("type", string(input.Type)).
		Str("reason", string(input.Reason)).
		Str("quantity", input.Quantity.String()).
		Msg("movimiento registrado")

	return mov, nil
}

// applyDelta suma (o resta, delta negativo) al stock del producto ya
// bloqueado. Rechaza cualquier resultado negativo.
func applyDelta(productRepo repository.ProductRepository, product *entity.Product, delta decimal.Decimal) error {
	next := product.Stock.Add(delta)
	if next.IsNegative() {
		return domain.ErrInsufficientStock
	}
	product.Stock = next
	return productRepo.UpdateStock(product.ID, next)
}

// setAbsoluteStock sobrescribe el stock con la cantidad del ajuste. Es la
// única operación no aditiva del ledger: el invariante de conservación se
// reinicia desde aquí.
func setAbsoluteStock(productRepo repository.ProductRepository, product *entity.Product, quantity decimal.Decimal) error {
	product.Stock = quantity
	return productRepo.UpdateStock(product.ID, quantity)
}

// History devuelve el historial cronológico de movimientos de un producto
// (lectura sin bloqueo, solo reporte).
func (uc *RegisterMovementUseCase) History(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByProduct(productID, limit, offset)
}

// List devuelve movimientos de todos los productos, más recientes primero,
// con rango de fechas opcional.
func (uc *RegisterMovementUseCase) List(ctx context.Context, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return uc.movRepo.ListAll(from, to, limit, offset)
}

// SummaryByReason devuelve los totales por motivo en un rango de fechas,
// opcionalmente filtrados por producto.
func (uc *RegisterMovementUseCase) SummaryByReason(ctx context.Context, from, to time.Time, productID string) ([]repository.ReasonTotal, error) {
	return uc.movRepo.SummaryByReason(from, to, productID)
}
