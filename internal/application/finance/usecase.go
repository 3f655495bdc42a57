// Package finance implementa la sincronización financiera de ítems de
// pedido: pagos, ingresos y el cierre logístico que convierte los cortes
// vendido/dañado/yapa/reemplazo en salidas reales de inventario.
package finance

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

// UseCase orquesta las transiciones de pago y el cierre logístico de ítems
// de pedido. Cada operación corre en una transacción con bloqueo de fila
// sobre el ítem (y el producto cuando hay salidas de stock).
type UseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewUseCase construye el caso de uso financiero.
func NewUseCase(txRunner TxRunner, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, log: log}
}

// UpdateItemInput son los campos editables de un ítem; los punteros nulos no
// tocan el campo.
type UpdateItemInput struct {
	ItemID      string
	Quantity    *decimal.Decimal
	Price       *decimal.Decimal
	SoldQty     *decimal.Decimal
	PaidAt      *time.Time
	ClearPaidAt bool
	DeliveredAt *time.Time
	ActorID     string
}

// CloseInput son los cortes finales del cierre logístico de un ítem.
type CloseInput struct {
	ItemID      string
	SoldQty     decimal.Decimal
	DamagedQty  decimal.Decimal
	GiftQty     decimal.Decimal
	ReplacedQty decimal.Decimal
	ActorID     string
}

func incomeAmount(item *entity.OrderItem) decimal.Decimal {
	return item.Price.Mul(item.BillableQty()).Round(2)
}

// MarkItemPaid marca un ítem como pagado, upserta su ingreso por
// (order_item, itemId) y reconcilia el estado del pedido.
func (u *UseCase) MarkItemPaid(ctx context.Context, itemID, actorID string) (*entity.OrderItem, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.OrderItem

	err := u.txRunner.RunFinance(ctx, func(
		_ repository.InventoryMovementRepository,
		_ repository.ProductRepository,
		orderRepo repository.OrderRepository,
		financeRepo repository.FinanceRepository,
	) error {
		item, err := orderRepo.GetItemForUpdate(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
		}
		if item.PaidAt != nil {
			return fmt.Errorf("ítem %s ya está pagado: %w", itemID, domain.ErrConflict)
		}

		now := time.Now()
		item.PaidAt = &now
		if err := orderRepo.UpdateItem(item); err != nil {
			return err
		}

		if err := u.upsertIncome(financeRepo, item, actorID); err != nil {
			return err
		}
		if err := reconcileOrderStatus(orderRepo, item.OrderID); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("item_id", itemID).
		Str("amount", incomeAmount(out).String()).
		Msg("ítem marcado como pagado")
	return out, nil
}

// MarkItemUnpaid revierte el pago: borra el ingreso ligado al ítem y
// reconcilia el estado del pedido.
func (u *UseCase) MarkItemUnpaid(ctx context.Context, itemID string) (*entity.OrderItem, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.OrderItem

	err := u.txRunner.RunFinance(ctx, func(
		_ repository.InventoryMovementRepository,
		_ repository.ProductRepository,
		orderRepo repository.OrderRepository,
		financeRepo repository.FinanceRepository,
	) error {
		item, err := orderRepo.GetItemForUpdate(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
		}
		if item.PaidAt == nil {
			return fmt.Errorf("ítem %s no está pagado: %w", itemID, domain.ErrConflict)
		}

		item.PaidAt = nil
		if err := orderRepo.UpdateItem(item); err != nil {
			return err
		}

		income, err := financeRepo.GetIncomeByReference(entity.FinanceRefOrderItem, item.ID)
		if err != nil {
			return err
		}
		if income != nil {
			if err := financeRepo.DeleteIncome(income.ID); err != nil {
				return err
			}
		}
		if err := reconcileOrderStatus(orderRepo, item.OrderID); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("item_id", itemID).Msg("pago de ítem revertido")
	return out, nil
}

// UpdateItem edita cantidad/precio/vendido y las marcas de pago/entrega.
// Cuando un campo que toca dinero cambia, el ingreso del ítem se
// re-sincroniza con el nuevo monto (o se elimina si el ítem quedó impago).
func (u *UseCase) UpdateItem(ctx context.Context, in UpdateItemInput) (*entity.OrderItem, error) {
	if in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	for _, d := range []*decimal.Decimal{in.Quantity, in.Price, in.SoldQty} {
		if d != nil && d.IsNegative() {
			return nil, fmt.Errorf("cantidades negativas: %w", domain.ErrInvalidInput)
		}
	}

	var out *entity.OrderItem
	err := u.txRunner.RunFinance(ctx, func(
		_ repository.InventoryMovementRepository,
		_ repository.ProductRepository,
		orderRepo repository.OrderRepository,
		financeRepo repository.FinanceRepository,
	) error {
		item, err := orderRepo.GetItemForUpdate(in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", in.ItemID, domain.ErrNotFound)
		}

		touchesMoney := in.Quantity != nil || in.Price != nil || in.SoldQty != nil ||
			in.PaidAt != nil || in.ClearPaidAt

		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if in.Price != nil {
			item.Price = *in.Price
		}
		if in.SoldQty != nil {
			item.SoldQty = *in.SoldQty
		}
		if in.PaidAt != nil {
			item.PaidAt = in.PaidAt
		}
		if in.ClearPaidAt {
			item.PaidAt = nil
		}
		if in.DeliveredAt != nil {
			item.DeliveredAt = in.DeliveredAt
		}

		if item.SoldQty.GreaterThan(item.Quantity) {
			return fmt.Errorf("soldQty no puede superar quantity: %w", domain.ErrInvalidInput)
		}

		if err := orderRepo.UpdateItem(item); err != nil {
			return err
		}

		if touchesMoney {
			income, err := financeRepo.GetIncomeByReference(entity.FinanceRefOrderItem, item.ID)
			if err != nil {
				return err
			}
			switch {
			case item.PaidAt != nil:
				if err := u.upsertIncome(financeRepo, item, in.ActorID); err != nil {
					return err
				}
			case income != nil:
				if err := financeRepo.DeleteIncome(income.ID); err != nil {
					return err
				}
			}
		}

		if err := reconcileOrderStatus(orderRepo, item.OrderID); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CloseItemLogistics fija los cortes finales del ítem. El cierre es
// monótono: los cortes solo pueden crecer, y cada delta positivo se vuelve
// una salida real en el ledger con su motivo propio.
func (u *UseCase) CloseItemLogistics(ctx context.Context, in CloseInput) (*entity.OrderItem, error) {
	if in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.OrderItem

	err := u.txRunner.RunFinance(ctx, func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
		_ repository.FinanceRepository,
	) error {
		item, err := orderRepo.GetItemForUpdate(in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", in.ItemID, domain.ErrNotFound)
		}

		newSold := clampNonNeg(in.SoldQty)
		newDam := clampNonNeg(in.DamagedQty)
		newGift := clampNonNeg(in.GiftQty)
		newRep := clampNonNeg(in.ReplacedQty)

		total := newSold.Add(newDam).Add(newGift).Add(newRep)
		if total.GreaterThan(item.Quantity) {
			return fmt.Errorf("la suma de cortes supera lo entregado: %w", domain.ErrInvalidInput)
		}

		dSold := newSold.Sub(item.SoldQty)
		dDam := newDam.Sub(item.DamagedQty)
		dGift := newGift.Sub(item.GiftQty)
		dRep := newRep.Sub(item.ReplacedQty)

		// Cierre monótono: reducir un corte ya cerrado exige un ajuste
		// autorizado, nunca este endpoint.
		for _, d := range []decimal.Decimal{dSold, dDam, dGift, dRep} {
			if d.IsNegative() {
				return fmt.Errorf("no se permite reducir valores del cierre: %w", domain.ErrConflict)
			}
		}

		product, err := productRepo.GetForUpdate(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("producto %s: %w", item.ProductID, domain.ErrNotFound)
		}

		totalDeltaOut := dSold.Add(dDam).Add(dGift).Add(dRep)
		newStock := product.Stock.Sub(totalDeltaOut)
		if newStock.IsNegative() {
			return fmt.Errorf("producto %s (stock %s, cierre %s): %w",
				product.Name, product.Stock, totalDeltaOut, domain.ErrInsufficientStock)
		}
		if err := productRepo.UpdateStock(product.ID, newStock); err != nil {
			return err
		}

		now := time.Now()
		createMov := func(qty decimal.Decimal, reason entity.MovementReason, desc string) error {
			if !qty.GreaterThan(decimal.Zero) {
				return nil
			}
			return movRepo.Create(&entity.InventoryMovement{
				ID:            uuid.NewString(),
				ProductID:     item.ProductID,
				Type:          entity.MovementTypeSalida,
				Reason:        reason,
				Quantity:      qty,
				Description:   desc,
				ReferenceType: entity.FinanceRefOrderItem,
				ReferenceID:   item.ID,
				CreatedBy:     in.ActorID,
				Date:          now,
			})
		}
		if err := createMov(dSold, entity.ReasonSalidaVenta,
			fmt.Sprintf("Cierre vendido (orderItem %s)", item.ID)); err != nil {
			return err
		}
		if err := createMov(dDam, entity.ReasonSalidaDaniado,
			fmt.Sprintf("Cierre dañado (orderItem %s)", item.ID)); err != nil {
			return err
		}
		if err := createMov(dGift, entity.ReasonSalidaYapa,
			fmt.Sprintf("Cierre yapa (orderItem %s)", item.ID)); err != nil {
			return err
		}
		if err := createMov(dRep, entity.ReasonSalidaReemplazo,
			fmt.Sprintf("Cierre reemplazo (orderItem %s)", item.ID)); err != nil {
			return err
		}

		item.SoldQty = newSold
		item.DamagedQty = newDam
		item.GiftQty = newGift
		item.ReplacedQty = newRep
		if err := orderRepo.UpdateItem(item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("item_id", in.ItemID).
		Str("vendido", out.SoldQty.String()).
		Str("daniado", out.DamagedQty.String()).
		Str("yapa", out.GiftQty.String()).
		Str("reemplazo", out.ReplacedQty.String()).
		Msg("cierre logístico guardado")
	return out, nil
}

func clampNonNeg(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// upsertIncome crea o actualiza el ingreso del ítem con el monto cobrable
// vigente.
func (u *UseCase) upsertIncome(financeRepo repository.FinanceRepository, item *entity.OrderItem, actorID string) error {
	amount := incomeAmount(item)
	concept := fmt.Sprintf("Pago ítem %s (pedido %s)", item.ID, item.OrderID)

	income, err := financeRepo.GetIncomeByReference(entity.FinanceRefOrderItem, item.ID)
	if err != nil {
		return err
	}
	if income != nil {
		income.Amount = amount
		income.Date = time.Now()
		income.Concept = concept
		income.Category = "Venta"
		return financeRepo.UpdateIncome(income)
	}
	return financeRepo.CreateIncome(&entity.Income{
		ID:            uuid.NewString(),
		Date:          time.Now(),
		Amount:        amount,
		Concept:       concept,
		Category:      "Venta",
		ReferenceType: entity.FinanceRefOrderItem,
		ReferenceID:   item.ID,
		CreatedBy:     actorID,
	})
}

// reconcileOrderStatus deja el pedido en "pagado" solo cuando todos sus
// ítems tienen pago registrado.
func reconcileOrderStatus(orderRepo repository.OrderRepository, orderID string) error {
	items, err := orderRepo.ListItemsByOrder(orderID)
	if err != nil {
		return err
	}
	allPaid := len(items) > 0
	for _, it := range items {
		if it.PaidAt == nil {
			allPaid = false
			break
		}
	}
	status := entity.OrderStatusPendiente
	if allPaid {
		status = entity.OrderStatusPagado
	}
	order, err := orderRepo.GetOrder(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	return orderRepo.UpdateOrderStatus(orderID, status)
}
