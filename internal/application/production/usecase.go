// Package production implementa el registro de eventos de producción:
// consumo de insumos/intermedios y alta de productos terminados, todo en una
// sola transacción con bloqueo de filas.
package production

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/application/inventory"
	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
	"github.com/masapan/erp-inventario/internal/domain/unidades"
	"github.com/masapan/erp-inventario/pkg/logger"
)

// UseCase orquesta los dos flujos de producción. Cada flujo corre dentro de
// un TxRunner: bloqueo pesimista por producto, en orden ascendente de id
// para evitar deadlocks entre producciones concurrentes que comparten
// ingredientes.
type UseCase struct {
	txRunner inventory.TxRunner
	log      *logger.Logger
}

// NewUseCase construye el caso de uso de producción.
func NewUseCase(txRunner inventory.TxRunner, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, log: log}
}

// ProductoProducido es una salida de la producción simple, en unidad nativa
// del producto.
type ProductoProducido struct {
	ID                        string
	Cantidad                  decimal.Decimal
	GramosPorUnidadIntermedio decimal.Decimal
}

// InsumoConsumido es un insumo de la producción simple; la cantidad viene en
// gramos o en unidades, nunca ambas.
type InsumoConsumido struct {
	ID       string
	Gramos   *decimal.Decimal
	Unidades *decimal.Decimal
}

// IntermediateInput es el payload de producción simple: el operador ya
// resolvió las cantidades reales, no se consulta ninguna receta.
type IntermediateInput struct {
	IntermedioID string
	Gramos       decimal.Decimal
	Productos    []ProductoProducido
	Insumos      []InsumoConsumido
	ActorID      string
}

// SimulatedNode es un nodo del árbol de simulación que arma el planificador
// externo. En el nodo raíz solo cuentan ID, Producto, Requiere y
// CantidadDeseada.
type SimulatedNode struct {
	ID               string
	Producto         string
	CantidadGramos   *decimal.Decimal
	CantidadUnidades *decimal.Decimal
	EsIntermedio     bool
	Sobrante         *decimal.Decimal
	CantidadDeseada  decimal.Decimal
	Requiere         []*SimulatedNode
}

// FinalInput es el payload de producción simulada/final.
type FinalInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Simulated *SimulatedNode
	ActorID   string
}

// ProductDelta documenta el antes/después de stock de un producto tocado.
type ProductDelta struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
	Delta  decimal.Decimal `json:"delta"`
}

// Resumen es la salida de un registro de producción.
type Resumen struct {
	OpID               string         `json:"opId"`
	Intermedio         *ProductDelta  `json:"intermedio,omitempty"`
	ProductosAgregados []ProductDelta `json:"productosAgregados,omitempty"`
	InsumosDescontados []ProductDelta `json:"insumosDescontados,omitempty"`
	Final              *ProductDelta  `json:"final,omitempty"`
	Trazas             []ProductDelta `json:"trazas,omitempty"`
}

func newOpID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// lockProducts bloquea todas las filas de productos en orden ascendente de
// id y devuelve el estado local de la transacción.
func lockProducts(productRepo repository.ProductRepository, ids []string) (map[string]*entity.Product, error) {
	seen := map[string]bool{}
	var sorted []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	locked := make(map[string]*entity.Product, len(sorted))
	for _, id := range sorted {
		p, err := productRepo.GetForUpdate(id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
		}
		locked[id] = p
	}
	return locked, nil
}

// txState agrupa lo que una transacción de producción necesita para emitir
// movimientos y mover stock sobre los productos ya bloqueados.
type txState struct {
	movRepo     repository.InventoryMovementRepository
	productRepo repository.ProductRepository
	locked      map[string]*entity.Product
	opID        string
	actorID     string
	now         time.Time
}

func (s *txState) product(id string) (*entity.Product, error) {
	p, ok := s.locked[id]
	if !ok {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// movement registra una fila del ledger correlacionada con la operación.
func (s *txState) movement(p *entity.Product, mt entity.MovementType, reason entity.MovementReason, qty decimal.Decimal, description string) error {
	return s.movRepo.Create(&entity.InventoryMovement{
		ID:            uuid.NewString(),
		OperationID:   s.opID,
		ProductID:     p.ID,
		Type:          mt,
		Reason:        reason,
		Quantity:      qty,
		Description:   description,
		ReferenceType: "produccion",
		ReferenceID:   s.opID,
		CreatedBy:     s.actorID,
		Date:          s.now,
	})
}

// deduct descuenta stock validando que no quede negativo (lectura local de
// la fila bloqueada, nunca un valor cacheado).
func (s *txState) deduct(p *entity.Product, qty decimal.Decimal) (ProductDelta, error) {
	before := p.Stock
	after := before.Sub(qty)
	if after.IsNegative() {
		return ProductDelta{}, fmt.Errorf("producto %s (stock %s, salida %s): %w",
			p.Name, before, qty, domain.ErrInsufficientStock)
	}
	if err := s.productRepo.UpdateStock(p.ID, after); err != nil {
		return ProductDelta{}, err
	}
	p.Stock = after
	return ProductDelta{ID: p.ID, Name: p.Name, Before: before, After: after, Delta: qty.Neg()}, nil
}

// add incrementa stock.
func (s *txState) add(p *entity.Product, qty decimal.Decimal) (ProductDelta, error) {
	before := p.Stock
	after := before.Add(qty)
	if err := s.productRepo.UpdateStock(p.ID, after); err != nil {
		return ProductDelta{}, err
	}
	p.Stock = after
	return ProductDelta{ID: p.ID, Name: p.Name, Before: before, After: after, Delta: qty}, nil
}

// setAbsolute sobrescribe stock (semántica ajuste) y lo registra en el
// ledger para auditoría.
func (s *txState) setAbsolute(p *entity.Product, qty decimal.Decimal, description string) (ProductDelta, error) {
	before := p.Stock
	if err := s.productRepo.UpdateStock(p.ID, qty); err != nil {
		return ProductDelta{}, err
	}
	p.Stock = qty
	if err := s.movement(p, entity.MovementTypeAjuste, entity.ReasonAjusteEntrada, qty, description); err != nil {
		return ProductDelta{}, err
	}
	return ProductDelta{ID: p.ID, Name: p.Name, Before: before, After: qty, Delta: qty.Sub(before)}, nil
}

// RegisterIntermediate registra la producción simple: consume gramos del
// intermedio, da de alta los productos finales y descuenta los insumos.
// Todo o nada.
func (u *UseCase) RegisterIntermediate(ctx context.Context, in IntermediateInput) (*Resumen, error) {
	if in.IntermedioID == "" {
		return nil, fmt.Errorf("intermedio.id requerido: %w", domain.ErrInvalidInput)
	}
	if !in.Gramos.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("intermedio.gramos debe ser positivo: %w", domain.ErrInvalidInput)
	}
	for _, it := range in.Productos {
		if it.ID == "" || !it.Cantidad.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("producto producido inválido: %w", domain.ErrInvalidInput)
		}
	}
	for _, ins := range in.Insumos {
		if ins.ID == "" {
			return nil, fmt.Errorf("insumo sin id: %w", domain.ErrInvalidInput)
		}
		if ins.Gramos != nil && ins.Gramos.IsNegative() {
			return nil, fmt.Errorf("insumo %s con gramos negativos: %w", ins.ID, domain.ErrInvalidInput)
		}
		if ins.Unidades != nil && ins.Unidades.IsNegative() {
			return nil, fmt.Errorf("insumo %s con unidades negativas: %w", ins.ID, domain.ErrInvalidInput)
		}
	}

	opID := newOpID("PR")
	resumen := &Resumen{OpID: opID}

	err := u.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		_ repository.FinanceRepository,
	) error {
		ids := []string{in.IntermedioID}
		for _, it := range in.Productos {
			ids = append(ids, it.ID)
		}
		for _, ins := range in.Insumos {
			ids = append(ids, ins.ID)
		}
		locked, err := lockProducts(productRepo, ids)
		if err != nil {
			return err
		}
		st := &txState{movRepo: movRepo, productRepo: productRepo, locked: locked,
			opID: opID, actorID: in.ActorID, now: time.Now()}

		// 1) consumo del intermedio (salida en su unidad nativa)
		inter, err := st.product(in.IntermedioID)
		if err != nil {
			return err
		}
		qtyStock := unidades.GramsToStockUnits(inter, in.Gramos)
		if unidades.DegradedConversion(inter) && inter.IsDiscrete() {
			u.log.Warn().Str("product_id", inter.ID).
				Msg("intermedio sin standardWeightGrams: conversión degradada 1:1")
		}
		delta, err := st.deduct(inter, qtyStock)
		if err != nil {
			return err
		}
		if err := st.movement(inter, entity.MovementTypeSalida, entity.ReasonSalidaConsumoInterno, qtyStock,
			fmt.Sprintf("Consumo intermedio %q (%s g). OP:%s", inter.Name, in.Gramos, opID)); err != nil {
			return err
		}
		resumen.Intermedio = &delta

		// 2) alta de productos finales
		for _, it := range in.Productos {
			p, err := st.product(it.ID)
			if err != nil {
				return err
			}
			delta, err := st.add(p, it.Cantidad)
			if err != nil {
				return err
			}
			if err := st.movement(p, entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, it.Cantidad,
				fmt.Sprintf("Producción %q. OP:%s", p.Name, opID)); err != nil {
				return err
			}
			resumen.ProductosAgregados = append(resumen.ProductosAgregados, delta)
		}

		// 3) consumo de insumos (en gramos o unidades)
		for _, ins := range in.Insumos {
			p, err := st.product(ins.ID)
			if err != nil {
				return err
			}
			var qty decimal.Decimal
			var detalle string
			switch {
			case ins.Gramos != nil:
				qty = unidades.GramsToStockUnits(p, *ins.Gramos)
				detalle = fmt.Sprintf("%s g", ins.Gramos)
			case ins.Unidades != nil:
				qty = unidades.UnitsToStockUnits(p, *ins.Unidades)
				detalle = fmt.Sprintf("%s u", ins.Unidades)
			default:
				continue
			}
			delta, err := st.deduct(p, qty)
			if err != nil {
				return err
			}
			if err := st.movement(p, entity.MovementTypeSalida, entity.ReasonSalidaConsumoInterno, qty,
				fmt.Sprintf("Consumo insumo %q (%s). OP:%s", p.Name, detalle, opID)); err != nil {
				return err
			}
			resumen.InsumosDescontados = append(resumen.InsumosDescontados, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("op_id", opID).
		Str("intermedio", in.IntermedioID).
		Int("productos", len(in.Productos)).
		Int("insumos", len(in.Insumos)).
		Msg("producción intermedia registrada")
	return resumen, nil
}

// RegisterFinal registra la producción simulada: recorre el árbol del
// planificador en profundidad (hijos antes que el padre), descuenta hojas,
// deja la traza net-cero de los intermedios, sobrescribe sobrantes y por
// último da de alta el producto final con cantidadDeseada. Todo o nada.
func (u *UseCase) RegisterFinal(ctx context.Context, in FinalInput) (*Resumen, error) {
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("productId y quantity requeridos: %w", domain.ErrInvalidInput)
	}
	if in.Simulated == nil || in.Simulated.Requiere == nil {
		return nil, fmt.Errorf("falta estructura de simulación: %w", domain.ErrInvalidInput)
	}
	if !in.Simulated.CantidadDeseada.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("cantidadDeseada debe ser positiva: %w", domain.ErrInvalidInput)
	}

	opID := newOpID("PF")
	resumen := &Resumen{OpID: opID}

	err := u.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		_ repository.FinanceRepository,
	) error {
		ids := []string{in.ProductID, in.Simulated.ID}
		collectNodeIDs(in.Simulated.Requiere, &ids)
		locked, err := lockProducts(productRepo, ids)
		if err != nil {
			return err
		}
		st := &txState{movRepo: movRepo, productRepo: productRepo, locked: locked,
			opID: opID, actorID: in.ActorID, now: time.Now()}

		for _, nodo := range in.Simulated.Requiere {
			if err := u.processNode(st, nodo, in.Simulated.Producto, resumen); err != nil {
				return err
			}
		}

		// Alta del producto final.
		final, err := st.product(in.ProductID)
		if err != nil {
			return err
		}
		if err := st.movement(final, entity.MovementTypeProduccion, entity.ReasonEntradaProduccion,
			in.Simulated.CantidadDeseada,
			fmt.Sprintf("Producción final de %s. OP:%s", in.Simulated.Producto, opID)); err != nil {
			return err
		}
		delta, err := st.add(final, in.Simulated.CantidadDeseada)
		if err != nil {
			return err
		}
		resumen.Final = &delta
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("op_id", opID).
		Str("product_id", in.ProductID).
		Str("cantidad", in.Simulated.CantidadDeseada.String()).
		Msg("producción final registrada")
	return resumen, nil
}

func collectNodeIDs(nodes []*SimulatedNode, out *[]string) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		*out = append(*out, n.ID)
		collectNodeIDs(n.Requiere, out)
	}
}

// processNode procesa un nodo de la simulación, hijos primero.
func (u *UseCase) processNode(st *txState, nodo *SimulatedNode, parentName string, resumen *Resumen) error {
	if nodo == nil {
		return nil
	}
	prod, err := st.product(nodo.ID)
	if err != nil {
		return err
	}

	// Cantidad en unidad de stock del producto, según cómo la exprese el
	// simulador.
	var qtyStock decimal.Decimal
	var detalle string
	switch {
	case nodo.CantidadGramos != nil:
		qtyStock = unidades.GramsToStockUnits(prod, *nodo.CantidadGramos)
		detalle = fmt.Sprintf("%s g", nodo.CantidadGramos)
	case nodo.CantidadUnidades != nil:
		qtyStock = unidades.UnitsToStockUnits(prod, *nodo.CantidadUnidades)
		detalle = fmt.Sprintf("%s u", nodo.CantidadUnidades)
	default:
		return nil
	}
	if qtyStock.IsNegative() {
		return fmt.Errorf("nodo %s con cantidad negativa: %w", nodo.ID, domain.ErrInvalidInput)
	}

	if len(nodo.Requiere) > 0 {
		for _, sub := range nodo.Requiere {
			if err := u.processNode(st, sub, nodo.Producto, resumen); err != nil {
				return err
			}
		}

		if nodo.EsIntermedio && qtyStock.GreaterThan(decimal.Zero) {
			// Traza net-cero: el intermedio se produjo y se consumió dentro
			// del mismo lote; queda en el ledger pero no mueve stock.
			if err := st.traceProduction(prod, qtyStock, nodo.Producto, parentName); err != nil {
				return err
			}
			resumen.Trazas = append(resumen.Trazas,
				ProductDelta{ID: prod.ID, Name: prod.Name, Before: prod.Stock, After: prod.Stock})

			// El sobrante del simulador sobrescribe el stock del intermedio.
			if nodo.Sobrante != nil {
				if nodo.Sobrante.IsNegative() {
					return fmt.Errorf("sobrante negativo en %s: %w", nodo.ID, domain.ErrInvalidInput)
				}
				delta, err := st.setAbsolute(prod, *nodo.Sobrante,
					fmt.Sprintf("Sobrante de %s tras lote. OP:%s", nodo.Producto, st.opID))
				if err != nil {
					return err
				}
				resumen.Trazas = append(resumen.Trazas, delta)
			}
		}
		return nil
	}

	// Hoja insumo: salida real de stock.
	if qtyStock.GreaterThan(decimal.Zero) {
		delta, err := st.deduct(prod, qtyStock)
		if err != nil {
			return err
		}
		if err := st.movement(prod, entity.MovementTypeSalida, entity.ReasonSalidaConsumoInterno, qtyStock,
			fmt.Sprintf("Consumo de insumo %s (%s) para %s. OP:%s", nodo.Producto, detalle, parentName, st.opID)); err != nil {
			return err
		}
		resumen.InsumosDescontados = append(resumen.InsumosDescontados, delta)
	}
	return nil
}

// traceProduction deja el par entrada/salida auto-cancelado de un
// intermedio producido y consumido en el mismo lote.
func (st *txState) traceProduction(p *entity.Product, qty decimal.Decimal, nombre, parentName string) error {
	if err := st.movement(p, entity.MovementTypeEntrada, entity.ReasonEntradaProduccion, qty,
		fmt.Sprintf("Producción intermedia de %s. OP:%s", nombre, st.opID)); err != nil {
		return err
	}
	return st.movement(p, entity.MovementTypeSalida, entity.ReasonSalidaConsumoInterno, qty,
		fmt.Sprintf("Consumo de %s para %s. OP:%s", nombre, parentName, st.opID))
}
