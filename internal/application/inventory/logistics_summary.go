package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

// LogisticsSummaryUseCase arma el resumen operativo diario: totales por
// motivo, pivot por producto y métricas de merma. Lecturas sin bloqueo: el
// resumen es informativo, no una reserva.
type LogisticsSummaryUseCase struct {
	movRepo     repository.InventoryMovementRepository
	productRepo repository.ProductRepository
}

// NewLogisticsSummaryUseCase construye el caso de uso.
func NewLogisticsSummaryUseCase(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) *LogisticsSummaryUseCase {
	return &LogisticsSummaryUseCase{movRepo: movRepo, productRepo: productRepo}
}

// ProductSummary es la fila del pivot por producto del resumen diario.
type ProductSummary struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	StockActual    decimal.Decimal `json:"stock_actual"`
	Producido      decimal.Decimal `json:"producido"`
	Comprado       decimal.Decimal `json:"comprado"`
	Vendido        decimal.Decimal `json:"vendido"`
	Yapas          decimal.Decimal `json:"yapas"`
	Daniado        decimal.Decimal `json:"daniado"`
	Caducado       decimal.Decimal `json:"caducado"`
	Merma          decimal.Decimal `json:"merma"`
	MermaPct       decimal.Decimal `json:"merma_pct"` // % de merma sobre lo producido
	ConsumoInterno decimal.Decimal `json:"consumo_interno"`
	AjustesEntrada decimal.Decimal `json:"ajustes_entrada"`
	AjustesSalida  decimal.Decimal `json:"ajustes_salida"`
}

// GlobalMetrics son las métricas agregadas del rango.
type GlobalMetrics struct {
	Producido decimal.Decimal `json:"producido"`
	Vendido   decimal.Decimal `json:"vendido"`
	Yapas     decimal.Decimal `json:"yapas"`
	Daniado   decimal.Decimal `json:"daniado"`
	Caducado  decimal.Decimal `json:"caducado"`
	Merma     decimal.Decimal `json:"merma"`
	MermaPct  decimal.Decimal `json:"merma_pct"`
}

// LogisticsSummary es el resultado completo del resumen diario.
type LogisticsSummary struct {
	From           time.Time                                 `json:"from"`
	To             time.Time                                 `json:"to"`
	TotalsByReason map[entity.MovementReason]decimal.Decimal `json:"totals_by_reason"`
	Global         GlobalMetrics                             `json:"global"`
	Products       []ProductSummary                          `json:"products"` // ordenado por merma descendente
}

var hundred = decimal.NewFromInt(100)

// Daily calcula el resumen para un rango (by default el día actual completo),
// opcionalmente filtrado por producto.
func (uc *LogisticsSummaryUseCase) Daily(ctx context.Context, from, to time.Time, productID string) (*LogisticsSummary, error) {
	if from.IsZero() || to.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to = from.Add(24*time.Hour - time.Nanosecond)
	}

	totals, err := uc.movRepo.SummaryByReason(from, to, productID)
	if err != nil {
		return nil, err
	}
	rows, err := uc.movRepo.SummaryByProductAndReason(from, to, productID)
	if err != nil {
		return nil, err
	}

	byReason := make(map[entity.MovementReason]decimal.Decimal, len(totals))
	for _, t := range totals {
		byReason[t.Reason] = t.Total
	}

	// Nombres y stock actual de los productos involucrados.
	seen := make(map[string]bool)
	var ids []string
	for _, r := range rows {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	products, err := uc.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	prodMap := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		prodMap[p.ID] = p
	}

	// Pivot por producto.
	pivot := make(map[string]map[entity.MovementReason]decimal.Decimal)
	for _, r := range rows {
		bucket, ok := pivot[r.ProductID]
		if !ok {
			bucket = make(map[entity.MovementReason]decimal.Decimal)
			pivot[r.ProductID] = bucket
		}
		bucket[r.Reason] = bucket[r.Reason].Add(r.Total)
	}

	summaries := make([]ProductSummary, 0, len(pivot))
	for pid, bucket := range pivot {
		s := ProductSummary{
			ProductID:      pid,
			Producido:      bucket[entity.ReasonEntradaProduccion],
			Comprado:       bucket[entity.ReasonEntradaCompra],
			Vendido:        bucket[entity.ReasonSalidaVenta],
			Yapas:          bucket[entity.ReasonSalidaYapa],
			Daniado:        bucket[entity.ReasonSalidaDaniado],
			Caducado:       bucket[entity.ReasonSalidaCaducado],
			ConsumoInterno: bucket[entity.ReasonSalidaConsumoInterno],
			AjustesEntrada: bucket[entity.ReasonAjusteEntrada],
			AjustesSalida:  bucket[entity.ReasonAjusteSalida],
		}
		if p, ok := prodMap[pid]; ok {
			s.Name = p.Name
			s.StockActual = p.Stock
		}
		s.Merma = s.Daniado.Add(s.Caducado)
		if s.Producido.GreaterThan(decimal.Zero) {
			s.MermaPct = s.Merma.Div(s.Producido).Mul(hundred).Round(2)
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Merma.GreaterThan(summaries[j].Merma)
	})

	global := GlobalMetrics{
		Producido: byReason[entity.ReasonEntradaProduccion],
		Vendido:   byReason[entity.ReasonSalidaVenta],
		Yapas:     byReason[entity.ReasonSalidaYapa],
		Daniado:   byReason[entity.ReasonSalidaDaniado],
		Caducado:  byReason[entity.ReasonSalidaCaducado],
	}
	global.Merma = global.Daniado.Add(global.Caducado)
	if global.Producido.GreaterThan(decimal.Zero) {
		global.MermaPct = global.Merma.Div(global.Producido).Mul(hundred).Round(2)
	}

	return &LogisticsSummary{
		From:           from,
		To:             to,
		TotalsByReason: byReason,
		Global:         global,
		Products:       summaries,
	}, nil
}
