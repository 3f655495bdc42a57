package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
	"github.com/masapan/erp-inventario/internal/domain/unidades"
	"github.com/masapan/erp-inventario/pkg/logger"
)

// Engine es el motor de costeo recursivo del BOM. Cálculo puro sobre un
// grafo que se asume acíclico y se valida con un DFS antes de recorrerlo.
// Nada se cachea: recetas y precios pueden cambiar entre peticiones, así que
// cada evaluación parte de cero y el resultado es solo orientativo (puede
// competir con ediciones de receta concurrentes).
type Engine struct {
	productRepo repository.ProductRepository
	recipeRepo  repository.RecipeRepository
	log         *logger.Logger
}

// NewEngine construye el motor de costeo.
func NewEngine(productRepo repository.ProductRepository, recipeRepo repository.RecipeRepository, log *logger.Logger) *Engine {
	return &Engine{productRepo: productRepo, recipeRepo: recipeRepo, log: log}
}

// NodeInfo identifica el producto de un nodo del árbol de costeo.
type NodeInfo struct {
	ID     string          `json:"id"`
	Nombre string          `json:"nombre"`
	Type   string          `json:"type"`
	UnitID int             `json:"unitId"`
	Unidad string          `json:"unidad"` // "unidad" | "gramos"
	Mult   decimal.Decimal `json:"mult"`   // unidades o gramos pedidos a este nodo
}

// NodeCost son los acumulados del subárbol de un nodo.
type NodeCost struct {
	SubtotalInsumos       decimal.Decimal `json:"subtotalInsumos"`
	SubtotalMateriales    decimal.Decimal `json:"subtotalMateriales"`
	TotalPesoEnMasaGr     decimal.Decimal `json:"totalPesoEnMasaGr"`     // solo insumos (g)
	TotalUnidadesMaterial decimal.Decimal `json:"totalUnidadesMaterial"` // solo materiales (u)
	TotalNodo             decimal.Decimal `json:"totalNodo"`
	UnitCost              decimal.Decimal `json:"unitCost"`
	UnitCostLabel         string          `json:"unitCostLabel"` // "/u" | "/g"
}

// DirectItem es el detalle directo (sin hijos) de un nodo, estilo planilla.
type DirectItem struct {
	Nombre              string          `json:"nombre"`
	Tipo                string          `json:"tipo"` // insumo | material
	UnidadBase          string          `json:"unidadBase"`
	Consumo             decimal.Decimal `json:"consumo"`
	PrecioNeto          decimal.Decimal `json:"precioNeto"`
	PesoNeto            decimal.Decimal `json:"pesoNeto"`
	PrecioUnitBase      decimal.Decimal `json:"precioUnitBase"`
	Valor               decimal.Decimal `json:"valor"`
	IsQuantityInGrams   bool            `json:"isQuantityInGrams,omitempty"`
	StandardWeightGrams decimal.Decimal `json:"standardWeightGrams,omitempty"`
}

// DirectSubtotal suma solo los DirectItems del nodo (no incluye hijos).
type DirectSubtotal struct {
	TotalPesoEnMasaGr     decimal.Decimal `json:"totalPesoEnMasaGr"`
	TotalUnidadesMaterial decimal.Decimal `json:"totalUnidadesMaterial"`
	TotalValor            decimal.Decimal `json:"totalValor"`
}

// Row es una fila del aplanado: una contribución de un ingrediente hoja,
// anotada con la ruta de productos padres. Árbol y filas salen del mismo
// recorrido, así que siempre concuerdan.
type Row struct {
	Path                string          `json:"path"`
	ProductoFinalID     string          `json:"productoFinalId"`
	NombreProductoFinal string          `json:"nombreProductoFinal"`
	NombreInsumo        string          `json:"nombreInsumo"`
	Tipo                string          `json:"tipo"`
	PrecioNeto          decimal.Decimal `json:"precioNeto"`
	PesoNeto            decimal.Decimal `json:"pesoNeto"`
	CantidadUsada       decimal.Decimal `json:"cantidadUsada"`
	PrecioUnitBase      decimal.Decimal `json:"precioUnitBase"`
	Valor               decimal.Decimal `json:"valor"`
	IsQuantityInGrams   bool            `json:"isQuantityInGrams,omitempty"`
	StandardWeightGrams decimal.Decimal `json:"standardWeightGrams,omitempty"`
	Notas               string          `json:"notas,omitempty"`
}

// CostNode es un nodo del árbol de costeo (calculado, nunca persistido).
type CostNode struct {
	Info           NodeInfo       `json:"info"`
	Children       []*CostNode    `json:"children"`
	Cost           NodeCost       `json:"cost"`
	Rows           []Row          `json:"rows"`
	DirectItems    []DirectItem   `json:"directItems"`
	DirectSubtotal DirectSubtotal `json:"directSubtotal"`
}

// Summary son los totales del lote con recargos.
// Regla de negocio fija: extras aplica SOLO sobre insumos, mano de obra
// sobre (insumos + extras); los materiales quedan fuera de ambos recargos.
type Summary struct {
	SubtotalInsumos       decimal.Decimal `json:"subtotalInsumos"`
	SubtotalMateriales    decimal.Decimal `json:"subtotalMateriales"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	ExtrasPercent         int             `json:"extrasPercentInt"`
	Extras                decimal.Decimal `json:"extras"`
	BaseConExtras         decimal.Decimal `json:"baseConExtras"`
	LaborPercent          int             `json:"laborPercentInt"`
	Labor                 decimal.Decimal `json:"labor"`
	TotalLote             decimal.Decimal `json:"totalLote"`
	ProducedQty           decimal.Decimal `json:"producedQty"`
	CostoUnitario         decimal.Decimal `json:"costoUnitario"`
	TotalPesoEnMasaGr     decimal.Decimal `json:"totalPesoEnMasaGr"`
	TotalUnidadesMaterial decimal.Decimal `json:"totalUnidadesMaterial"`
}

// YieldEntry responde la consulta inversa de rendimiento: cuántas salidas de
// un padre alcanza a cubrir la cantidad disponible de este producto.
// Recorrido de un solo nivel (fan-out), no recursivo.
type YieldEntry struct {
	ParentID               string          `json:"parentId"`
	ParentName             string          `json:"parentName"`
	ParentType             string          `json:"parentType"`
	UnitID                 int             `json:"unitId"`
	Unidad                 string          `json:"unidad"`
	QuantityPerUnitParent  decimal.Decimal `json:"quantityPerUnitParent"`
	IsQuantityInGrams      bool            `json:"isQuantityInGrams"`
	TotalGramosDisponibles decimal.Decimal `json:"totalGramosDisponibles"`
	UnidadesPosiblesParent decimal.Decimal `json:"unidadesPosiblesParent"`
	NotaConsumo            string          `json:"notaConsumo"`
}

// Result es la salida completa de una evaluación de costeo.
type Result struct {
	Tree    *CostNode    `json:"tree"`
	Rows    []Row        `json:"rows"`
	Summary Summary      `json:"summary"`
	Yield   []YieldEntry `json:"yieldInfo"`
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// safeDiv divide devolviendo cero cuando el divisor no es positivo.
func safeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.GreaterThan(decimal.Zero) {
		return a.Div(b)
	}
	return decimal.Zero
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func unidadLabel(p *entity.Product) string {
	if p.IsDiscrete() {
		return "unidad"
	}
	return "gramos"
}

func (e *Engine) fetchProduct(id string) (*entity.Product, error) {
	p, err := e.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// CheckAcyclic recorre el BOM desde productID con un DFS y falla rápido con
// ErrRecipeCycle si el grafo tiene un ciclo. Se ejecuta antes de cualquier
// recorrido recursivo para no reventar la pila.
func (e *Engine) CheckAcyclic(ctx context.Context, productID string) error {
	return e.dfsCycle(productID, map[string]bool{}, map[string]bool{})
}

func (e *Engine) dfsCycle(id string, onPath, done map[string]bool) error {
	if onPath[id] {
		return fmt.Errorf("producto %s: %w", id, domain.ErrRecipeCycle)
	}
	if done[id] {
		return nil
	}
	onPath[id] = true
	lines, err := e.recipeRepo.ListByFinal(id)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if err := e.dfsCycle(l.ProductRawID, onPath, done); err != nil {
			return err
		}
	}
	delete(onPath, id)
	done[id] = true
	return nil
}

// ComputeProducedGrams devuelve el rendimiento en gramos "base" del producto:
// el override ProductionYieldGrams si existe, o la masa implícita de su
// receta (suma de los aportes en gramos de cada línea).
func (e *Engine) ComputeProducedGrams(productID string) (decimal.Decimal, error) {
	p, err := e.fetchProduct(productID)
	if err != nil {
		return decimal.Zero, err
	}
	if p.ProductionYieldGrams.GreaterThan(decimal.Zero) {
		return p.ProductionYieldGrams, nil
	}

	lines, err := e.recipeRepo.ListByFinal(productID)
	if err != nil {
		return decimal.Zero, err
	}
	suma := decimal.Zero
	for _, l := range lines {
		ins, err := e.fetchProduct(l.ProductRawID)
		if err != nil {
			return decimal.Zero, err
		}
		if l.IsQuantityInGrams {
			suma = suma.Add(l.Quantity)
			continue
		}
		// Una unidad (real o "lógica") en receta equivale a su peso estándar.
		suma = suma.Add(l.Quantity.Mul(ins.StandardWeightGrams))
	}
	return suma, nil
}

// buildCostNode construye el nodo de costeo para productID escalado por mult:
// unidades solicitadas si el producto es discreto, gramos si no. Árbol y
// filas planas se acumulan en el mismo recorrido; los valores de fila se
// redondean a 6 decimales y los subtotales acumulan esos mismos valores, de
// modo que la suma de filas y el total del nodo coinciden exactamente.
func (e *Engine) buildCostNode(productID string, mult decimal.Decimal, path []string, onPath map[string]bool) (*CostNode, error) {
	if onPath[productID] {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrRecipeCycle)
	}
	onPath[productID] = true
	defer delete(onPath, productID)

	p, err := e.fetchProduct(productID)
	if err != nil {
		return nil, err
	}
	if mult.IsZero() {
		mult = one
	}

	node := &CostNode{
		Info: NodeInfo{
			ID:     p.ID,
			Nombre: p.Name,
			Type:   p.Type,
			UnitID: p.UnitID,
			Unidad: unidadLabel(p),
			Mult:   mult,
		},
		Cost: NodeCost{UnitCostLabel: costLabel(p)},
	}

	lines, err := e.recipeRepo.ListByFinal(productID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		// Hoja sin receta: costo cero. La materia prima solo cuesta cuando
		// aparece como ingrediente de otro producto.
		finalizeNode(node)
		return node, nil
	}

	producedGrams := one
	if !p.IsDiscrete() {
		producedGrams, err = e.ComputeProducedGrams(productID)
		if err != nil {
			return nil, err
		}
	}

	for _, line := range lines {
		raw, err := e.fetchProduct(line.ProductRawID)
		if err != nil {
			return nil, err
		}

		// Escala de consumo heredada del padre.
		scale := mult
		if !p.IsDiscrete() {
			scale = safeDiv(mult, producedGrams)
		}
		baseQty := line.Quantity.Mul(scale)

		if !raw.IsIntermediate() {
			if line.IsMaterial() {
				e.addMaterialLeaf(node, p, raw, baseQty, path)
			} else {
				e.addInsumoLeaf(node, p, raw, line, baseQty, path)
			}
			continue
		}

		// Intermedio: calcular el multiplicador en la unidad nativa del hijo
		// y recursar.
		childMult := childMultiplier(raw, line.IsQuantityInGrams, baseQty)
		childNode, err := e.buildCostNode(raw.ID, childMult, append(path, p.Name), onPath)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)

		node.Cost.SubtotalInsumos = node.Cost.SubtotalInsumos.Add(childNode.Cost.SubtotalInsumos)
		node.Cost.SubtotalMateriales = node.Cost.SubtotalMateriales.Add(childNode.Cost.SubtotalMateriales)
		node.Cost.TotalPesoEnMasaGr = node.Cost.TotalPesoEnMasaGr.Add(childNode.Cost.TotalPesoEnMasaGr)
		node.Cost.TotalUnidadesMaterial = node.Cost.TotalUnidadesMaterial.Add(childNode.Cost.TotalUnidadesMaterial)
		node.Rows = append(node.Rows, childNode.Rows...)
	}

	finalizeNode(node)
	return node, nil
}

// childMultiplier convierte la cantidad demandada por la línea (gramos o
// unidades) a la unidad nativa del hijo.
func childMultiplier(child *entity.Product, inGrams bool, baseQty decimal.Decimal) decimal.Decimal {
	if child.IsDiscrete() {
		if inGrams {
			return safeDiv(baseQty, child.StandardWeightGrams) // gramos -> unidades
		}
		return baseQty
	}
	if inGrams {
		return baseQty
	}
	return baseQty.Mul(child.StandardWeightGrams) // unidades -> gramos
}

// addMaterialLeaf acumula una hoja material: costo por unidad discreta del
// empaque (price/netWeight en unidades).
func (e *Engine) addMaterialLeaf(node *CostNode, parent, raw *entity.Product, baseQty decimal.Decimal, path []string) {
	unidadesUsadas := baseQty
	precioPorUnidad := safeDiv(raw.Price, raw.NetWeight)
	valor := precioPorUnidad.Mul(unidadesUsadas).Round(6)

	node.Cost.SubtotalMateriales = node.Cost.SubtotalMateriales.Add(valor)
	node.Cost.TotalUnidadesMaterial = node.Cost.TotalUnidadesMaterial.Add(unidadesUsadas)
	node.DirectSubtotal.TotalUnidadesMaterial = node.DirectSubtotal.TotalUnidadesMaterial.Add(unidadesUsadas)
	node.DirectSubtotal.TotalValor = node.DirectSubtotal.TotalValor.Add(valor)

	node.DirectItems = append(node.DirectItems, DirectItem{
		Nombre:         raw.Name,
		Tipo:           entity.RecipeItemMaterial,
		UnidadBase:     "unidad",
		Consumo:        unidadesUsadas,
		PrecioNeto:     raw.Price,
		PesoNeto:       raw.NetWeight, // unidades por empaque
		PrecioUnitBase: precioPorUnidad,
		Valor:          valor,
	})
	node.Rows = append(node.Rows, Row{
		Path:                joinPath(path, parent.Name, raw.Name),
		ProductoFinalID:     parent.ID,
		NombreProductoFinal: parent.Name,
		NombreInsumo:        raw.Name,
		Tipo:                entity.RecipeItemMaterial,
		PrecioNeto:          raw.Price,
		PesoNeto:            raw.NetWeight,
		CantidadUsada:       unidadesUsadas,
		PrecioUnitBase:      precioPorUnidad,
		Valor:               valor,
		Notas:               "Material: price/netWeight * unidades",
	})
}

// addInsumoLeaf acumula una hoja insumo: costo por gramo del empaque
// (price/netWeight en gramos).
func (e *Engine) addInsumoLeaf(node *CostNode, parent, raw *entity.Product, line *entity.RecipeLine, baseQty decimal.Decimal, path []string) {
	var gramosUsados decimal.Decimal
	var nota string
	if line.IsQuantityInGrams {
		gramosUsados = baseQty
		nota = "Cantidad en gramos"
	} else {
		gramosUsados = baseQty.Mul(raw.StandardWeightGrams) // unidades -> gramos
		nota = "Unidades -> gramos (peso estándar)"
		if unidades.DegradedConversion(raw) {
			// Sin peso estándar el consumo queda en cero: dato de producto
			// incompleto, no un costo real.
			e.log.Warn().
				Str("product_id", raw.ID).
				Str("product", raw.Name).
				Msg("insumo sin standardWeightGrams: conversión degradada en costeo")
		}
	}

	precioPorGramo := safeDiv(raw.Price, raw.NetWeight)
	valor := precioPorGramo.Mul(gramosUsados).Round(6)

	node.Cost.SubtotalInsumos = node.Cost.SubtotalInsumos.Add(valor)
	node.Cost.TotalPesoEnMasaGr = node.Cost.TotalPesoEnMasaGr.Add(gramosUsados)
	node.DirectSubtotal.TotalPesoEnMasaGr = node.DirectSubtotal.TotalPesoEnMasaGr.Add(gramosUsados)
	node.DirectSubtotal.TotalValor = node.DirectSubtotal.TotalValor.Add(valor)

	node.DirectItems = append(node.DirectItems, DirectItem{
		Nombre:              raw.Name,
		Tipo:                entity.RecipeItemInsumo,
		UnidadBase:          "gramos",
		Consumo:             gramosUsados,
		PrecioNeto:          raw.Price,
		PesoNeto:            raw.NetWeight, // gramos por empaque
		PrecioUnitBase:      precioPorGramo,
		Valor:               valor,
		IsQuantityInGrams:   line.IsQuantityInGrams,
		StandardWeightGrams: raw.StandardWeightGrams,
	})
	node.Rows = append(node.Rows, Row{
		Path:                joinPath(path, parent.Name, raw.Name),
		ProductoFinalID:     parent.ID,
		NombreProductoFinal: parent.Name,
		NombreInsumo:        raw.Name,
		Tipo:                entity.RecipeItemInsumo,
		PrecioNeto:          raw.Price,
		PesoNeto:            raw.NetWeight,
		CantidadUsada:       gramosUsados,
		PrecioUnitBase:      precioPorGramo,
		Valor:               valor,
		IsQuantityInGrams:   line.IsQuantityInGrams,
		StandardWeightGrams: raw.StandardWeightGrams,
		Notas:               nota,
	})
}

func joinPath(path []string, names ...string) string {
	out := ""
	for _, s := range append(append([]string{}, path...), names...) {
		if out != "" {
			out += " > "
		}
		out += s
	}
	return out
}

func costLabel(p *entity.Product) string {
	if p.IsDiscrete() {
		return "/u"
	}
	return "/g"
}

// finalizeNode completa totales y unitarios del nodo.
func finalizeNode(node *CostNode) {
	node.Cost.TotalNodo = node.Cost.SubtotalInsumos.Add(node.Cost.SubtotalMateriales)
	if node.Info.Mult.GreaterThan(decimal.Zero) {
		node.Cost.UnitCost = node.Cost.TotalNodo.Div(node.Info.Mult).Round(6)
	}
}

// Compute evalúa el costeo completo de un producto final: árbol, filas
// planas, resumen de lote con recargos y la consulta inversa de rendimiento.
// extrasPercent y laborPercent son enteros 0..100 (valores fuera se
// recortan).
func (e *Engine) Compute(ctx context.Context, productID string, producedQty decimal.Decimal, extrasPercent, laborPercent int) (*Result, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := e.CheckAcyclic(ctx, productID); err != nil {
		return nil, err
	}

	product, err := e.fetchProduct(productID)
	if err != nil {
		return nil, err
	}

	extrasPercent = clampPct(extrasPercent)
	laborPercent = clampPct(laborPercent)

	rootMult := producedQty
	if product.IsDiscrete() && !producedQty.GreaterThan(decimal.Zero) {
		rootMult = one
	}
	tree, err := e.buildCostNode(productID, rootMult, nil, map[string]bool{})
	if err != nil {
		return nil, err
	}

	subtotalInsumos := tree.Cost.SubtotalInsumos
	subtotalMateriales := tree.Cost.SubtotalMateriales

	// Extras sobre INSUMOS; mano de obra sobre (INSUMOS + EXTRAS).
	// Los materiales no entran en la base. Orden fijo de negocio.
	extras := subtotalInsumos.Mul(decimal.NewFromInt(int64(extrasPercent))).Div(hundred)
	baseConExtras := subtotalInsumos.Add(extras)
	labor := baseConExtras.Mul(decimal.NewFromInt(int64(laborPercent))).Div(hundred)
	totalLote := baseConExtras.Add(labor)

	costoUnitario := decimal.Zero
	if producedQty.GreaterThan(decimal.Zero) {
		costoUnitario = totalLote.Div(producedQty).Round(4)
	}

	yield, err := e.yieldInfo(product, producedQty)
	if err != nil {
		return nil, err
	}

	return &Result{
		Tree: tree,
		Rows: tree.Rows,
		Summary: Summary{
			SubtotalInsumos:       subtotalInsumos.Round(2),
			SubtotalMateriales:    subtotalMateriales.Round(2),
			Subtotal:              subtotalInsumos.Add(subtotalMateriales).Round(2),
			ExtrasPercent:         extrasPercent,
			Extras:                extras.Round(2),
			BaseConExtras:         baseConExtras.Round(2),
			LaborPercent:          laborPercent,
			Labor:                 labor.Round(2),
			TotalLote:             totalLote.Round(2),
			ProducedQty:           producedQty,
			CostoUnitario:         costoUnitario,
			TotalPesoEnMasaGr:     tree.Cost.TotalPesoEnMasaGr.Round(2),
			TotalUnidadesMaterial: tree.Cost.TotalUnidadesMaterial.Round(2),
		},
		Yield: yield,
	}, nil
}

// yieldInfo calcula, para cada receta donde este producto es ingrediente,
// cuántas salidas del padre cubre la cantidad disponible. Un solo nivel.
func (e *Engine) yieldInfo(product *entity.Product, producedQty decimal.Decimal) ([]YieldEntry, error) {
	effectiveQty := producedQty
	if product.IsDiscrete() && !producedQty.GreaterThan(decimal.Zero) {
		effectiveQty = one
	}
	if !effectiveQty.GreaterThan(decimal.Zero) {
		return nil, nil
	}

	var totalGramos decimal.Decimal
	if product.IsDiscrete() {
		gramosPorUnidad, err := e.ComputeProducedGrams(product.ID)
		if err != nil {
			return nil, err
		}
		totalGramos = gramosPorUnidad.Mul(effectiveQty)
	} else {
		totalGramos = effectiveQty
	}

	usages, err := e.recipeRepo.ListByRaw(product.ID)
	if err != nil {
		return nil, err
	}

	var out []YieldEntry
	for _, usage := range usages {
		parent, err := e.fetchProduct(usage.ProductFinalID)
		if err != nil {
			return nil, err
		}

		var gramosPorSalidaParent decimal.Decimal
		if usage.IsQuantityInGrams {
			gramosPorSalidaParent = usage.Quantity
		} else if product.IsDiscrete() {
			gramosPorUnidad, err := e.ComputeProducedGrams(product.ID)
			if err != nil {
				return nil, err
			}
			gramosPorSalidaParent = usage.Quantity.Mul(gramosPorUnidad)
		} else {
			// "unidad lógica" de un producto por gramos ≈ gramo
			gramosPorSalidaParent = usage.Quantity
		}

		posibles := decimal.Zero
		if gramosPorSalidaParent.GreaterThan(decimal.Zero) && totalGramos.GreaterThan(decimal.Zero) {
			posibles = totalGramos.Div(gramosPorSalidaParent)
		}

		nota := fmt.Sprintf("%s g de %s por 1 %s", gramosPorSalidaParent.Round(4), product.Name, parent.Name)
		if !parent.IsDiscrete() {
			nota = fmt.Sprintf("%s g de %s por unidad/gr de %s", gramosPorSalidaParent.Round(4), product.Name, parent.Name)
		}

		out = append(out, YieldEntry{
			ParentID:               parent.ID,
			ParentName:             parent.Name,
			ParentType:             parent.Type,
			UnitID:                 parent.UnitID,
			Unidad:                 unidadLabel(parent),
			QuantityPerUnitParent:  usage.Quantity,
			IsQuantityInGrams:      usage.IsQuantityInGrams,
			TotalGramosDisponibles: totalGramos,
			UnidadesPosiblesParent: posibles,
			NotaConsumo:            nota,
		})
	}
	return out, nil
}
