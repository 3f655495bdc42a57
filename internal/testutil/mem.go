// Package testutil provee un almacén en memoria que implementa los puertos
// de repositorio para pruebas de casos de uso, sin base de datos real.
// El TxRunner simula atomicidad por snapshot: copia el estado antes de la
// función y lo restaura si devuelve error.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

// MemStore es el estado compartido de todos los repositorios falsos.
type MemStore struct {
	mu         sync.Mutex
	Products   map[string]*entity.Product
	Movements  []*entity.InventoryMovement
	Recipes    []*entity.RecipeLine
	Orders     map[string]*entity.Order
	OrderItems map[string]*entity.OrderItem
	Incomes    []*entity.Income
	Expenses   []*entity.Expense
	seq        int
}

// NewMemStore crea un almacén vacío.
func NewMemStore() *MemStore {
	return &MemStore{
		Products:   map[string]*entity.Product{},
		Orders:     map[string]*entity.Order{},
		OrderItems: map[string]*entity.OrderItem{},
	}
}

// NextID genera ids deterministas para los registros creados en pruebas.
func (s *MemStore) NextID() string {
	s.seq++
	return fmt.Sprintf("mem-%04d", s.seq)
}

// AddProduct registra un producto y devuelve su puntero.
func (s *MemStore) AddProduct(p *entity.Product) *entity.Product {
	if p.ID == "" {
		p.ID = s.NextID()
	}
	s.Products[p.ID] = p
	return p
}

// AddRecipeLine registra una línea de receta.
func (s *MemStore) AddRecipeLine(l *entity.RecipeLine) *entity.RecipeLine {
	if l.ID == "" {
		l.ID = s.NextID()
	}
	s.Recipes = append(s.Recipes, l)
	return l
}

// AddOrder registra un pedido.
func (s *MemStore) AddOrder(o *entity.Order) *entity.Order {
	if o.ID == "" {
		o.ID = s.NextID()
	}
	s.Orders[o.ID] = o
	return o
}

// AddOrderItem registra un ítem de pedido.
func (s *MemStore) AddOrderItem(i *entity.OrderItem) *entity.OrderItem {
	if i.ID == "" {
		i.ID = s.NextID()
	}
	s.OrderItems[i.ID] = i
	return i
}

// Stock devuelve el stock actual de un producto (cero si no existe).
func (s *MemStore) Stock(productID string) decimal.Decimal {
	if p, ok := s.Products[productID]; ok {
		return p.Stock
	}
	return decimal.Zero
}

// ─── snapshot / restore ────────────────────────────────────────────────────

type snapshot struct {
	products   map[string]*entity.Product
	movements  []*entity.InventoryMovement
	orders     map[string]*entity.Order
	orderItems map[string]*entity.OrderItem
	incomes    []*entity.Income
	expenses   []*entity.Expense
}

func (s *MemStore) snapshot() snapshot {
	snap := snapshot{
		products:   make(map[string]*entity.Product, len(s.Products)),
		orders:     make(map[string]*entity.Order, len(s.Orders)),
		orderItems: make(map[string]*entity.OrderItem, len(s.OrderItems)),
	}
	for id, p := range s.Products {
		cp := *p
		snap.products[id] = &cp
	}
	for id, o := range s.Orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for id, i := range s.OrderItems {
		cp := *i
		if i.PaidAt != nil {
			t := *i.PaidAt
			cp.PaidAt = &t
		}
		if i.DeliveredAt != nil {
			t := *i.DeliveredAt
			cp.DeliveredAt = &t
		}
		snap.orderItems[id] = &cp
	}
	snap.movements = append(snap.movements, s.Movements...)
	snap.incomes = append(snap.incomes, s.Incomes...)
	snap.expenses = append(snap.expenses, s.Expenses...)
	return snap
}

func (s *MemStore) restore(snap snapshot) {
	s.Products = snap.products
	s.Orders = snap.orders
	s.OrderItems = snap.orderItems
	s.Movements = snap.movements
	s.Incomes = snap.incomes
	s.Expenses = snap.expenses
}

// TxRunner implementa los runners de transacción por snapshot/restore.
type TxRunner struct {
	Store *MemStore
	// FailAfterMovements aborta la tx con este error cuando el ledger
	// alcanza N movimientos, para probar atomicidad.
	FailAfterMovements int
	FailErr            error
}

// Run ejecuta fn con repositorios atados al almacén; si fn devuelve error el
// estado vuelve al snapshot previo.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	financeRepo repository.FinanceRepository,
) error) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	snap := r.Store.snapshot()
	err := fn(&MovementRepo{s: r.Store, failAfter: r.FailAfterMovements, failErr: r.FailErr},
		&ProductRepo{s: r.Store}, &FinanceRepo{s: r.Store})
	if err != nil {
		r.Store.restore(snap)
		return err
	}
	return nil
}

// RunFinance es la variante amplia usada por la sincronización financiera.
func (r *TxRunner) RunFinance(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	financeRepo repository.FinanceRepository,
) error) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	snap := r.Store.snapshot()
	err := fn(&MovementRepo{s: r.Store, failAfter: r.FailAfterMovements, failErr: r.FailErr},
		&ProductRepo{s: r.Store}, &OrderRepo{s: r.Store}, &FinanceRepo{s: r.Store})
	if err != nil {
		r.Store.restore(snap)
		return err
	}
	return nil
}

// ─── ProductRepo ───────────────────────────────────────────────────────────

// ProductRepo implementa repository.ProductRepository sobre MemStore.
type ProductRepo struct{ s *MemStore }

// NewProductRepo construye el repositorio falso de productos.
func NewProductRepo(s *MemStore) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(p *entity.Product) error {
	if p.ID == "" {
		p.ID = r.s.NextID()
	}
	if _, ok := r.s.Products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.Products[p.ID] = p
	return nil
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.s.Products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) GetByIDs(ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := r.s.Products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetForUpdate no bloquea nada en memoria: el TxRunner serializa con su
// mutex, que para pruebas es equivalente.
func (r *ProductRepo) GetForUpdate(id string) (*entity.Product, error) {
	return r.GetByID(id)
}

func (r *ProductRepo) Update(p *entity.Product) error {
	if _, ok := r.s.Products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.s.Products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) UpdateStock(productID string, stock decimal.Decimal) error {
	p, ok := r.s.Products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	return nil
}

func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	ids := make([]string, 0, len(r.s.Products))
	for id := range r.s.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*entity.Product
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *r.s.Products[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ProductRepo) Delete(id string) error {
	if _, ok := r.s.Products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.Products, id)
	return nil
}

// ─── MovementRepo ──────────────────────────────────────────────────────────

// MovementRepo implementa repository.InventoryMovementRepository sobre
// MemStore.
type MovementRepo struct {
	s         *MemStore
	failAfter int
	failErr   error
}

// NewMovementRepo construye el repositorio falso de movimientos.
func NewMovementRepo(s *MemStore) *MovementRepo { return &MovementRepo{s: s} }

func (r *MovementRepo) Create(m *entity.InventoryMovement) error {
	if r.failAfter > 0 && len(r.s.Movements) >= r.failAfter {
		if r.failErr != nil {
			return r.failErr
		}
		return fmt.Errorf("fallo inyectado en el ledger")
	}
	if m.ID == "" {
		m.ID = r.s.NextID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Date.IsZero() {
		m.Date = m.CreatedAt
	}
	cp := *m
	r.s.Movements = append(r.s.Movements, &cp)
	return nil
}

func (r *MovementRepo) GetByID(id string) (*entity.InventoryMovement, error) {
	for _, m := range r.s.Movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	skipped := 0
	for i := len(r.s.Movements) - 1; i >= 0; i-- { // más reciente primero
		m := r.s.Movements[i]
		if m.ProductID != productID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MovementRepo) ListAll(from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	skipped := 0
	for i := len(r.s.Movements) - 1; i >= 0; i-- {
		m := r.s.Movements[i]
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MovementRepo) SummaryByReason(from, to time.Time, productID string) ([]repository.ReasonTotal, error) {
	totals := map[entity.MovementReason]decimal.Decimal{}
	for _, m := range r.s.Movements {
		if m.Date.Before(from) || m.Date.After(to) {
			continue
		}
		if productID != "" && m.ProductID != productID {
			continue
		}
		totals[m.Reason] = totals[m.Reason].Add(m.Quantity)
	}
	var out []repository.ReasonTotal
	for reason, total := range totals {
		out = append(out, repository.ReasonTotal{Reason: reason, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out, nil
}

func (r *MovementRepo) SummaryByProductAndReason(from, to time.Time, productID string) ([]repository.ProductReasonTotal, error) {
	type key struct {
		product string
		reason  entity.MovementReason
	}
	totals := map[key]decimal.Decimal{}
	for _, m := range r.s.Movements {
		if m.Date.Before(from) || m.Date.After(to) {
			continue
		}
		if productID != "" && m.ProductID != productID {
			continue
		}
		k := key{product: m.ProductID, reason: m.Reason}
		totals[k] = totals[k].Add(m.Quantity)
	}
	var out []repository.ProductReasonTotal
	for k, total := range totals {
		out = append(out, repository.ProductReasonTotal{ProductID: k.product, Reason: k.reason, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Reason < out[j].Reason
	})
	return out, nil
}

// ─── RecipeRepo ────────────────────────────────────────────────────────────

// RecipeRepo implementa repository.RecipeRepository sobre MemStore.
type RecipeRepo struct{ s *MemStore }

// NewRecipeRepo construye el repositorio falso de recetas.
func NewRecipeRepo(s *MemStore) *RecipeRepo { return &RecipeRepo{s: s} }

func (r *RecipeRepo) ListByFinal(productFinalID string) ([]*entity.RecipeLine, error) {
	var out []*entity.RecipeLine
	for _, l := range r.s.Recipes {
		if l.ProductFinalID == productFinalID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *RecipeRepo) ListByRaw(productRawID string) ([]*entity.RecipeLine, error) {
	var out []*entity.RecipeLine
	for _, l := range r.s.Recipes {
		if l.ProductRawID == productRawID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *RecipeRepo) CreateBatch(lines []*entity.RecipeLine) error {
	for _, l := range lines {
		if l.ID == "" {
			l.ID = r.s.NextID()
		}
		cp := *l
		r.s.Recipes = append(r.s.Recipes, &cp)
	}
	return nil
}

func (r *RecipeRepo) Update(line *entity.RecipeLine) error {
	for i, l := range r.s.Recipes {
		if l.ID == line.ID {
			cp := *line
			r.s.Recipes[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *RecipeRepo) Delete(id string) error {
	for i, l := range r.s.Recipes {
		if l.ID == id {
			r.s.Recipes = append(r.s.Recipes[:i], r.s.Recipes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ─── OrderRepo ─────────────────────────────────────────────────────────────

// OrderRepo implementa repository.OrderRepository sobre MemStore.
type OrderRepo struct{ s *MemStore }

// NewOrderRepo construye el repositorio falso de pedidos.
func NewOrderRepo(s *MemStore) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) GetItemByID(itemID string) (*entity.OrderItem, error) {
	i, ok := r.s.OrderItems[itemID]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *OrderRepo) GetItemForUpdate(itemID string) (*entity.OrderItem, error) {
	return r.GetItemByID(itemID)
}

func (r *OrderRepo) UpdateItem(item *entity.OrderItem) error {
	if _, ok := r.s.OrderItems[item.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *item
	r.s.OrderItems[item.ID] = &cp
	return nil
}

func (r *OrderRepo) ListItemsByOrder(orderID string) ([]*entity.OrderItem, error) {
	ids := make([]string, 0, len(r.s.OrderItems))
	for id, i := range r.s.OrderItems {
		if i.OrderID == orderID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	var out []*entity.OrderItem
	for _, id := range ids {
		cp := *r.s.OrderItems[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *OrderRepo) GetOrder(orderID string) (*entity.Order, error) {
	o, ok := r.s.Orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *OrderRepo) UpdateOrderStatus(orderID, status string) error {
	o, ok := r.s.Orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

// ─── FinanceRepo ───────────────────────────────────────────────────────────

// FinanceRepo implementa repository.FinanceRepository sobre MemStore.
type FinanceRepo struct{ s *MemStore }

// NewFinanceRepo construye el repositorio falso de finanzas.
func NewFinanceRepo(s *MemStore) *FinanceRepo { return &FinanceRepo{s: s} }

func (r *FinanceRepo) GetIncomeByReference(referenceType, referenceID string) (*entity.Income, error) {
	for _, inc := range r.s.Incomes {
		if inc.ReferenceType == referenceType && inc.ReferenceID == referenceID {
			cp := *inc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FinanceRepo) CreateIncome(income *entity.Income) error {
	if income.ID == "" {
		income.ID = r.s.NextID()
	}
	cp := *income
	r.s.Incomes = append(r.s.Incomes, &cp)
	return nil
}

func (r *FinanceRepo) UpdateIncome(income *entity.Income) error {
	for i, inc := range r.s.Incomes {
		if inc.ID == income.ID {
			cp := *income
			r.s.Incomes[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *FinanceRepo) DeleteIncome(id string) error {
	for i, inc := range r.s.Incomes {
		if inc.ID == id {
			r.s.Incomes = append(r.s.Incomes[:i], r.s.Incomes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *FinanceRepo) CreateExpense(expense *entity.Expense) error {
	if expense.ID == "" {
		expense.ID = r.s.NextID()
	}
	cp := *expense
	r.s.Expenses = append(r.s.Expenses, &cp)
	return nil
}
