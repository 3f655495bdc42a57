// Package catalog cubre el mantenimiento de productos y recetas. Es CRUD
// delgado: el stock nunca se edita por aquí, solo vía movimientos.
package catalog

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

// ProductUseCase operaciones de catálogo de productos.
type ProductUseCase struct {
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewProductUseCase construye el caso de uso de productos.
func NewProductUseCase(productRepo repository.ProductRepository, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo, log: log}
}

func validProductType(t string) bool {
	switch t {
	case entity.ProductTypeRaw, entity.ProductTypeIntermediate, entity.ProductTypeFinal:
		return true
	}
	return false
}

// Create da de alta un producto con stock cero.
func (uc *ProductUseCase) Create(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	if p.Name == "" || !validProductType(p.Type) {
		return nil, domain.ErrInvalidInput
	}
	if p.StandardWeightGrams.IsNegative() || p.NetWeight.IsNegative() || p.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.Stock = decimal.Zero
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := uc.productRepo.Create(p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("producto creado")
	return p, nil
}

// GetByID devuelve un producto o ErrNotFound.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return uc.productRepo.List(limit, offset)
}

// Update actualiza los datos maestros (el stock no se toca aquí).
func (uc *ProductUseCase) Update(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	if p.ID == "" || p.Name == "" || !validProductType(p.Type) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetByID(p.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	p.Stock = existing.Stock
	if err := uc.productRepo.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete elimina un producto.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.productRepo.Delete(id)
}

// RecipeUseCase mantenimiento del BOM de un producto final.
type RecipeUseCase struct {
	recipeRepo  repository.RecipeRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewRecipeUseCase construye el caso de uso de recetas.
func NewRecipeUseCase(recipeRepo repository.RecipeRepository, productRepo repository.ProductRepository, log *logger.Logger) *RecipeUseCase {
	return &RecipeUseCase{recipeRepo: recipeRepo, productRepo: productRepo, log: log}
}

// Get devuelve la receta de un producto final.
func (uc *RecipeUseCase) Get(ctx context.Context, productFinalID string) ([]*entity.RecipeLine, error) {
	if productFinalID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.recipeRepo.ListByFinal(productFinalID)
}

// Replace sustituye la receta completa del producto final. Antes de
// escribir valida que las líneas sean coherentes y que el grafo resultante
// siga siendo acíclico.
func (uc *RecipeUseCase) Replace(ctx context.Context, productFinalID string, lines []*entity.RecipeLine) ([]*entity.RecipeLine, error) {
	if productFinalID == "" {
		return nil, domain.ErrInvalidInput
	}
	final, err := uc.productRepo.GetByID(productFinalID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return nil, fmt.Errorf("producto %s: %w", productFinalID, domain.ErrNotFound)
	}

	for _, l := range lines {
		if l.ProductRawID == "" || !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if l.ItemType != entity.RecipeItemInsumo && l.ItemType != entity.RecipeItemMaterial {
			return nil, domain.ErrInvalidInput
		}
		raw, err := uc.productRepo.GetByID(l.ProductRawID)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, fmt.Errorf("ingrediente %s: %w", l.ProductRawID, domain.ErrNotFound)
		}
		l.ProductFinalID = productFinalID
	}

	if err := uc.checkAcyclicWith(productFinalID, lines); err != nil {
		return nil, err
	}

	existing, err := uc.recipeRepo.ListByFinal(productFinalID)
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if err := uc.recipeRepo.Delete(l.ID); err != nil {
			return nil, err
		}
	}
	if err := uc.recipeRepo.CreateBatch(lines); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("product_id", productFinalID).
		Int("lines", len(lines)).
		Msg("receta reemplazada")
	return lines, nil
}

// checkAcyclicWith valida el grafo prospectivo: la receta nueva del final
// más lo ya persistido en los demás niveles.
func (uc *RecipeUseCase) checkAcyclicWith(rootID string, newLines []*entity.RecipeLine) error {
	var visit func(id string, onPath map[string]bool) error
	visit = func(id string, onPath map[string]bool) error {
		if onPath[id] {
			return fmt.Errorf("producto %s: %w", id, domain.ErrRecipeCycle)
		}
		onPath[id] = true
		defer delete(onPath, id)

		var lines []*entity.RecipeLine
		if id == rootID {
			lines = newLines
		} else {
			var err error
			lines, err = uc.recipeRepo.ListByFinal(id)
			if err != nil {
				return err
			}
		}
		for _, l := range lines {
			if err := visit(l.ProductRawID, onPath); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(rootID, map[string]bool{})
}
