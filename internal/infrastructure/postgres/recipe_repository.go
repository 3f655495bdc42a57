package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/masapan/erp-inventario/internal/domain"
	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

const recipeColumns = `id, product_final_id, product_raw_id, quantity, is_quantity_in_grams, item_type`

// RecipeRepo implementación del puerto RecipeRepository sobre PostgreSQL.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

func collectRecipeLines(rows pgx.Rows) ([]*entity.RecipeLine, error) {
	defer rows.Close()
	var list []*entity.RecipeLine
	for rows.Next() {
		var l entity.RecipeLine
		if err := rows.Scan(&l.ID, &l.ProductFinalID, &l.ProductRawID,
			&l.Quantity, &l.IsQuantityInGrams, &l.ItemType); err != nil {
			return nil, fmt.Errorf("scan recipe line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListByFinal devuelve las líneas que componen un producto final.
func (r *RecipeRepo) ListByFinal(productFinalID string) ([]*entity.RecipeLine, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+recipeColumns+` FROM recipe_lines WHERE product_final_id = $1 ORDER BY id`,
		productFinalID)
	if err != nil {
		return nil, fmt.Errorf("list recipe by final: %w", err)
	}
	return collectRecipeLines(rows)
}

// ListByRaw devuelve las líneas donde el producto es ingrediente (consulta
// inversa de rendimiento).
func (r *RecipeRepo) ListByRaw(productRawID string) ([]*entity.RecipeLine, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+recipeColumns+` FROM recipe_lines WHERE product_raw_id = $1 ORDER BY id`,
		productRawID)
	if err != nil {
		return nil, fmt.Errorf("list recipe by raw: %w", err)
	}
	return collectRecipeLines(rows)
}

// CreateBatch inserta varias líneas de receta de una vez.
func (r *RecipeRepo) CreateBatch(lines []*entity.RecipeLine) error {
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		_, err := r.q.Exec(context.Background(),
			`INSERT INTO recipe_lines (`+recipeColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, l.ProductFinalID, l.ProductRawID, l.Quantity, l.IsQuantityInGrams, l.ItemType)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert recipe line: %w", err)
		}
	}
	return nil
}

// Update actualiza una línea de receta.
func (r *RecipeRepo) Update(line *entity.RecipeLine) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE recipe_lines
		 SET product_raw_id = $2, quantity = $3, is_quantity_in_grams = $4, item_type = $5
		 WHERE id = $1`,
		line.ID, line.ProductRawID, line.Quantity, line.IsQuantityInGrams, line.ItemType)
	if err != nil {
		return fmt.Errorf("update recipe line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina una línea de receta.
func (r *RecipeRepo) Delete(id string) error {
	cmd, err := r.q.Exec(context.Background(),
		`DELETE FROM recipe_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
