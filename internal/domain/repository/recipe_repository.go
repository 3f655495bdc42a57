package repository

import "github.com/masapan/erp-inventario/internal/domain/entity"

// RecipeRepository define el puerto de lectura/escritura del BOM.
// El motor de costeo solo usa las consultas; el CRUD lo usa el editor de
// recetas.
type RecipeRepository interface {
	// ListByFinal devuelve las líneas que componen un producto final,
	// ordenadas por id ascendente.
	ListByFinal(productFinalID string) ([]*entity.RecipeLine, error)
	// ListByRaw devuelve las líneas donde el producto aparece como
	// ingrediente (consulta inversa de rendimiento).
	ListByRaw(productRawID string) ([]*entity.RecipeLine, error)
	CreateBatch(lines []*entity.RecipeLine) error
	Update(line *entity.RecipeLine) error
	Delete(id string) error
}
