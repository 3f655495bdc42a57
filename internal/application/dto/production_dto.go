package dto

import "github.com/shopspring/decimal"

// ProductionIntermediateRequest body para POST /api/production/intermediate:
// el operador ya resolvió las cantidades reales.
type ProductionIntermediateRequest struct {
	Intermedio struct {
		ID     string          `json:"id"`
		Gramos decimal.Decimal `json:"gramos"`
	} `json:"intermedio"`
	Productos []struct {
		ID                        string          `json:"id"`
		Cantidad                  decimal.Decimal `json:"cantidad"`
		GramosPorUnidadIntermedio decimal.Decimal `json:"gramosPorUnidadIntermedio"`
	} `json:"productos"`
	Insumos []struct {
		ID       string           `json:"id"`
		Gramos   *decimal.Decimal `json:"gramos,omitempty"`
		Unidades *decimal.Decimal `json:"unidades,omitempty"`
	} `json:"insumos"`
}

// SimulatedNodeDTO nodo del árbol de simulación del planificador.
type SimulatedNodeDTO struct {
	ID               string             `json:"id"`
	Producto         string             `json:"producto"`
	CantidadGramos   *decimal.Decimal   `json:"cantidadGramos,omitempty"`
	CantidadUnidades *decimal.Decimal   `json:"cantidadUnidades,omitempty"`
	EsIntermedio     bool               `json:"esIntermedio,omitempty"`
	Sobrante         *decimal.Decimal   `json:"sobrante,omitempty"`
	CantidadDeseada  decimal.Decimal    `json:"cantidadDeseada,omitempty"`
	Requiere         []SimulatedNodeDTO `json:"requiere,omitempty"`
}

// ProductionFinalRequest body para POST /api/production/final.
type ProductionFinalRequest struct {
	ProductID string           `json:"productId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Simulated SimulatedNodeDTO `json:"simulated"`
}
