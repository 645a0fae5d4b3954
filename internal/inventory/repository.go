package inventory

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/model"
)

type MovementFilters struct {
	ProductID    string
	MovementType string
	Page         int
	PageSize     int
}

// Repository is the autocommit read side of the stock movement audit.
type Repository interface {
	ListMovements(ctx context.Context, filters *MovementFilters) ([]model.StockMovement, int, error)
}

// MovementWriter appends audit records inside the transaction that
// performed the stock mutation.
type MovementWriter interface {
	Log(ctx context.Context, m *model.StockMovement) error
}
