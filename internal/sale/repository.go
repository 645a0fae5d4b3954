package sale

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/catalog"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/sale/dto"
)

// Repository persists sale aggregates. Execute runs fn inside one
// database transaction: every repository the Tx hands out shares that
// transaction, and it commits or rolls back as a whole.
type Repository interface {
	Execute(ctx context.Context, fn func(tx Tx) error) error

	FindByID(ctx context.Context, id string) (*model.Sale, error)
	FindAll(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	FindLineByID(ctx context.Context, lineID string) (*model.SaleLine, error)
}

// Tx exposes the transaction-scoped stores the orchestrator composes.
type Tx interface {
	Sales() TxRepository
	Catalog() catalog.TxStore
	Movements() inventory.MovementWriter
}

type TxRepository interface {
	// LastSaleNumber returns the highest sale number with the given
	// prefix, or "" when none exists yet.
	LastSaleNumber(ctx context.Context, prefix string) (string, error)

	// InsertSale writes the header and all lines.
	InsertSale(ctx context.Context, s *model.Sale) error

	GetSale(ctx context.Context, id string) (*model.Sale, error)
	GetLineForUpdate(ctx context.Context, lineID string) (*model.SaleLine, error)
	UpdateLine(ctx context.Context, l *model.SaleLine) error
	DeleteLine(ctx context.Context, lineID string) error

	// DeleteSale removes the header; lines go with it via cascade.
	DeleteSale(ctx context.Context, id string) error
}
