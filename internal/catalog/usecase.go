package catalog

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
)

// UseCase is the read surface backing the sale form: an artisan's
// sellable products and the movement history behind a product's stock.
type UseCase interface {
	GetProduct(ctx context.Context, actor *auth.Actor, id string) (*model.Product, error)
	ListArtisanProducts(ctx context.Context, actor *auth.Actor, artisanID string) ([]model.Product, error)
	ListMovements(ctx context.Context, actor *auth.Actor, filters *inventory.MovementFilters) ([]model.StockMovement, int, error)
}
