package catalog

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/model"
)

// Store is the autocommit read side of the product catalog. Product
// management itself lives in another service; the sale engine only
// reads products and moves their stock.
type Store interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByArtisan(ctx context.Context, artisanID string, inStockOnly bool) ([]model.Product, error)
}

// TxStore is a catalog view bound to one running transaction. All
// stock mutations go through it so the row stays locked from the stock
// check to the write.
type TxStore interface {
	// GetForUpdate reads the product under an exclusive row lock.
	// Returns nil when the product does not exist.
	GetForUpdate(ctx context.Context, id string) (*model.Product, error)
	SaveStock(ctx context.Context, id string, stock int) error
}
