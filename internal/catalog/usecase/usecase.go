package usecase

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/catalog"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	store     catalog.Store
	movements inventory.Repository
	logger    *zap.Logger
}

func NewCatalogUseCase(store catalog.Store, movements inventory.Repository, log *zap.Logger) catalog.UseCase {
	return &catalogUseCase{
		store:     store,
		movements: movements,
		logger:    log,
	}
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, actor *auth.Actor, id string) (*model.Product, error) {
	product, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !uc.inScope(actor, product.ArtisanID) {
		return nil, apperr.NotFound("product", id)
	}
	return product, nil
}

// ListArtisanProducts returns the artisan's in-stock products, the set
// the sale form offers.
func (uc *catalogUseCase) ListArtisanProducts(ctx context.Context, actor *auth.Actor, artisanID string) ([]model.Product, error) {
	if !uc.inScope(actor, artisanID) {
		return nil, apperr.NotFound("artisan", artisanID)
	}
	return uc.store.FindByArtisan(ctx, artisanID, true)
}

func (uc *catalogUseCase) ListMovements(ctx context.Context, actor *auth.Actor, filters *inventory.MovementFilters) ([]model.StockMovement, int, error) {
	if filters.ProductID != "" {
		product, err := uc.store.FindByID(ctx, filters.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if product == nil || !uc.inScope(actor, product.ArtisanID) {
			return nil, 0, apperr.NotFound("product", filters.ProductID)
		}
	} else if !actor.IsAdmin() {
		return nil, 0, apperr.Validation("product_id", "product_id is required")
	}
	return uc.movements.ListMovements(ctx, filters)
}

func (uc *catalogUseCase) inScope(actor *auth.Actor, artisanID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == auth.RoleArtisan && actor.ArtisanID == artisanID
}
