package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockStore struct {
	products map[string]*model.Product
}

func (m *mockStore) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return m.products[id], nil
}

func (m *mockStore) FindByArtisan(ctx context.Context, artisanID string, inStockOnly bool) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		if p.ArtisanID != artisanID {
			continue
		}
		if inStockOnly && p.Stock <= 0 {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type mockMovements struct {
	items []model.StockMovement
}

func (m *mockMovements) ListMovements(ctx context.Context, f *inventory.MovementFilters) ([]model.StockMovement, int, error) {
	return m.items, len(m.items), nil
}

func newMockStore() *mockStore {
	return &mockStore{products: map[string]*model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, ArtisanID: "a1", Price: decimal.New(10, 0), Stock: 3},
		"p2": {BaseModel: model.BaseModel{ID: "p2"}, ArtisanID: "a1", Price: decimal.New(20, 0), Stock: 0},
	}}
}

func TestGetProduct_Scope(t *testing.T) {
	uc := NewCatalogUseCase(newMockStore(), &mockMovements{}, zap.NewNop())
	ctx := context.Background()

	owner := &auth.Actor{Role: auth.RoleArtisan, ArtisanID: "a1"}
	if _, err := uc.GetProduct(ctx, owner, "p1"); err != nil {
		t.Errorf("owner must see the product: %v", err)
	}

	foreign := &auth.Actor{Role: auth.RoleArtisan, ArtisanID: "a2"}
	if _, err := uc.GetProduct(ctx, foreign, "p1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign artisan must get not found, got %v", err)
	}

	admin := &auth.Actor{Role: auth.RoleAdmin}
	if _, err := uc.GetProduct(ctx, admin, "p1"); err != nil {
		t.Errorf("admin must see any product: %v", err)
	}
}

func TestListArtisanProducts_FiltersOutOfStock(t *testing.T) {
	uc := NewCatalogUseCase(newMockStore(), &mockMovements{}, zap.NewNop())

	admin := &auth.Actor{Role: auth.RoleAdmin}
	products, err := uc.ListArtisanProducts(context.Background(), admin, "a1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("expected only the in-stock product, got %+v", products)
	}
}

func TestListMovements_RequiresProductForArtisan(t *testing.T) {
	uc := NewCatalogUseCase(newMockStore(), &mockMovements{}, zap.NewNop())
	ctx := context.Background()

	owner := &auth.Actor{Role: auth.RoleArtisan, ArtisanID: "a1"}
	if _, _, err := uc.ListMovements(ctx, owner, &inventory.MovementFilters{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("artisan without product filter must be rejected, got %v", err)
	}
	if _, _, err := uc.ListMovements(ctx, owner, &inventory.MovementFilters{ProductID: "p1"}); err != nil {
		t.Errorf("owner must list own product movements: %v", err)
	}

	foreign := &auth.Actor{Role: auth.RoleArtisan, ArtisanID: "a2"}
	if _, _, err := uc.ListMovements(ctx, foreign, &inventory.MovementFilters{ProductID: "p1"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign artisan must get not found, got %v", err)
	}
}
