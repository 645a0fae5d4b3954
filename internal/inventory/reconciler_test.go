package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

type mockTxStore struct {
	products map[string]*model.Product
}

func newMockTxStore(stock map[string]int) *mockTxStore {
	products := make(map[string]*model.Product)
	for id, s := range stock {
		products[id] = &model.Product{
			BaseModel: model.BaseModel{ID: id},
			Price:     decimal.NewFromInt(10),
			Stock:     s,
		}
	}
	return &mockTxStore{products: products}
}

func (m *mockTxStore) GetForUpdate(ctx context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockTxStore) SaveStock(ctx context.Context, id string, stock int) error {
	p, ok := m.products[id]
	if !ok {
		return apperr.NotFound("product", id)
	}
	p.Stock = stock
	return nil
}

type mockMovementWriter struct {
	logged []model.StockMovement
}

func (m *mockMovementWriter) Log(ctx context.Context, mv *model.StockMovement) error {
	m.logged = append(m.logged, *mv)
	return nil
}

func TestReserve_DecrementsStock(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 10})
	movements := &mockMovementWriter{}
	rec := NewReconciler(store, movements)

	ctx := context.Background()
	for _, qty := range []int{3, 2, 4} {
		if _, err := rec.Reserve(ctx, "p1", qty, Ref{Type: "sale", ID: "s1"}); err != nil {
			t.Fatalf("reserve %d failed: %v", qty, err)
		}
	}

	if store.products["p1"].Stock != 1 {
		t.Errorf("expected stock 1, got %d", store.products["p1"].Stock)
	}
	if len(movements.logged) != 3 {
		t.Errorf("expected 3 movements, got %d", len(movements.logged))
	}
	last := movements.logged[2]
	if last.MovementType != model.MovementReserve || last.StockBefore != 5 || last.StockAfter != 1 {
		t.Errorf("unexpected movement record: %+v", last)
	}
}

func TestReserve_InsufficientStock(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 2})
	rec := NewReconciler(store, &mockMovementWriter{})

	_, err := rec.Reserve(context.Background(), "p1", 3, Ref{})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stockErr *apperr.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatal("expected InsufficientStockError")
	}
	if stockErr.ProductID != "p1" || stockErr.Requested != 3 || stockErr.Available != 2 {
		t.Errorf("unexpected error payload: %+v", stockErr)
	}
	if store.products["p1"].Stock != 2 {
		t.Errorf("stock must be untouched, got %d", store.products["p1"].Stock)
	}
}

func TestReserve_ExactStockSucceeds(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 3})
	rec := NewReconciler(store, &mockMovementWriter{})

	if _, err := rec.Reserve(context.Background(), "p1", 3, Ref{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if store.products["p1"].Stock != 0 {
		t.Errorf("expected stock 0, got %d", store.products["p1"].Stock)
	}
}

func TestReserve_UnknownProduct(t *testing.T) {
	rec := NewReconciler(newMockTxStore(nil), &mockMovementWriter{})

	_, err := rec.Reserve(context.Background(), "missing", 1, Ref{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRelease_IncrementsStock(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 2})
	movements := &mockMovementWriter{}
	rec := NewReconciler(store, movements)

	if err := rec.Release(context.Background(), "p1", 5, Ref{Type: "sale_line", ID: "l1"}); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if store.products["p1"].Stock != 7 {
		t.Errorf("expected stock 7, got %d", store.products["p1"].Stock)
	}
	if movements.logged[0].MovementType != model.MovementRelease {
		t.Errorf("expected release movement, got %s", movements.logged[0].MovementType)
	}
}

func TestAdjust_NoopWhenUnchanged(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 8})
	movements := &mockMovementWriter{}
	rec := NewReconciler(store, movements)

	product, err := rec.Adjust(context.Background(), "p1", 2, "p1", 2, Ref{})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if product != nil {
		t.Error("no-op adjust must not return a product")
	}
	if store.products["p1"].Stock != 8 {
		t.Errorf("stock must be unchanged, got %d", store.products["p1"].Stock)
	}
	if len(movements.logged) != 0 {
		t.Errorf("no movements expected, got %d", len(movements.logged))
	}
}

func TestAdjust_QuantityChange(t *testing.T) {
	// Original reservation of 2 from 10 left stock at 8. Raising the
	// line to 5 releases 2 then reserves 5.
	store := newMockTxStore(map[string]int{"p1": 8})
	rec := NewReconciler(store, &mockMovementWriter{})

	if _, err := rec.Adjust(context.Background(), "p1", 2, "p1", 5, Ref{}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if store.products["p1"].Stock != 5 {
		t.Errorf("expected stock 5, got %d", store.products["p1"].Stock)
	}
}

func TestAdjust_ProductChange(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 3, "p2": 10})
	rec := NewReconciler(store, &mockMovementWriter{})

	product, err := rec.Adjust(context.Background(), "p1", 4, "p2", 6, Ref{})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if product == nil || product.ID != "p2" {
		t.Fatal("expected the newly reserved product back")
	}
	if store.products["p1"].Stock != 7 {
		t.Errorf("expected old product stock 7, got %d", store.products["p1"].Stock)
	}
	if store.products["p2"].Stock != 4 {
		t.Errorf("expected new product stock 4, got %d", store.products["p2"].Stock)
	}
}

func TestAdjust_FailedReserveSurfaces(t *testing.T) {
	store := newMockTxStore(map[string]int{"p1": 8})
	rec := NewReconciler(store, &mockMovementWriter{})

	_, err := rec.Adjust(context.Background(), "p1", 2, "p1", 100, Ref{})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	// The enclosing transaction rolls the partial release back; the
	// reconciler only has to report the failure.
}
