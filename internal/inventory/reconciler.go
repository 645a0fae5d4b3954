package inventory

import (
	"context"
	"time"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/google/uuid"
)

// TxStore is the transaction-bound catalog view the reconciler needs:
// a locked read and the stock write-back. The catalog package's TxStore
// satisfies it structurally.
type TxStore interface {
	GetForUpdate(ctx context.Context, id string) (*model.Product, error)
	SaveStock(ctx context.Context, id string, stock int) error
}

// Ref ties a stock movement back to the sale or line that caused it.
type Ref struct {
	Type string
	ID   string
}

// Reconciler keeps product stock consistent with the sale lines that
// reference it. It is bound to one running transaction: every check
// reads the product row under an exclusive lock, so two concurrent
// sales against the same product serialize and the later one sees the
// already-decremented stock.
type Reconciler struct {
	store     TxStore
	movements MovementWriter
}

func NewReconciler(store TxStore, movements MovementWriter) *Reconciler {
	return &Reconciler{store: store, movements: movements}
}

// Reserve decrements stock by quantity, failing with InsufficientStock
// when the locked row holds less than quantity.
func (r *Reconciler) Reserve(ctx context.Context, productID string, quantity int, ref Ref) (*model.Product, error) {
	product, err := r.store.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.NotFound("product", productID)
	}
	if product.Stock < quantity {
		return nil, apperr.InsufficientStock(productID, quantity, product.Stock)
	}

	before := product.Stock
	product.Stock -= quantity
	if err := r.store.SaveStock(ctx, productID, product.Stock); err != nil {
		return nil, err
	}

	if err := r.log(ctx, productID, model.MovementReserve, -quantity, before, product.Stock, ref); err != nil {
		return nil, err
	}
	return product, nil
}

// Release increments stock by quantity. It has no upper bound: a
// released quantity simply restores availability.
func (r *Reconciler) Release(ctx context.Context, productID string, quantity int, ref Ref) error {
	product, err := r.store.GetForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return apperr.NotFound("product", productID)
	}

	before := product.Stock
	product.Stock += quantity
	if err := r.store.SaveStock(ctx, productID, product.Stock); err != nil {
		return err
	}
	return r.log(ctx, productID, model.MovementRelease, quantity, before, product.Stock, ref)
}

// Adjust moves a reservation from (oldProduct, oldQty) to (newProduct,
// newQty) as one logical step and returns the newly reserved product.
// It runs inside the caller's transaction, so a failed reserve rolls
// the release back with everything else. A no-op adjust returns nil.
func (r *Reconciler) Adjust(ctx context.Context, oldProductID string, oldQty int, newProductID string, newQty int, ref Ref) (*model.Product, error) {
	if oldProductID == newProductID && oldQty == newQty {
		return nil, nil
	}
	if err := r.Release(ctx, oldProductID, oldQty, ref); err != nil {
		return nil, err
	}
	return r.Reserve(ctx, newProductID, newQty, ref)
}

func (r *Reconciler) log(ctx context.Context, productID, movementType string, delta, before, after int, ref Ref) error {
	var refType, refID *string
	if ref.Type != "" {
		refType = &ref.Type
		refID = &ref.ID
	}
	return r.movements.Log(ctx, &model.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     productID,
		MovementType:  movementType,
		QuantityDelta: delta,
		StockBefore:   before,
		StockAfter:    after,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedAt:     time.Now(),
	})
}
