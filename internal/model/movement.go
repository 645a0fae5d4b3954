package model

import "time"

const (
	MovementReserve = "reserve"
	MovementRelease = "release"
)

// StockMovement is the audit record written alongside every stock
// mutation, in the same transaction as the mutation itself.
type StockMovement struct {
	ID            string    `db:"id" json:"id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	MovementType  string    `db:"movement_type" json:"movement_type"`
	QuantityDelta int       `db:"quantity_delta" json:"quantity_delta"`
	StockBefore   int       `db:"stock_before" json:"stock_before"`
	StockAfter    int       `db:"stock_after" json:"stock_after"`
	ReferenceType *string   `db:"reference_type" json:"reference_type"` // 'sale', 'sale_line'
	ReferenceID   *string   `db:"reference_id" json:"reference_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
