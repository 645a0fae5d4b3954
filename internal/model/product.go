package model

import "github.com/shopspring/decimal"

// Product is owned by the catalog; the sale engine reads it and mutates
// Stock exclusively through the inventory reconciler.
type Product struct {
	BaseModel
	ArtisanID   string          `db:"artisan_id" json:"artisan_id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"is_active"`
}
