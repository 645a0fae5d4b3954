package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the aggregate root. Lines are owned exclusively by the sale;
// deleting the sale cascades to them. Totals are derived on read, never
// stored.
type Sale struct {
	ID           string     `db:"id" json:"id"`
	SaleNumber   string     `db:"sale_number" json:"sale_number"`
	ArtisanID    string     `db:"artisan_id" json:"artisan_id"`
	CustomerName *string    `db:"customer_name" json:"customer_name"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	Lines        []SaleLine `db:"-" json:"lines"`
}

// SaleLine captures the product's price at sale time. UnitPrice is
// frozen at creation and never re-derived from the live product.
type SaleLine struct {
	ID        string          `db:"id" json:"id"`
	SaleID    string          `db:"sale_id" json:"sale_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Position  int             `db:"position" json:"position"`
}

func (l *SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalAmount sums quantity x unit_price over the lines.
func (s *Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Lines {
		total = total.Add(s.Lines[i].Subtotal())
	}
	return total
}

func (s *Sale) LineCount() int {
	return len(s.Lines)
}
