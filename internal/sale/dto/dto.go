package dto

import (
	"time"

	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

type SaleFilters struct {
	ArtisanID string `form:"artisan_id" json:"artisan_id"`
	DateFrom  string `form:"date_from" json:"date_from"`
	DateTo    string `form:"date_to" json:"date_to"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"page_size" json:"page_size"`
}

type SaleLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID           string             `json:"id"`
	SaleNumber   string             `json:"sale_number"`
	ArtisanID    string             `json:"artisan_id"`
	CustomerName *string            `json:"customer_name"`
	CreatedAt    time.Time          `json:"created_at"`
	Lines        []SaleLineResponse `json:"lines"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	LineCount    int                `json:"line_count"`
}

func MapSale(s *model.Sale) *SaleResponse {
	lines := make([]SaleLineResponse, 0, len(s.Lines))
	for i := range s.Lines {
		l := &s.Lines[i]
		lines = append(lines, SaleLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return &SaleResponse{
		ID:           s.ID,
		SaleNumber:   s.SaleNumber,
		ArtisanID:    s.ArtisanID,
		CustomerName: s.CustomerName,
		CreatedAt:    s.CreatedAt,
		Lines:        lines,
		TotalAmount:  s.TotalAmount(),
		LineCount:    s.LineCount(),
	}
}
