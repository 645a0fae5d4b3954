package dto

type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateSaleInput struct {
	ArtisanID    string        `json:"artisan_id"`
	CustomerName string        `json:"customer_name"`
	Lines        []LineRequest `json:"lines"`
}

// UpdateLineInput carries optional new values; nil means unchanged.
type UpdateLineInput struct {
	LineID       string
	NewQuantity  *int    `json:"quantity"`
	NewProductID *string `json:"product_id"`
}
