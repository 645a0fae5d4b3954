package sale

import (
	"context"

	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/sale/dto"
)

type UseCase interface {
	CreateSale(ctx context.Context, actor *auth.Actor, input *dto.CreateSaleInput) (*model.Sale, error)
	GetSale(ctx context.Context, actor *auth.Actor, id string) (*model.Sale, error)
	ListSales(ctx context.Context, actor *auth.Actor, filters *dto.SaleFilters) ([]model.Sale, int, error)

	GetLineItem(ctx context.Context, actor *auth.Actor, lineID string) (*model.SaleLine, error)
	UpdateLineItem(ctx context.Context, actor *auth.Actor, input *dto.UpdateLineInput) (*model.SaleLine, error)
	DeleteLineItem(ctx context.Context, actor *auth.Actor, lineID string) error
	DeleteSale(ctx context.Context, actor *auth.Actor, saleID string) error
}
