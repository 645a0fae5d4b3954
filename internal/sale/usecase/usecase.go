package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/catalog"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/pkg/broker"
	"github.com/atelier/atelier-sales-service/internal/pkg/cache"
	"github.com/atelier/atelier-sales-service/internal/pkg/metrics"
	"github.com/atelier/atelier-sales-service/internal/pkg/search"
	"github.com/atelier/atelier-sales-service/internal/sale"
	"github.com/atelier/atelier-sales-service/internal/sale/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTxAttempts bounds the transparent retry on concurrency conflicts.
// Validation, not-found, and stock failures are never retried.
const maxTxAttempts = 3

const salesIndex = "sales"

type saleUseCase struct {
	repo     sale.Repository
	products catalog.Store
	cache    *cache.RedisClient
	producer *broker.Producer
	es       *search.Client
	logger   *zap.Logger
}

func NewSaleUseCase(repo sale.Repository, products catalog.Store, cache *cache.RedisClient, producer *broker.Producer, es *search.Client, log *zap.Logger) sale.UseCase {
	return &saleUseCase{
		repo:     repo,
		products: products,
		cache:    cache,
		producer: producer,
		es:       es,
		logger:   log,
	}
}

func (uc *saleUseCase) CreateSale(ctx context.Context, actor *auth.Actor, input *dto.CreateSaleInput) (*model.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("lines", "at least one line is required")
	}
	for i, l := range input.Lines {
		if l.ProductID == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].product_id", i), "product_id is required")
		}
		if l.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].quantity", i), "quantity must be greater than zero")
		}
	}

	artisanID := input.ArtisanID
	if actor.Role == auth.RoleArtisan {
		// Artisans sell on their own behalf only.
		artisanID = actor.ArtisanID
	}

	// Pre-flight existence and scope check. Stock is re-checked under
	// lock inside the transaction; this pass is about failing fast with
	// the right error class.
	for i, l := range input.Lines {
		product, err := uc.products.FindByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !uc.inScope(actor, product.ArtisanID) {
			metrics.SaleFailures.WithLabelValues("not_found").Inc()
			return nil, apperr.NotFound("product", l.ProductID)
		}
		if artisanID == "" {
			// Admin did not name a seller: the product's owner is the
			// seller of record, matching the back-office flow.
			artisanID = product.ArtisanID
		}
		if product.ArtisanID != artisanID {
			// A sale has exactly one seller. Lines cannot mix products
			// from different artisans.
			metrics.SaleFailures.WithLabelValues("validation").Inc()
			return nil, apperr.Validation(
				fmt.Sprintf("lines[%d].product_id", i),
				"product belongs to a different artisan than the sale's seller")
		}
	}

	var created *model.Sale
	err := uc.withRetry(ctx, func() error {
		return uc.repo.Execute(ctx, func(tx sale.Tx) error {
			rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
			now := time.Now()

			prefix := sale.SaleNumberPrefix(now)
			last, err := tx.Sales().LastSaleNumber(ctx, prefix)
			if err != nil {
				return err
			}

			s := &model.Sale{
				ID:         uuid.New().String(),
				SaleNumber: sale.NextSaleNumber(prefix, last),
				ArtisanID:  artisanID,
				CreatedAt:  now,
			}
			if input.CustomerName != "" {
				name := input.CustomerName
				s.CustomerName = &name
			}

			ref := inventory.Ref{Type: "sale", ID: s.ID}
			for i, l := range input.Lines {
				product, err := rec.Reserve(ctx, l.ProductID, l.Quantity, ref)
				if err != nil {
					return err
				}
				s.Lines = append(s.Lines, model.SaleLine{
					ID:        uuid.New().String(),
					SaleID:    s.ID,
					ProductID: l.ProductID,
					Quantity:  l.Quantity,
					UnitPrice: product.Price,
					Position:  i,
				})
			}

			if err := tx.Sales().InsertSale(ctx, s); err != nil {
				return err
			}
			created = s
			return nil
		})
	})
	if err != nil {
		uc.countFailure(err)
		return nil, err
	}

	metrics.SalesCreated.Inc()
	uc.logger.Info("sale created",
		zap.String("sale_id", created.ID),
		zap.String("sale_number", created.SaleNumber),
		zap.Int("lines", created.LineCount()),
	)

	uc.invalidateSaleCache(context.Background())
	go uc.publishEvent(context.Background(), "SaleCreated", created)
	go uc.indexSale(context.Background(), created)

	return created, nil
}

func (uc *saleUseCase) GetSale(ctx context.Context, actor *auth.Actor, id string) (*model.Sale, error) {
	cacheKey := "sale:" + id
	if uc.cache != nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var s model.Sale
			if err := json.Unmarshal([]byte(val), &s); err == nil {
				if !uc.inScope(actor, s.ArtisanID) {
					return nil, apperr.NotFound("sale", id)
				}
				return &s, nil
			}
		}
	}

	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || !uc.inScope(actor, s.ArtisanID) {
		return nil, apperr.NotFound("sale", id)
	}

	if uc.cache != nil {
		if data, err := json.Marshal(s); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}
	return s, nil
}

func (uc *saleUseCase) ListSales(ctx context.Context, actor *auth.Actor, filters *dto.SaleFilters) ([]model.Sale, int, error) {
	if actor.Role == auth.RoleArtisan {
		// Artisans only ever see their own sales.
		filters.ArtisanID = actor.ArtisanID
	}

	cacheKey, keyErr := uc.listCacheKey(filters)
	if uc.cache != nil && keyErr == nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var result struct {
				Sales []model.Sale
				Count int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Sales, result.Count, nil
			}
		}
	}

	sales, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && keyErr == nil {
		payload := struct {
			Sales []model.Sale
			Count int
		}{sales, count}
		if data, err := json.Marshal(payload); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, data, time.Minute)
		}
	}
	return sales, count, nil
}

func (uc *saleUseCase) GetLineItem(ctx context.Context, actor *auth.Actor, lineID string) (*model.SaleLine, error) {
	line, err := uc.repo.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, apperr.NotFound("sale line", lineID)
	}

	owner, err := uc.repo.FindByID(ctx, line.SaleID)
	if err != nil {
		return nil, err
	}
	if owner == nil || !uc.inScope(actor, owner.ArtisanID) {
		return nil, apperr.NotFound("sale line", lineID)
	}
	return line, nil
}

func (uc *saleUseCase) UpdateLineItem(ctx context.Context, actor *auth.Actor, input *dto.UpdateLineInput) (*model.SaleLine, error) {
	if input.NewQuantity == nil && input.NewProductID == nil {
		return nil, apperr.Validation("line", "nothing to update")
	}
	if input.NewQuantity != nil && *input.NewQuantity <= 0 {
		return nil, apperr.Validation("quantity", "quantity must be greater than zero")
	}
	if input.NewProductID != nil && *input.NewProductID == "" {
		return nil, apperr.Validation("product_id", "product_id must not be empty")
	}

	var updated *model.SaleLine
	err := uc.withRetry(ctx, func() error {
		return uc.repo.Execute(ctx, func(tx sale.Tx) error {
			line, err := tx.Sales().GetLineForUpdate(ctx, input.LineID)
			if err != nil {
				return err
			}
			if line == nil {
				return apperr.NotFound("sale line", input.LineID)
			}

			owner, err := tx.Sales().GetSale(ctx, line.SaleID)
			if err != nil {
				return err
			}
			if owner == nil || !uc.inScope(actor, owner.ArtisanID) {
				return apperr.NotFound("sale line", input.LineID)
			}

			newQty := line.Quantity
			if input.NewQuantity != nil {
				newQty = *input.NewQuantity
			}
			newProductID := line.ProductID
			if input.NewProductID != nil {
				newProductID = *input.NewProductID
			}

			if newProductID != line.ProductID {
				// A line can only move to a product of the sale's seller.
				next, err := tx.Catalog().GetForUpdate(ctx, newProductID)
				if err != nil {
					return err
				}
				if next == nil || next.ArtisanID != owner.ArtisanID {
					return apperr.NotFound("product", newProductID)
				}
			}

			rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
			ref := inventory.Ref{Type: "sale_line", ID: line.ID}
			product, err := rec.Adjust(ctx, line.ProductID, line.Quantity, newProductID, newQty, ref)
			if err != nil {
				return err
			}

			if newProductID != line.ProductID {
				// The line now references another product: freeze that
				// product's current price, like a fresh line would.
				line.UnitPrice = product.Price
			}
			line.ProductID = newProductID
			line.Quantity = newQty

			if err := tx.Sales().UpdateLine(ctx, line); err != nil {
				return err
			}
			updated = line
			return nil
		})
	})
	if err != nil {
		uc.countFailure(err)
		return nil, err
	}

	uc.logger.Info("sale line updated", zap.String("line_id", updated.ID))
	uc.invalidateSaleCache(context.Background())
	return updated, nil
}

func (uc *saleUseCase) DeleteLineItem(ctx context.Context, actor *auth.Actor, lineID string) error {
	err := uc.withRetry(ctx, func() error {
		return uc.repo.Execute(ctx, func(tx sale.Tx) error {
			line, err := tx.Sales().GetLineForUpdate(ctx, lineID)
			if err != nil {
				return err
			}
			if line == nil {
				return apperr.NotFound("sale line", lineID)
			}

			owner, err := tx.Sales().GetSale(ctx, line.SaleID)
			if err != nil {
				return err
			}
			if owner == nil || !uc.inScope(actor, owner.ArtisanID) {
				return apperr.NotFound("sale line", lineID)
			}

			rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
			ref := inventory.Ref{Type: "sale_line", ID: line.ID}
			if err := rec.Release(ctx, line.ProductID, line.Quantity, ref); err != nil {
				return err
			}
			return tx.Sales().DeleteLine(ctx, lineID)
		})
	})
	if err != nil {
		uc.countFailure(err)
		return err
	}

	uc.logger.Info("sale line deleted", zap.String("line_id", lineID))
	uc.invalidateSaleCache(context.Background())
	return nil
}

func (uc *saleUseCase) DeleteSale(ctx context.Context, actor *auth.Actor, saleID string) error {
	var deleted *model.Sale
	err := uc.withRetry(ctx, func() error {
		return uc.repo.Execute(ctx, func(tx sale.Tx) error {
			s, err := tx.Sales().GetSale(ctx, saleID)
			if err != nil {
				return err
			}
			if s == nil || !uc.inScope(actor, s.ArtisanID) {
				return apperr.NotFound("sale", saleID)
			}

			rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
			ref := inventory.Ref{Type: "sale", ID: s.ID}
			for i := range s.Lines {
				if err := rec.Release(ctx, s.Lines[i].ProductID, s.Lines[i].Quantity, ref); err != nil {
					return err
				}
			}

			if err := tx.Sales().DeleteSale(ctx, saleID); err != nil {
				return err
			}
			deleted = s
			return nil
		})
	})
	if err != nil {
		uc.countFailure(err)
		return err
	}

	uc.logger.Info("sale deleted",
		zap.String("sale_id", saleID),
		zap.String("sale_number", deleted.SaleNumber),
	)

	uc.invalidateSaleCache(context.Background())
	go uc.publishEvent(context.Background(), "SaleDeleted", deleted)
	go uc.removeFromIndex(context.Background(), saleID)
	return nil
}

func (uc *saleUseCase) inScope(actor *auth.Actor, artisanID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == auth.RoleArtisan && actor.ArtisanID == artisanID
}

// withRetry re-runs fn after a concurrency conflict, up to
// maxTxAttempts. Every other error class surfaces immediately.
func (uc *saleUseCase) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		if attempt < maxTxAttempts {
			metrics.TxRetries.Inc()
			uc.logger.Warn("transaction conflict, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
			}
		}
	}
	return err
}

func (uc *saleUseCase) countFailure(err error) {
	switch {
	case errors.Is(err, apperr.ErrInsufficientStock):
		metrics.SaleFailures.WithLabelValues("insufficient_stock").Inc()
	case errors.Is(err, apperr.ErrValidation):
		metrics.SaleFailures.WithLabelValues("validation").Inc()
	case errors.Is(err, apperr.ErrNotFound):
		metrics.SaleFailures.WithLabelValues("not_found").Inc()
	case errors.Is(err, apperr.ErrConflict):
		metrics.SaleFailures.WithLabelValues("conflict").Inc()
	default:
		metrics.SaleFailures.WithLabelValues("storage").Inc()
	}
}

func (uc *saleUseCase) listCacheKey(filters *dto.SaleFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sales:list:%x", md5.Sum(data)), nil
}

func (uc *saleUseCase) invalidateSaleCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteByPattern(ctx, "sale:*"); err != nil {
		uc.logger.Error("failed to invalidate sale cache", zap.Error(err))
	}
	if err := uc.cache.DeleteByPattern(ctx, "sales:list:*"); err != nil {
		uc.logger.Error("failed to invalidate sale list cache", zap.Error(err))
	}
}

type saleEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Payload   saleEventPayload `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

type saleEventPayload struct {
	ID         string          `json:"id"`
	SaleNumber string          `json:"sale_number"`
	ArtisanID  string          `json:"artisan_id"`
	Total      string          `json:"total_amount"`
	Items      []saleEventItem `json:"items"`
}

type saleEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func (uc *saleUseCase) publishEvent(ctx context.Context, eventType string, s *model.Sale) {
	if uc.producer == nil {
		return
	}

	items := make([]saleEventItem, 0, len(s.Lines))
	for i := range s.Lines {
		items = append(items, saleEventItem{
			ProductID: s.Lines[i].ProductID,
			Quantity:  s.Lines[i].Quantity,
			UnitPrice: s.Lines[i].UnitPrice.String(),
		})
	}

	event := saleEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload: saleEventPayload{
			ID:         s.ID,
			SaleNumber: s.SaleNumber,
			ArtisanID:  s.ArtisanID,
			Total:      s.TotalAmount().String(),
			Items:      items,
		},
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal sale event", zap.Error(err))
		return
	}
	if err := uc.producer.Publish(ctx, []byte(s.ID), data); err != nil {
		uc.logger.Error("failed to publish sale event",
			zap.String("event_type", eventType),
			zap.String("sale_id", s.ID),
			zap.Error(err),
		)
	}
}

func (uc *saleUseCase) indexSale(ctx context.Context, s *model.Sale) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"sale_number": { "type": "keyword" },
				"artisan_id": { "type": "keyword" },
				"customer_name": { "type": "text" },
				"total_amount": { "type": "double" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, salesIndex, mapping)

	doc := map[string]interface{}{
		"sale_number":   s.SaleNumber,
		"artisan_id":    s.ArtisanID,
		"customer_name": s.CustomerName,
		"total_amount":  s.TotalAmount(),
		"line_count":    s.LineCount(),
		"created_at":    s.CreatedAt,
	}
	if err := uc.es.Index(ctx, salesIndex, s.ID, doc); err != nil {
		uc.logger.Error("failed to index sale", zap.String("sale_id", s.ID), zap.Error(err))
	}
}

func (uc *saleUseCase) removeFromIndex(ctx context.Context, saleID string) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Delete(ctx, salesIndex, saleID); err != nil {
		uc.logger.Error("failed to remove sale from index", zap.String("sale_id", saleID), zap.Error(err))
	}
}
