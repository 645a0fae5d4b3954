package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/catalog"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("find product", err)
	}
	return &product, nil
}

func (r *PGRepository) FindByArtisan(ctx context.Context, artisanID string, inStockOnly bool) ([]model.Product, error) {
	query := `SELECT * FROM products WHERE artisan_id = $1 AND is_active = TRUE`
	if inStockOnly {
		query += ` AND stock > 0`
	}
	query += ` ORDER BY name`

	var products []model.Product
	err := r.DB.SelectContext(ctx, &products, query, artisanID)
	if err != nil {
		return nil, apperr.Storage("list artisan products", err)
	}
	return products, nil
}

// Tx returns a catalog view bound to the given transaction.
func (r *PGRepository) Tx(tx *sqlx.Tx) catalog.TxStore {
	return &pgTxStore{tx: tx}
}

type pgTxStore struct {
	tx *sqlx.Tx
}

func (s *pgTxStore) GetForUpdate(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 FOR UPDATE`
	err := s.tx.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.ClassifyPG("lock product", err)
	}
	return &product, nil
}

func (s *pgTxStore) SaveStock(ctx context.Context, id string, stock int) error {
	res, err := s.tx.ExecContext(ctx,
		`UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, id)
	if err != nil {
		return apperr.ClassifyPG("save stock", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("save stock", err)
	}
	if rows == 0 {
		return apperr.NotFound("product", id)
	}
	return nil
}
