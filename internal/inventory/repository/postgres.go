package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListMovements(ctx context.Context, f *inventory.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperr.Storage("count movements", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, apperr.Storage("count movements", err)
		}
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, apperr.Storage("list movements", err)
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	if err != nil {
		return nil, 0, apperr.Storage("list movements", err)
	}
	return items, count, nil
}

// Tx returns a movement writer bound to the given transaction.
func (r *PGRepository) Tx(tx *sqlx.Tx) inventory.MovementWriter {
	return &pgMovementWriter{tx: tx}
}

type pgMovementWriter struct {
	tx *sqlx.Tx
}

func (w *pgMovementWriter) Log(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, movement_type, quantity_delta,
            stock_before, stock_after, reference_type, reference_id, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_delta,
            :stock_before, :stock_after, :reference_type, :reference_id, :created_at
        )
    `
	_, err := w.tx.NamedExecContext(ctx, query, m)
	return apperr.ClassifyPG("log movement", err)
}
