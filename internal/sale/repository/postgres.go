package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/catalog"
	catalogRepo "github.com/atelier/atelier-sales-service/internal/catalog/repository"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	inventoryRepo "github.com/atelier/atelier-sales-service/internal/inventory/repository"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/sale"
	"github.com/atelier/atelier-sales-service/internal/sale/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB        *sqlx.DB
	catalog   *catalogRepo.PGRepository
	inventory *inventoryRepo.PGRepository
}

func NewPGRepository(db *sqlx.DB, cat *catalogRepo.PGRepository, inv *inventoryRepo.PGRepository) *PGRepository {
	return &PGRepository{DB: db, catalog: cat, inventory: inv}
}

// Execute runs fn in one transaction. All stores handed out by the Tx
// share it; an error from fn rolls everything back.
func (r *PGRepository) Execute(ctx context.Context, fn func(tx sale.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx, repo: r}); err != nil {
		return err
	}

	return apperr.ClassifyPG("commit", tx.Commit())
}

type pgTx struct {
	tx   *sqlx.Tx
	repo *PGRepository
}

func (t *pgTx) Sales() sale.TxRepository { return &pgTxRepository{tx: t.tx} }

func (t *pgTx) Catalog() catalog.TxStore { return t.repo.catalog.Tx(t.tx) }

func (t *pgTx) Movements() inventory.MovementWriter { return t.repo.inventory.Tx(t.tx) }

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Sale, error) {
	var s model.Sale
	err := r.DB.GetContext(ctx, &s, `SELECT * FROM sales WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("find sale", err)
	}

	if err := r.DB.SelectContext(ctx, &s.Lines,
		`SELECT * FROM sale_lines WHERE sale_id = $1 ORDER BY position`, id); err != nil {
		return nil, apperr.Storage("find sale lines", err)
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	var sales []model.Sale
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ArtisanID != "" {
		conditions = append(conditions, "artisan_id = :artisan_id")
		args["artisan_id"] = f.ArtisanID
	}
	if f.DateFrom != "" {
		conditions = append(conditions, "created_at >= :date_from")
		args["date_from"] = f.DateFrom
	}
	if f.DateTo != "" {
		conditions = append(conditions, "created_at <= :date_to")
		args["date_to"] = f.DateTo
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM sales" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperr.Storage("count sales", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, apperr.Storage("count sales", err)
		}
	}

	query := "SELECT * FROM sales" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, apperr.Storage("list sales", err)
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &sales, args); err != nil {
		return nil, 0, apperr.Storage("list sales", err)
	}

	if err := r.attachLines(ctx, sales); err != nil {
		return nil, 0, err
	}
	return sales, count, nil
}

func (r *PGRepository) attachLines(ctx context.Context, sales []model.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	index := make(map[string]*model.Sale, len(sales))
	for i := range sales {
		ids[i] = sales[i].ID
		index[sales[i].ID] = &sales[i]
	}

	query, args, err := sqlx.In(`SELECT * FROM sale_lines WHERE sale_id IN (?) ORDER BY position`, ids)
	if err != nil {
		return apperr.Storage("attach lines", err)
	}
	query = r.DB.Rebind(query)

	var lines []model.SaleLine
	if err := r.DB.SelectContext(ctx, &lines, query, args...); err != nil {
		return apperr.Storage("attach lines", err)
	}
	for _, l := range lines {
		s := index[l.SaleID]
		s.Lines = append(s.Lines, l)
	}
	return nil
}

func (r *PGRepository) FindLineByID(ctx context.Context, lineID string) (*model.SaleLine, error) {
	var l model.SaleLine
	err := r.DB.GetContext(ctx, &l, `SELECT * FROM sale_lines WHERE id = $1 LIMIT 1`, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("find line", err)
	}
	return &l, nil
}

type pgTxRepository struct {
	tx *sqlx.Tx
}

func (r *pgTxRepository) LastSaleNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	// Suffixes grow past four digits, so a plain lexicographic sort
	// would rank -9999 above -10000. Longer numbers always win.
	err := r.tx.GetContext(ctx, &last, `
        SELECT sale_number FROM sales
        WHERE sale_number LIKE $1
        ORDER BY length(sale_number) DESC, sale_number DESC
        LIMIT 1`, prefix+"-%")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", apperr.ClassifyPG("last sale number", err)
	}
	return last, nil
}

func (r *pgTxRepository) InsertSale(ctx context.Context, s *model.Sale) error {
	_, err := r.tx.NamedExecContext(ctx, `
        INSERT INTO sales (id, sale_number, artisan_id, customer_name, created_at)
        VALUES (:id, :sale_number, :artisan_id, :customer_name, :created_at)`, s)
	if err != nil {
		return apperr.ClassifyPG("insert sale", err)
	}

	for i := range s.Lines {
		if err := r.insertLine(ctx, &s.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgTxRepository) insertLine(ctx context.Context, l *model.SaleLine) error {
	_, err := r.tx.NamedExecContext(ctx, `
        INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, position)
        VALUES (:id, :sale_id, :product_id, :quantity, :unit_price, :position)`, l)
	return apperr.ClassifyPG("insert line", err)
}

func (r *pgTxRepository) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	var s model.Sale
	err := r.tx.GetContext(ctx, &s, `SELECT * FROM sales WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.ClassifyPG("get sale", err)
	}
	if err := r.tx.SelectContext(ctx, &s.Lines,
		`SELECT * FROM sale_lines WHERE sale_id = $1 ORDER BY position`, id); err != nil {
		return nil, apperr.ClassifyPG("get sale lines", err)
	}
	return &s, nil
}

func (r *pgTxRepository) GetLineForUpdate(ctx context.Context, lineID string) (*model.SaleLine, error) {
	var l model.SaleLine
	err := r.tx.GetContext(ctx, &l, `SELECT * FROM sale_lines WHERE id = $1 FOR UPDATE`, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.ClassifyPG("lock line", err)
	}
	return &l, nil
}

func (r *pgTxRepository) UpdateLine(ctx context.Context, l *model.SaleLine) error {
	_, err := r.tx.NamedExecContext(ctx, `
        UPDATE sale_lines
        SET product_id = :product_id, quantity = :quantity, unit_price = :unit_price
        WHERE id = :id`, l)
	return apperr.ClassifyPG("update line", err)
}

func (r *pgTxRepository) DeleteLine(ctx context.Context, lineID string) error {
	_, err := r.tx.ExecContext(ctx, `DELETE FROM sale_lines WHERE id = $1`, lineID)
	return apperr.ClassifyPG("delete line", err)
}

func (r *pgTxRepository) DeleteSale(ctx context.Context, id string) error {
	// sale_lines has ON DELETE CASCADE on sale_id
	_, err := r.tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	return apperr.ClassifyPG("delete sale", err)
}
