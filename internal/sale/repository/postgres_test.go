package repository

import (
	"context"
	"os"
	"testing"
	"time"

	catalogRepo "github.com/atelier/atelier-sales-service/internal/catalog/repository"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	inventoryRepo "github.com/atelier/atelier-sales-service/internal/inventory/repository"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/sale"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func getPostgres(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=atelier password=atelier dbname=atelier_sales_test sslmode=disable"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *sqlx.DB, stock int) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO products (id, artisan_id, name, price, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, 'test product', 12.50, $3, TRUE, NOW(), NOW())`,
		id, uuid.New().String(), stock)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM stock_movements WHERE product_id = $1`, id)
		db.Exec(`DELETE FROM products WHERE id = $1`, id)
	})
	return id
}

func newRepo(db *sqlx.DB) *PGRepository {
	return NewPGRepository(db, catalogRepo.NewPGRepository(db), inventoryRepo.NewPGRepository(db))
}

func TestExecute_CreateSaleRoundTrip(t *testing.T) {
	db := getPostgres(t)
	defer db.Close()

	repo := newRepo(db)
	ctx := context.Background()
	productID := seedProduct(t, db, 10)

	saleID := uuid.New().String()
	err := repo.Execute(ctx, func(tx sale.Tx) error {
		rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
		product, err := rec.Reserve(ctx, productID, 4, inventory.Ref{Type: "sale", ID: saleID})
		if err != nil {
			return err
		}

		return tx.Sales().InsertSale(ctx, &model.Sale{
			ID:         saleID,
			SaleNumber: "V-20260831-" + saleID[:4],
			ArtisanID:  product.ArtisanID,
			CreatedAt:  time.Now(),
			Lines: []model.SaleLine{{
				ID:        uuid.New().String(),
				SaleID:    saleID,
				ProductID: productID,
				Quantity:  4,
				UnitPrice: product.Price,
			}},
		})
	})
	if err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM sales WHERE id = $1`, saleID) })

	var stock int
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id = $1`, productID); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 6 {
		t.Errorf("expected stock 6, got %d", stock)
	}

	s, err := repo.FindByID(ctx, saleID)
	if err != nil {
		t.Fatalf("find sale: %v", err)
	}
	if s == nil || s.LineCount() != 1 {
		t.Fatalf("expected sale with one line, got %+v", s)
	}
	if want := decimal.RequireFromString("50.00"); !s.TotalAmount().Equal(want) {
		t.Errorf("expected total 50.00, got %s", s.TotalAmount())
	}
}

func TestExecute_RollbackOnError(t *testing.T) {
	db := getPostgres(t)
	defer db.Close()

	repo := newRepo(db)
	ctx := context.Background()
	productID := seedProduct(t, db, 5)

	err := repo.Execute(ctx, func(tx sale.Tx) error {
		rec := inventory.NewReconciler(tx.Catalog(), tx.Movements())
		if _, err := rec.Reserve(ctx, productID, 2, inventory.Ref{}); err != nil {
			return err
		}
		// Second reservation exceeds what is left and must fail the
		// whole transaction.
		_, err := rec.Reserve(ctx, productID, 99, inventory.Ref{})
		return err
	})
	if err == nil {
		t.Fatal("expected the transaction to fail")
	}

	var stock int
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id = $1`, productID); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 5 {
		t.Errorf("expected stock rolled back to 5, got %d", stock)
	}
}

func TestLastSaleNumber_LongerSuffixWins(t *testing.T) {
	db := getPostgres(t)
	defer db.Close()

	repo := newRepo(db)
	ctx := context.Background()

	const prefix = "V-19981224"
	artisanID := uuid.New().String()
	for _, suffix := range []string{"-0001", "-9999", "-10000"} {
		id := uuid.New().String()
		_, err := db.Exec(`
			INSERT INTO sales (id, sale_number, artisan_id, created_at)
			VALUES ($1, $2, $3, NOW())`, id, prefix+suffix, artisanID)
		if err != nil {
			t.Fatalf("seed sale: %v", err)
		}
		t.Cleanup(func() { db.Exec(`DELETE FROM sales WHERE id = $1`, id) })
	}

	err := repo.Execute(ctx, func(tx sale.Tx) error {
		last, err := tx.Sales().LastSaleNumber(ctx, prefix)
		if err != nil {
			return err
		}
		// Lexicographically -9999 ranks above -10000; the query must
		// still pick the numerically larger suffix.
		if want := prefix + "-10000"; last != want {
			t.Errorf("expected %s, got %s", want, last)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
}

func TestLastSaleNumber_Empty(t *testing.T) {
	db := getPostgres(t)
	defer db.Close()

	repo := newRepo(db)
	err := repo.Execute(context.Background(), func(tx sale.Tx) error {
		last, err := tx.Sales().LastSaleNumber(context.Background(), "V-19990101")
		if err != nil {
			return err
		}
		if last != "" {
			t.Errorf("expected empty last number, got %q", last)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
}
