package infra

import (
	"fmt"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (partial indexes, append-only trigger on the ledger).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Supplier{},
		&model.SupplierContact{},
		&model.StockItem{},
		&model.StockTransaction{},
		&model.CostHistory{},
		&model.MenuItem{},
		&model.RecipeIngredient{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate
// cannot fully handle on its own. Each statement uses IF NOT EXISTS / guarded
// DO blocks so re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the reversal lookup: only deduction outflows carry
		// an origin key, so keep the index small.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_tx_origin_outflow') THEN
		    CREATE INDEX idx_stock_tx_origin_outflow
		        ON stock_transactions (origin_id, origin_kind, deduction_policy)
		        WHERE type = 'outflow' AND origin_id IS NOT NULL;
		  END IF;
		END $$`,
		// Partial index backing the low-stock report on the active slice.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_items_active_low') THEN
		    CREATE INDEX idx_stock_items_active_low
		        ON stock_items (quantity, min_threshold)
		        WHERE status = 'active';
		  END IF;
		END $$`,
		// The ledger is append-only: reject UPDATE and DELETE at the database
		// level so no future code path can rewrite history.
		`CREATE OR REPLACE FUNCTION reject_ledger_mutation() RETURNS trigger AS $$
		BEGIN
		  RAISE EXCEPTION 'stock_transactions is append-only';
		END;
		$$ LANGUAGE plpgsql`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_stock_tx_append_only') THEN
		    CREATE TRIGGER trg_stock_tx_append_only
		        BEFORE UPDATE OR DELETE ON stock_transactions
		        FOR EACH ROW EXECUTE FUNCTION reject_ledger_mutation();
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
