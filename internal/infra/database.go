package infra

import (
	"fmt"

	"gestock/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate. Referential integrity is belt-and-braces: GORM creates the
// foreign keys from the model tags, and applyIntegrityConstraints upgrades
// the product references to RESTRICT so a product can never be hard-deleted
// while movements or document lines point at it.
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

	if err := db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Product{},
		&model.StockMovement{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Quote{},
		&model.QuoteItem{},
		&model.StockNotificationRecipient{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applyIntegrityConstraints(db); err != nil {
		return nil, fmt.Errorf("integrity constraints: %w", err)
	}

	return db, nil
}

// applyIntegrityConstraints re-creates the product foreign keys with
// ON DELETE RESTRICT (protect-on-delete). Idempotent: constraints are
// dropped-if-exists and re-added on every startup.
func applyIntegrityConstraints(db *gorm.DB) error {
	stmts := []struct{ table, constraint, sql string }{
		{"stock_movements", "fk_stock_movements_product",
			`ALTER TABLE stock_movements ADD CONSTRAINT fk_stock_movements_product
			 FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT`},
		{"invoice_items", "fk_invoice_items_product",
			`ALTER TABLE invoice_items ADD CONSTRAINT fk_invoice_items_product
			 FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT`},
		{"quote_items", "fk_quote_items_product",
			`ALTER TABLE quote_items ADD CONSTRAINT fk_quote_items_product
			 FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT`},
		// Items are owned by their document: cascade on hard delete.
		{"invoice_items", "fk_invoice_items_invoice",
			`ALTER TABLE invoice_items ADD CONSTRAINT fk_invoice_items_invoice
			 FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE`},
		{"quote_items", "fk_quote_items_quote",
			`ALTER TABLE quote_items ADD CONSTRAINT fk_quote_items_quote
			 FOREIGN KEY (quote_id) REFERENCES quotes(id) ON DELETE CASCADE`},
	}
	for _, s := range stmts {
		drop := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", s.table, s.constraint)
		if err := db.Exec(drop).Error; err != nil {
			return fmt.Errorf("drop %s: %w", s.constraint, err)
		}
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("add %s: %w", s.constraint, err)
		}
	}
	return nil
}
