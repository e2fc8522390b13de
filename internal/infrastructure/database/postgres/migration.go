// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_session_created ON cart_items(session_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_updated_at ON cart_items(updated_at)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at_desc ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_email_created ON orders(customer_email, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts the demo catalog into an empty products table
func (m *Migration) SeedInitialData(ctx context.Context) error {
	log.Println("🌱 Seeding initial data...")

	inserted, err := NewStore(m.db).SeedCatalog(ctx, product.DemoCatalog())
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if inserted == 0 {
		log.Println("⏭️ Products already exist")
		return nil
	}

	log.Printf("✅ Seeded %d demo products", inserted)
	return nil
}

// GetTableInfo logs the record count of every public table and returns the
// counts. Tables that cannot be counted are logged and left out.
func (m *Migration) GetTableInfo() (map[string]int64, error) {
	var tables []string

	// Get list of tables
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return nil, err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	counts := make(map[string]int64, len(tables))
	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("⚠️ %-25s | count failed: %v", table, err)
			continue
		}
		counts[table] = count
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)

	return counts, nil
}
