// internal/infrastructure/database/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// pgForeignKeyViolation is raised when a cart row references a missing product
	pgForeignKeyViolation = "23503"
	// pgCheckViolation is raised when a merged quantity breaks chk_cart_items_quantity
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// Store implements the product, cart and order repositories on gorm
type Store struct {
	db *gorm.DB
}

// NewStore creates a new gorm backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SeedCatalog inserts products when the products table is empty
func (s *Store) SeedCatalog(ctx context.Context, products []product.Product) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&product.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 || len(products) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Create(&products).Error; err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	return len(products), nil
}

// ListProducts returns all products sorted by name ascending
func (s *Store) ListProducts(ctx context.Context) ([]product.Product, error) {
	var products []product.Product
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListLines returns the session's cart lines joined to their products
func (s *Store) ListLines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	return listLines(s.db.WithContext(ctx), sessionID, false)
}

// UpsertItem inserts the cart item or adds quantity to the existing row in
// one INSERT ... ON CONFLICT statement
func (s *Store) UpsertItem(ctx context.Context, sessionID, productID string, quantity int) (*cart.CartItem, bool, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, false, domain.NewNotFoundError("product", productID)
	}

	item := cart.CartItem{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}

	err := s.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "session_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
					"updated_at": gorm.Expr("EXCLUDED.updated_at"),
				}),
			},
			clause.Returning{},
		).
		Create(&item).Error
	if err != nil {
		switch pgCode(err) {
		case pgForeignKeyViolation:
			return nil, false, domain.NewNotFoundError("product", productID)
		case pgCheckViolation, pgNumericOutOfRange:
			return nil, false, cart.ErrQuantityLimit
		}
		return nil, false, err
	}

	// An existing row always holds quantity >= 1, so the returned quantity
	// equals the requested one only for a fresh insert
	created := item.Quantity == quantity
	return &item, created, nil
}

// UpdateQuantity replaces the quantity of a cart item
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*cart.CartItem, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, domain.NewNotFoundError("cart item", itemID)
	}

	var item cart.CartItem
	result := s.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		switch pgCode(result.Error) {
		case pgCheckViolation, pgNumericOutOfRange:
			return nil, cart.ErrQuantityLimit
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.NewNotFoundError("cart item", itemID)
	}
	return &item, nil
}

// DeleteItem removes a cart item; unknown ids are ignored
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", itemID).Delete(&cart.CartItem{}).Error
}

// ClearSession removes the session's cart items last changed before cutoff
func (s *Store) ClearSession(ctx context.Context, sessionID string, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("session_id = ? AND updated_at < ?", sessionID, cutoff.UTC()).
		Delete(&cart.CartItem{})
	return result.RowsAffected, result.Error
}

// GetOrder loads a placed order
func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewNotFoundError("order", id)
	}

	var o order.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("order", id)
		}
		return nil, err
	}
	return &o, nil
}

// WithinTransaction runs fn inside a database transaction
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx order.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

// ListLines locks the session's cart rows until the transaction ends
func (t *gormTx) ListLines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	return listLines(t.db.WithContext(ctx), sessionID, true)
}

func (t *gormTx) CreateOrder(ctx context.Context, o *order.Order) error {
	return t.db.WithContext(ctx).Create(o).Error
}

func (t *gormTx) DeleteItems(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Where("id IN ?", itemIDs).Delete(&cart.CartItem{}).Error
}

func listLines(db *gorm.DB, sessionID string, lock bool) ([]cart.Line, error) {
	query := db.Table("cart_items").
		Select(`cart_items.id AS item_id,
			cart_items.session_id,
			cart_items.product_id,
			products.name,
			products.price,
			products.image_url,
			cart_items.quantity,
			cart_items.created_at`).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.session_id = ?", sessionID).
		Order("cart_items.created_at ASC, cart_items.id ASC")
	if lock {
		query = query.Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: "cart_items"},
		})
	}

	lines := make([]cart.Line, 0)
	if err := query.Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
