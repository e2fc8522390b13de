// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LineItem is a cart line frozen into an order at checkout time
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order represents a placed order. Orders are immutable once created; Items is
// a snapshot and never follows later catalog price changes.
type Order struct {
	ID            string                        `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerName  string                        `gorm:"not null;size:255" json:"customer_name"`
	CustomerEmail string                        `gorm:"not null;size:255;index" json:"customer_email"`
	Total         decimal.Decimal               `gorm:"type:numeric(20,2);not null" json:"total"`
	Items         datatypes.JSONSlice[LineItem] `gorm:"not null" json:"items"`
	SessionID     string                        `gorm:"not null;size:255;index" json:"session_id"`
	CreatedAt     time.Time                     `gorm:"index" json:"created_at"`
}

// TableName overrides the table name
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Receipt is the checkout confirmation returned to the customer
type Receipt struct {
	OrderID       string          `json:"orderId"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
	Items         []LineItem      `json:"items"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
}

// CheckoutRequest represents checkout request
type CheckoutRequest struct {
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required"`
	SessionID     string `json:"sessionId" validate:"required"`

	// IdempotencyKey is taken from the Idempotency-Key header, not the body
	IdempotencyKey string `json:"-"`
}

// Snapshot freezes cart lines into order line items
func Snapshot(lines []cart.Line) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	return items
}

// Receipt builds the customer receipt from the stored order
func (o *Order) Receipt() *Receipt {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)

	return &Receipt{
		OrderID:       o.ID,
		Total:         o.Total,
		Timestamp:     o.CreatedAt,
		Items:         items,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
	}
}
