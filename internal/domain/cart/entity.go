// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// MaxQuantity is the largest quantity a single cart item may hold
const MaxQuantity = 1000000

// ErrQuantityLimit is returned when a merge would push an item past MaxQuantity
var ErrQuantityLimit = domain.NewValidationError("quantity", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))

// CartItem represents one product line in an anonymous shopping session.
// At most one row exists per (session_id, product_id).
type CartItem struct {
	ID        string           `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string           `gorm:"not null;size:255;uniqueIndex:idx_cart_items_session_product,priority:1" json:"session_id"`
	ProductID string           `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_items_session_product,priority:2" json:"product_id"`
	Quantity  int              `gorm:"not null;check:chk_cart_items_quantity,quantity >= 1 AND quantity <= 1000000" json:"quantity"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Product   *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Line is a cart item joined to the current name, price and image of its product
type Line struct {
	ItemID    string
	SessionID string
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
	CreatedAt time.Time
}

// Subtotal returns price * quantity using the product's current price
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemView is a cart line as returned to clients
type ItemView struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is the derived view of a session's items; it is never persisted
type Cart struct {
	Items []ItemView      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// NewCart builds the client view of lines, recomputing every subtotal and the total
func NewCart(lines []Line) *Cart {
	c := &Cart{
		Items: make([]ItemView, 0, len(lines)),
		Total: Total(lines),
	}
	for _, l := range lines {
		c.Items = append(c.Items, ItemView{
			ID:        l.ItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			ImageURL:  l.ImageURL,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	return c
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=1000000"`
	SessionID string `json:"sessionId" validate:"required"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=1000000"`
}
