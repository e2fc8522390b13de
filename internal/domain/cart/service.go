// internal/domain/cart/service.go
package cart

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain"
)

// Repository is the storage contract the cart service runs on
type Repository interface {
	// ListLines returns the session's items joined to their products
	ListLines(ctx context.Context, sessionID string) ([]Line, error)
	// UpsertItem inserts the item or adds quantity to the existing row for
	// (sessionID, productID) in a single atomic statement. created reports
	// whether a new row was inserted.
	UpsertItem(ctx context.Context, sessionID, productID string, quantity int) (item *CartItem, created bool, err error)
	// UpdateQuantity replaces the quantity of an item; NotFoundError when absent
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (*CartItem, error)
	// DeleteItem removes an item; deleting a missing id is not an error
	DeleteItem(ctx context.Context, itemID string) error
}

// ActivityTracker records when a session last changed its cart
type ActivityTracker interface {
	Touch(ctx context.Context, sessionID string) error
}

// Service handles cart business logic
type Service struct {
	repo    Repository
	tracker ActivityTracker
	logger  *logrus.Logger
}

// NewService creates a new cart service. tracker may be nil.
func NewService(repo Repository, tracker ActivityTracker, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:    repo,
		tracker: tracker,
		logger:  logger,
	}
}

// GetCart computes the cart for a session from current product prices
func (s *Service) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, domain.NewValidationError("sessionId", "Session ID required")
	}

	lines, err := s.repo.ListLines(ctx, sessionID)
	if err != nil {
		return nil, domain.WrapStoreError("list cart items", err)
	}

	return NewCart(lines), nil
}

// AddToCart adds quantity of a product to the session cart. Adding a product
// that is already present increments its quantity. No stock check is made.
func (s *Service) AddToCart(ctx context.Context, req *AddToCartRequest) (*CartItem, bool, error) {
	if err := domain.Validate(req); err != nil {
		return nil, false, err
	}

	item, created, err := s.repo.UpsertItem(ctx, req.SessionID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, false, domain.WrapStoreError("upsert cart item", err)
	}

	s.touch(ctx, item.SessionID)
	return item, created, nil
}

// UpdateCartItem replaces the quantity of an existing cart item
func (s *Service) UpdateCartItem(ctx context.Context, itemID string, req *UpdateCartItemRequest) (*CartItem, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, domain.NewNotFoundError("cart item", itemID)
	}

	item, err := s.repo.UpdateQuantity(ctx, itemID, req.Quantity)
	if err != nil {
		return nil, domain.WrapStoreError("update cart item", err)
	}

	s.touch(ctx, item.SessionID)
	return item, nil
}

// RemoveFromCart deletes a cart item. Removing an unknown id succeeds.
func (s *Service) RemoveFromCart(ctx context.Context, itemID string) error {
	if itemID == "" {
		return nil
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return domain.WrapStoreError("delete cart item", err)
	}
	return nil
}

func (s *Service) touch(ctx context.Context, sessionID string) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.Touch(ctx, sessionID); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to record cart session activity")
	}
}
