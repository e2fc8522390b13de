// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// Tx is the set of store operations checkout runs inside one transaction
type Tx interface {
	// ListLines returns the session's cart lines and locks them until commit
	ListLines(ctx context.Context, sessionID string) ([]cart.Line, error)
	CreateOrder(ctx context.Context, o *Order) error
	DeleteItems(ctx context.Context, itemIDs []string) error
}

// Repository is the storage contract the order service runs on
type Repository interface {
	// WithinTransaction runs fn atomically: either every write fn made is
	// committed or none is
	WithinTransaction(ctx context.Context, fn func(tx Tx) error) error
	GetOrder(ctx context.Context, id string) (*Order, error)
}

// Listener is notified after an order has been committed
type Listener interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

// IdempotencyStore maps client idempotency keys to placed orders
type IdempotencyStore interface {
	// Reserve claims key for a new checkout. When reserved is false, orderID
	// is the order placed under key, or empty while that checkout is running.
	Reserve(ctx context.Context, key string) (orderID string, reserved bool, err error)
	Remember(ctx context.Context, key, orderID string) error
	// Release frees a reservation whose checkout did not place an order
	Release(ctx context.Context, key string) error
}

const (
	defaultIdempotencyWait = 5 * time.Second
	idempotencyPoll        = 20 * time.Millisecond
)

// Service handles checkout and order lookups
type Service struct {
	repo      Repository
	idem      IdempotencyStore
	listeners []Listener
	logger    *logrus.Logger
	now       func() time.Time
	idemWait  time.Duration
}

// NewService creates a new order service. idem may be nil.
func NewService(repo Repository, idem IdempotencyStore, logger *logrus.Logger, listeners ...Listener) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:      repo,
		idem:      idem,
		listeners: listeners,
		logger:    logger,
		now:       time.Now,
		idemWait:  defaultIdempotencyWait,
	}
}

// WithIdempotencyWait sets how long a checkout waits for another checkout
// running under the same idempotency key
func (s *Service) WithIdempotencyWait(d time.Duration) *Service {
	s.idemWait = d
	return s
}

// Checkout converts the session cart into an order and empties the cart in one
// transaction. The returned bool is true when an earlier receipt was replayed
// for the request's idempotency key.
func (s *Service) Checkout(ctx context.Context, req *CheckoutRequest) (*Receipt, bool, error) {
	if err := domain.Validate(req); err != nil {
		return nil, false, err
	}

	receipt, owned, err := s.claim(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if receipt != nil {
		return receipt, true, nil
	}

	var placed *Order
	err = s.repo.WithinTransaction(ctx, func(tx Tx) error {
		lines, err := tx.ListLines(ctx, req.SessionID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		o := &Order{
			ID:            uuid.NewString(),
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			Total:         cart.Total(lines),
			Items:         Snapshot(lines),
			SessionID:     req.SessionID,
			CreatedAt:     s.now().UTC().Truncate(time.Microsecond),
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		itemIDs := make([]string, 0, len(lines))
		for _, l := range lines {
			itemIDs = append(itemIDs, l.ItemID)
		}
		if err := tx.DeleteItems(ctx, itemIDs); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		placed = o
		return nil
	})
	if err != nil {
		if owned {
			s.release(ctx, req.IdempotencyKey)
		}
		return nil, false, domain.WrapStoreError("checkout", err)
	}

	s.remember(ctx, req.IdempotencyKey, placed.ID)
	s.notify(ctx, placed)

	return placed.Receipt(), false, nil
}

// GetOrder retrieves a placed order by id
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	if id == "" {
		return nil, domain.NewNotFoundError("order", id)
	}
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, domain.WrapStoreError("get order", err)
	}
	return o, nil
}

// claim reserves the idempotency key for this checkout. It returns the
// earlier receipt when the key already maps to an order, and waits while
// another checkout holds the key. owned is true when this call must Remember
// or Release the key.
func (s *Service) claim(ctx context.Context, key string) (receipt *Receipt, owned bool, err error) {
	if key == "" || s.idem == nil {
		return nil, false, nil
	}

	deadline := s.now().Add(s.idemWait)
	ticker := time.NewTicker(idempotencyPoll)
	defer ticker.Stop()

	for {
		orderID, reserved, err := s.idem.Reserve(ctx, key)
		if err != nil {
			s.logger.WithError(err).Warn("idempotency reservation failed, processing checkout")
			return nil, false, nil
		}
		if reserved {
			return nil, true, nil
		}
		if orderID != "" {
			o, err := s.repo.GetOrder(ctx, orderID)
			if err != nil {
				s.logger.WithError(err).WithField("order_id", orderID).Warn("idempotency key points to unreadable order")
				return nil, false, nil
			}
			return o.Receipt(), false, nil
		}

		if !s.now().Before(deadline) {
			return nil, false, domain.ErrCheckoutInProgress
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) remember(ctx context.Context, key, orderID string) {
	if key == "" || s.idem == nil {
		return
	}
	if err := s.idem.Remember(ctx, key, orderID); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to store idempotency key")
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.idem.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WithError(err).Warn("failed to release idempotency key")
	}
}

// notify runs listeners after commit. A failing listener never fails the
// checkout; the order is already placed.
func (s *Service) notify(ctx context.Context, o *Order) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range s.listeners {
		if err := l.OrderPlaced(ctx, o); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"order_id": o.ID,
				"listener": fmt.Sprintf("%T", l),
			}).Error("order placed listener failed")
		}
	}
}
