// internal/infrastructure/database/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Store implements the product, cart and order repositories with in-memory
// maps. It is used by the memory driver and by tests.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type cartRecord struct {
	item cart.CartItem
	seq  uint64
}

type state struct {
	products map[string]product.Product
	items    map[string]cartRecord
	orders   map[string]order.Order
	seq      uint64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		st: &state{
			products: make(map[string]product.Product),
			items:    make(map[string]cartRecord),
			orders:   make(map[string]order.Order),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// PutProduct inserts or replaces a product and returns the stored copy
func (s *Store) PutProduct(p product.Product) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.st.products[p.ID] = p
	return p
}

// SeedCatalog inserts products when the catalog is empty
func (s *Store) SeedCatalog(ctx context.Context, products []product.Product) (int, error) {
	s.mu.Lock()
	empty := len(s.st.products) == 0
	s.mu.Unlock()

	if !empty {
		return 0, nil
	}
	for _, p := range products {
		s.PutProduct(p)
	}
	return len(products), nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// ListProducts returns all products sorted by name ascending
func (s *Store) ListProducts(ctx context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]product.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// ListLines returns the session's cart lines joined to their products
func (s *Store) ListLines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listLines(sessionID), nil
}

// UpsertItem inserts a cart item or adds quantity to the existing one
func (s *Store) UpsertItem(ctx context.Context, sessionID, productID string, quantity int) (*cart.CartItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.products[productID]; !ok {
		return nil, false, domain.NewNotFoundError("product", productID)
	}

	now := s.now()
	for id, rec := range s.st.items {
		if rec.item.SessionID == sessionID && rec.item.ProductID == productID {
			if quantity > cart.MaxQuantity-rec.item.Quantity {
				return nil, false, cart.ErrQuantityLimit
			}
			rec.item.Quantity += quantity
			rec.item.UpdatedAt = now
			s.st.items[id] = rec
			item := rec.item
			return &item, false, nil
		}
	}

	if quantity > cart.MaxQuantity {
		return nil, false, cart.ErrQuantityLimit
	}

	s.st.seq++
	item := cart.CartItem{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.items[item.ID] = cartRecord{item: item, seq: s.st.seq}
	return &item, true, nil
}

// UpdateQuantity replaces the quantity of a cart item
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*cart.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.st.items[itemID]
	if !ok {
		return nil, domain.NewNotFoundError("cart item", itemID)
	}
	rec.item.Quantity = quantity
	rec.item.UpdatedAt = s.now()
	s.st.items[itemID] = rec

	item := rec.item
	return &item, nil
}

// DeleteItem removes a cart item if present
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.st.items, itemID)
	return nil
}

// ClearSession removes the session's cart items last changed before cutoff
func (s *Store) ClearSession(ctx context.Context, sessionID string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, rec := range s.st.items {
		if rec.item.SessionID == sessionID && rec.item.UpdatedAt.Before(cutoff) {
			delete(s.st.items, id)
			removed++
		}
	}
	return removed, nil
}

// GetOrder returns a copy of a stored order
func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.st.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}
	return copyOrder(&o), nil
}

// CountOrders returns the number of stored orders
func (s *Store) CountOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

// WithinTransaction runs fn with the store locked. If fn fails the state is
// restored to what it was before fn started.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st.clone()
	if err := fn(&txView{st: s.st}); err != nil {
		s.st = backup
		return err
	}
	return nil
}

// txView exposes state to a transaction; the store mutex is already held
type txView struct {
	st *state
}

func (t *txView) ListLines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	return t.st.listLines(sessionID), nil
}

func (t *txView) CreateOrder(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	t.st.orders[o.ID] = *copyOrder(o)
	return nil
}

func (t *txView) DeleteItems(ctx context.Context, itemIDs []string) error {
	for _, id := range itemIDs {
		delete(t.st.items, id)
	}
	return nil
}

func (st *state) listLines(sessionID string) []cart.Line {
	records := make([]cartRecord, 0)
	for _, rec := range st.items {
		if rec.item.SessionID == sessionID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	lines := make([]cart.Line, 0, len(records))
	for _, rec := range records {
		p, ok := st.products[rec.item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, cart.Line{
			ItemID:    rec.item.ID,
			SessionID: rec.item.SessionID,
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  rec.item.Quantity,
			CreatedAt: rec.item.CreatedAt,
		})
	}
	return lines
}

func (st *state) clone() *state {
	c := &state{
		products: make(map[string]product.Product, len(st.products)),
		items:    make(map[string]cartRecord, len(st.items)),
		orders:   make(map[string]order.Order, len(st.orders)),
		seq:      st.seq,
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	return c
}

func copyOrder(o *order.Order) *order.Order {
	c := *o
	c.Items = append(c.Items[:0:0], o.Items...)
	return &c
}
