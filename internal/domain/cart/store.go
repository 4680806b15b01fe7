package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store owns one shopper's cart. All mutations go through mutate, which
// recomputes the totals and flushes the snapshot before the new state
// becomes visible.
type Store struct {
	mu      sync.Mutex
	cart    Cart
	persist Persister
	images  ImageResolver
	newID   func() string
}

type Option func(*Store)

func WithImageResolver(r ImageResolver) Option {
	return func(s *Store) { s.images = r }
}

// WithIDGenerator overrides the line id generator (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(p Persister, opts ...Option) *Store {
	return Restore(p, Cart{}, opts...)
}

// Restore builds a store from a previously persisted snapshot. Totals are
// recomputed and lines sharing a product id are merged into the first one.
func Restore(p Persister, snap Cart, opts ...Option) *Store {
	s := &Store{
		persist: p,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	merged := make([]Item, 0, len(snap.Items))
	index := make(map[string]int, len(snap.Items))
	for _, it := range snap.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		if it.ID == "" {
			it.ID = s.newID()
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}

	s.cart = Build(merged)
	return s
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

func (s *Store) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.cart.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (s *Store) InCart(productID string) bool {
	return s.ItemQuantity(productID) > 0
}

// AddItem merges qty units of product into the cart. An existing line for the
// same product is incremented and its snapshot refreshed; otherwise a new
// line is appended. The resulting quantity is clamped to the snapshotted
// stock.
func (s *Store) AddItem(ctx context.Context, p Product, qty int) (Cart, error) {
	if p.ID == "" {
		return s.Snapshot(), ErrInvalidProduct
	}
	if qty <= 0 {
		return s.Snapshot(), ErrInvalidQuantity
	}
	if p.StockQuantity <= 0 {
		return s.Snapshot(), ErrOutOfStock
	}

	snap := s.snapshotOf(p)

	return s.mutate(ctx, func(items []Item) ([]Item, bool, error) {
		for i := range items {
			if items[i].ProductID != p.ID {
				continue
			}
			items[i].Snapshot = snap
			items[i].UnitPricePaise = p.UnitPricePaise
			items[i].Quantity = clampToStock(items[i].Quantity+qty, snap.StockQuantity)
			return items, true, nil
		}

		return append(items, Item{
			ID:             s.newID(),
			ProductID:      p.ID,
			Snapshot:       snap,
			Quantity:       clampToStock(qty, snap.StockQuantity),
			UnitPricePaise: p.UnitPricePaise,
		}), true, nil
	})
}

// RemoveItem drops the line with the given id. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, lineID string) (Cart, error) {
	return s.mutate(ctx, func(items []Item) ([]Item, bool, error) {
		for i := range items {
			if items[i].ID == lineID {
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return items, false, nil
	})
}

// UpdateQuantity overwrites a line's quantity. qty <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, qty int) (Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, lineID)
	}

	return s.mutate(ctx, func(items []Item) ([]Item, bool, error) {
		for i := range items {
			if items[i].ID != lineID {
				continue
			}
			next := clampToStock(qty, items[i].Snapshot.StockQuantity)
			if next == items[i].Quantity {
				return items, false, nil
			}
			items[i].Quantity = next
			return items, true, nil
		}
		return items, false, ErrItemNotFound
	})
}

// Clear resets the cart to the canonical empty cart.
func (s *Store) Clear(ctx context.Context) (Cart, error) {
	return s.mutate(ctx, func([]Item) ([]Item, bool, error) {
		return nil, true, nil
	})
}

// Reset empties the cart in memory unconditionally, then flushes the empty
// snapshot. A flush error is returned but the cart stays empty; use it where
// the items have already been consumed, such as after an order was placed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = Build(nil)
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Persist(ctx, s.cart.clone()); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, fn func(items []Item) ([]Item, bool, error)) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, changed, err := fn(cloneItems(s.cart.Items))
	if err != nil {
		return s.cart.clone(), err
	}
	if !changed {
		return s.cart.clone(), nil
	}

	next := Build(items)
	if s.persist != nil {
		if err := s.persist.Persist(ctx, next.clone()); err != nil {
			return s.cart.clone(), fmt.Errorf("persist cart: %w", err)
		}
	}

	s.cart = next
	return next.clone(), nil
}

func (s *Store) snapshotOf(p Product) ProductSnapshot {
	snap := ProductSnapshot{
		Name:                 p.Name,
		Brand:                p.Brand,
		UnitPricePaise:       p.UnitPricePaise,
		MaxRetailPricePaise:  p.MaxRetailPricePaise,
		StockQuantity:        p.StockQuantity,
		PrescriptionRequired: p.PrescriptionRequired,
	}
	if s.images != nil && p.ImagePublicID != "" {
		snap.ThumbnailURL = s.images.ThumbnailURL(p.ImagePublicID)
	}
	return snap
}

func clampToStock(qty, stock int) int {
	if stock > 0 && qty > stock {
		return stock
	}
	return qty
}
