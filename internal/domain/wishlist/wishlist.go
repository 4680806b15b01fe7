package wishlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carecart/internal/domain/cart"
)

var ErrInvalidProduct = errors.New("product id is required")

type Entry struct {
	ProductID string       `json:"product_id"`
	Product   cart.Product `json:"product"`
	AddedAt   time.Time    `json:"added_at"`
}

type List struct {
	Entries []Entry `json:"entries"`
}

// Persister flushes a wishlist snapshot to durable storage.
type Persister interface {
	Persist(ctx context.Context, l List) error
}

// Store is the save-for-later set. Entries are unique per product and kept
// in insertion order.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	persist Persister
	now     func() time.Time
}

func NewStore(p Persister) *Store {
	return Restore(p, List{})
}

func Restore(p Persister, l List) *Store {
	s := &Store{persist: p, now: time.Now}

	seen := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		if e.ProductID == "" || seen[e.ProductID] {
			continue
		}
		seen[e.ProductID] = true
		s.entries = append(s.entries, e)
	}
	return s
}

func (s *Store) Items() List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return List{Entries: cloneEntries(s.entries)}
}

func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.entries, productID) >= 0
}

// Add saves a product. Saving an already saved product is a no-op.
func (s *Store) Add(ctx context.Context, p cart.Product) (List, error) {
	if p.ID == "" {
		return s.Items(), ErrInvalidProduct
	}
	return s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		if indexOf(entries, p.ID) >= 0 {
			return entries, false
		}
		return append(entries, Entry{ProductID: p.ID, Product: p, AddedAt: s.now()}), true
	})
}

func (s *Store) Remove(ctx context.Context, productID string) (List, error) {
	return s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		i := indexOf(entries, productID)
		if i < 0 {
			return entries, false
		}
		return append(entries[:i], entries[i+1:]...), true
	})
}

// Toggle adds the product when absent and removes it otherwise. It reports
// whether the product is saved afterwards.
func (s *Store) Toggle(ctx context.Context, p cart.Product) (bool, error) {
	if s.Contains(p.ID) {
		_, err := s.Remove(ctx, p.ID)
		return false, err
	}
	_, err := s.Add(ctx, p)
	return err == nil, err
}

func (s *Store) Clear(ctx context.Context) (List, error) {
	return s.mutate(ctx, func([]Entry) ([]Entry, bool) {
		return nil, true
	})
}

// MoveToCart adds one unit of a saved product to c, then drops it from the
// wishlist. p is the product as the catalog reports it now; the entry saved
// earlier only identifies which product to move. The wishlist is untouched
// when the cart rejects the product.
func (s *Store) MoveToCart(ctx context.Context, p cart.Product, c *cart.Store) (cart.Cart, error) {
	if !s.Contains(p.ID) {
		return c.Snapshot(), fmt.Errorf("wishlist: %w", cart.ErrItemNotFound)
	}

	snap, err := c.AddItem(ctx, p, 1)
	if err != nil {
		return snap, err
	}
	if _, err := s.Remove(ctx, p.ID); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *Store) mutate(ctx context.Context, fn func([]Entry) ([]Entry, bool)) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(cloneEntries(s.entries))
	if !changed {
		return List{Entries: cloneEntries(s.entries)}, nil
	}

	l := List{Entries: cloneEntries(next)}
	if s.persist != nil {
		if err := s.persist.Persist(ctx, l); err != nil {
			return List{Entries: cloneEntries(s.entries)}, fmt.Errorf("persist wishlist: %w", err)
		}
	}

	s.entries = next
	return List{Entries: cloneEntries(next)}, nil
}

func indexOf(entries []Entry, productID string) int {
	for i, e := range entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
