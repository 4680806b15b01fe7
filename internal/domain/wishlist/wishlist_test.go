package wishlist

import (
	"context"
	"errors"
	"testing"

	"carecart/internal/domain/cart"
)

type countingPersister struct {
	flushes int
	err     error
}

func (p *countingPersister) Persist(context.Context, List) error {
	if p.err != nil {
		return p.err
	}
	p.flushes++
	return nil
}

var vitaminC = cart.Product{ID: "vit-c", Name: "Vitamin C", UnitPricePaise: 150_00, StockQuantity: 10}

func TestAddIsSetLike(t *testing.T) {
	ctx := context.Background()
	p := &countingPersister{}
	s := NewStore(p)

	if _, err := s.Add(ctx, vitaminC); err != nil {
		t.Fatal(err)
	}
	l, err := s.Add(ctx, vitaminC)
	if err != nil {
		t.Fatal(err)
	}

	if len(l.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(l.Entries))
	}
	if p.flushes != 1 {
		t.Errorf("flushes = %d, want 1", p.flushes)
	}
}

func TestAddRejectsMissingID(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.Add(context.Background(), cart.Product{}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("err = %v", err)
	}
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	saved, err := s.Toggle(ctx, vitaminC)
	if err != nil || !saved {
		t.Fatalf("first toggle: saved=%v err=%v", saved, err)
	}
	saved, err = s.Toggle(ctx, vitaminC)
	if err != nil || saved {
		t.Fatalf("second toggle: saved=%v err=%v", saved, err)
	}
	if s.Contains(vitaminC.ID) {
		t.Errorf("still saved after second toggle")
	}
}

func TestFailedFlushKeepsEntries(t *testing.T) {
	ctx := context.Background()
	p := &countingPersister{}
	s := NewStore(p)

	_, _ = s.Add(ctx, vitaminC)
	p.err = errors.New("unavailable")

	if _, err := s.Remove(ctx, vitaminC.ID); err == nil {
		t.Fatal("expected error")
	}
	if !s.Contains(vitaminC.ID) {
		t.Errorf("entry removed despite failed flush")
	}
}

func TestMoveToCart(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	c := cart.NewStore(nil)

	_, _ = s.Add(ctx, vitaminC)

	snap, err := s.MoveToCart(ctx, vitaminC, c)
	if err != nil {
		t.Fatalf("MoveToCart: %v", err)
	}
	if snap.Totals.ItemCount != 1 {
		t.Errorf("cart item count = %d, want 1", snap.Totals.ItemCount)
	}
	if s.Contains(vitaminC.ID) {
		t.Errorf("product still on wishlist")
	}
}

func TestMoveToCart_UsesCurrentCatalogPrice(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	c := cart.NewStore(nil)

	_, _ = s.Add(ctx, vitaminC)
	_, _ = c.AddItem(ctx, vitaminC, 1)

	repriced := vitaminC
	repriced.UnitPricePaise = 180_00
	repriced.StockQuantity = 1

	snap, err := s.MoveToCart(ctx, repriced, c)
	if err != nil {
		t.Fatalf("MoveToCart: %v", err)
	}
	line := snap.Items[0]
	if line.UnitPricePaise != 180_00 || line.Snapshot.UnitPricePaise != 180_00 {
		t.Errorf("line price = %d, want current price 18000", line.UnitPricePaise)
	}
	if line.Quantity != 1 {
		t.Errorf("quantity = %d, want clamp to current stock 1", line.Quantity)
	}
}

func TestMoveToCart_RejectedKeepsEntry(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	c := cart.NewStore(nil)

	soldOut := vitaminC
	soldOut.StockQuantity = 0
	_, _ = s.Add(ctx, soldOut)

	if _, err := s.MoveToCart(ctx, soldOut, c); !errors.Is(err, cart.ErrOutOfStock) {
		t.Fatalf("err = %v, want ErrOutOfStock", err)
	}
	if !s.Contains(soldOut.ID) {
		t.Errorf("entry dropped after rejected move")
	}
}

func TestMoveToCart_Unknown(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.MoveToCart(context.Background(), cart.Product{ID: "nope"}, cart.NewStore(nil)); !errors.Is(err, cart.ErrItemNotFound) {
		t.Fatalf("err = %v", err)
	}
}
