package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carecart/internal/domain/cart"
)

var errBackendDown = errors.New("backend unavailable")

type fakeAddresses struct {
	mu      sync.Mutex
	byID    map[string]Address
	order   []string
	listErr error
	getErr  error
	// gates blocks GetAddress for an id until the channel is closed
	gates   map[string]chan struct{}
	waiting chan string
}

func newFakeAddresses(addrs ...Address) *fakeAddresses {
	f := &fakeAddresses{
		byID:    map[string]Address{},
		gates:   map[string]chan struct{}{},
		waiting: make(chan string, 8),
	}
	for _, a := range addrs {
		f.byID[a.ID] = a
		f.order = append(f.order, a.ID)
	}
	return f
}

func (f *fakeAddresses) ListAddresses(context.Context) ([]Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Address, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.byID[id])
	}
	return out, nil
}

func (f *fakeAddresses) GetAddress(_ context.Context, id string) (Address, error) {
	f.mu.Lock()
	gate := f.gates[id]
	getErr := f.getErr
	f.mu.Unlock()

	if gate != nil {
		f.waiting <- id
		<-gate
	}
	if getErr != nil {
		return Address{}, getErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return Address{}, fmt.Errorf("address %s: not found", id)
	}
	return a, nil
}

func (f *fakeAddresses) CreateAddress(_ context.Context, fields AddressFields) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("addr-%d", len(f.order)+1)
	a := Address{ID: id, Label: fields.Label, RecipientName: fields.RecipientName, City: fields.City, IsDefault: fields.IsDefault}
	f.byID[id] = a
	f.order = append(f.order, id)
	return a, nil
}

func (f *fakeAddresses) UpdateAddress(_ context.Context, id string, fields AddressFields) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return Address{}, errors.New("not found")
	}
	a.City = fields.City
	a.RecipientName = fields.RecipientName
	f.byID[id] = a
	return a, nil
}

func (f *fakeAddresses) DeleteAddress(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeSlots struct {
	slots []Slot
	err   error
}

func (f *fakeSlots) ListSlots(context.Context) ([]Slot, error) {
	return f.slots, f.err
}

type fakeOrders struct {
	mu       sync.Mutex
	calls    []OrderRequest
	keys     []string
	err      error
	started  chan struct{}
	release  chan struct{}
	ctxAlive bool
}

func (f *fakeOrders) CreateOrder(ctx context.Context, req OrderRequest, key string) (Order, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, key)
	f.ctxAlive = ctx.Err() == nil
	if f.err != nil {
		return Order{}, f.err
	}
	return Order{ID: int64(1000 + len(f.calls)), OrderNumber: "CC-TEST", Status: "pending"}, nil
}

type fakeCoupons struct {
	discount int64
	err      error
}

func (f fakeCoupons) ValidateCoupon(context.Context, string, int64) (int64, error) {
	return f.discount, f.err
}

var (
	homeAddress   = Address{ID: "home", Label: "Home", RecipientName: "Asha", City: "Pune", IsDefault: true}
	officeAddress = Address{ID: "office", Label: "Office", RecipientName: "Asha", City: "Mumbai"}
	morningSlot   = Slot{ID: "slot-am", WindowStart: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), WindowEnd: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}
)

type fixture struct {
	cart      *cart.Store
	addresses *fakeAddresses
	slots     *fakeSlots
	orders    *fakeOrders
}

func newFixture() *fixture {
	return &fixture{
		cart:      cart.NewStore(nil),
		addresses: newFakeAddresses(homeAddress, officeAddress),
		slots:     &fakeSlots{slots: []Slot{morningSlot}},
		orders:    &fakeOrders{},
	}
}

func (f *fixture) collaborators() Collaborators {
	return Collaborators{Addresses: f.addresses, Slots: f.slots, Orders: f.orders}
}

func (f *fixture) fillCart() {
	_, _ = f.cart.AddItem(context.Background(), cart.Product{
		ID:                  "paracetamol",
		Name:                "Paracetamol 500mg",
		UnitPricePaise:      100_00,
		MaxRetailPricePaise: 120_00,
		StockQuantity:       20,
	}, 2)
}
