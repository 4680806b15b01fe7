package checkout

import (
	"context"
	"fmt"
)

// AddressBook is the address selector of a session. It manages the shopper's
// saved addresses through the address collaborator and writes selections into
// the session.
type AddressBook struct {
	s *Session
}

func (s *Session) Addresses() AddressBook {
	return AddressBook{s: s}
}

// List returns the saved addresses. With nothing selected yet, the default
// address (if any) is preselected. On failure the selection is untouched.
func (b AddressBook) List(ctx context.Context) ([]Address, error) {
	list, err := b.s.deps.Addresses.ListAddresses(ctx)
	if err != nil {
		b.s.logger.Warnw("list addresses failed", "error", err)
		return nil, err
	}

	if def, ok := pickFallback(list); ok && def.IsDefault {
		_, _ = b.s.selectIfEmpty(def.ID)
	}
	return list, nil
}

func (b AddressBook) Select(ctx context.Context, id string) (Address, error) {
	if id == "" {
		return Address{}, ErrNoAddressSelected
	}
	if _, err := b.s.SelectAddress(id); err != nil {
		return Address{}, err
	}
	return b.s.ResolveAddress(ctx)
}

// Create saves a new address. It becomes the selection when nothing is
// selected yet.
func (b AddressBook) Create(ctx context.Context, f AddressFields) (Address, error) {
	addr, err := b.s.deps.Addresses.CreateAddress(ctx, f)
	if err != nil {
		b.s.logger.Warnw("create address failed", "error", err)
		return Address{}, err
	}

	if _, err := b.s.selectIfEmpty(addr.ID); err != nil {
		return addr, err
	}
	return addr, nil
}

// Update edits a saved address. When it is the selected one, the cached
// resolution is dropped so the review step shows the new fields.
func (b AddressBook) Update(ctx context.Context, id string, f AddressFields) (Address, error) {
	addr, err := b.s.deps.Addresses.UpdateAddress(ctx, id, f)
	if err != nil {
		b.s.logger.Warnw("update address failed", "address_id", id, "error", err)
		return Address{}, err
	}

	b.s.mu.Lock()
	if b.s.state.SelectedAddressID == id {
		b.s.addressGen++
		b.s.resolved = nil
	}
	b.s.mu.Unlock()
	return addr, nil
}

// Delete removes a saved address. Deleting the selected address falls back to
// the default among the remaining ones, then to the first remaining one, and
// clears the selection when none are left.
func (b AddressBook) Delete(ctx context.Context, id string) error {
	if err := b.s.deps.Addresses.DeleteAddress(ctx, id); err != nil {
		b.s.logger.Warnw("delete address failed", "address_id", id, "error", err)
		return err
	}

	if b.s.View().State.SelectedAddressID != id {
		return nil
	}

	remaining, err := b.s.deps.Addresses.ListAddresses(ctx)
	if err != nil {
		b.s.logger.Warnw("list addresses after delete failed", "address_id", id, "error", err)
		_, _ = b.s.SelectAddress("")
		return nil
	}

	next := ""
	if fb, ok := pickFallback(without(remaining, id)); ok {
		next = fb.ID
	}
	if _, err := b.s.SelectAddress(next); err != nil {
		return fmt.Errorf("reselect address: %w", err)
	}
	return nil
}

// selectIfEmpty selects id only when no address is selected, checking and
// setting under one lock so a concurrent selection is never overwritten.
func (s *Session) selectIfEmpty(id string) (View, error) {
	return s.update(func(st *State) error {
		if st.SelectedAddressID != "" {
			return nil
		}
		s.addressGen++
		s.resolved = nil
		st.SelectedAddressID = id
		return nil
	})
}

func pickFallback(list []Address) (Address, bool) {
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Address{}, false
}

func without(list []Address, id string) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// SlotPicker lists delivery slots and records the selection.
type SlotPicker struct {
	s *Session
}

func (s *Session) Slots() SlotPicker {
	return SlotPicker{s: s}
}

// List fetches the available slots and remembers them for Select. On failure
// the previous listing and selection are kept.
func (p SlotPicker) List(ctx context.Context) ([]Slot, error) {
	slots, err := p.s.deps.Slots.ListSlots(ctx)
	if err != nil {
		p.s.logger.Warnw("list delivery slots failed", "error", err)
		return nil, err
	}

	p.s.mu.Lock()
	p.s.slots = append([]Slot(nil), slots...)
	p.s.mu.Unlock()
	return slots, nil
}

func (p SlotPicker) Select(slotID string) (View, error) {
	return p.s.SelectSlot(slotID)
}

func (p SlotPicker) Clear() (View, error) {
	return p.s.ClearSlot()
}

// PaymentPicker exposes the static payment method enumeration.
type PaymentPicker struct {
	s *Session
}

func (s *Session) Payments() PaymentPicker {
	return PaymentPicker{s: s}
}

func (PaymentPicker) Methods() []PaymentMethod {
	return append([]PaymentMethod(nil), PaymentMethods...)
}

func (p PaymentPicker) Select(m PaymentMethod) (View, error) {
	return p.s.SelectPayment(m)
}
