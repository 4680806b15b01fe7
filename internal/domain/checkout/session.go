package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"carecart/internal/domain/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxNotesLength = 500

// Phase is the lifecycle of a session around order submission.
type Phase string

const (
	PhaseOpen       Phase = "open"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
)

// Session orchestrates one checkout over a shopper's cart.
type Session struct {
	mu     sync.Mutex
	state  State
	phase  Phase
	cart   *cart.Store
	deps   Collaborators
	logger *zap.SugaredLogger

	taxPercent     decimal.Decimal
	idempotencyKey string
	// sent is the last request submitted under idempotencyKey.
	sent *OrderRequest

	// addressGen changes on every address selection so that late
	// responses for an older selection can be detected and dropped.
	addressGen uint64
	resolved   *Address
	slots      []Slot
	order      *Order
}

type Option func(*Session)

// WithTaxPercent sets the advisory tax rate shown on the review summary.
func WithTaxPercent(pct decimal.Decimal) Option {
	return func(s *Session) { s.taxPercent = pct }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) { s.logger = l }
}

// Begin opens a checkout session. Checkout cannot be entered with an empty
// cart.
func Begin(c *cart.Store, deps Collaborators, opts ...Option) (*Session, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	s := &Session{
		state:          NewState(),
		phase:          PhaseOpen,
		cart:           c,
		deps:           deps,
		logger:         zap.NewNop().Sugar(),
		taxPercent:     decimal.NewFromInt(5),
		idempotencyKey: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// View is a point-in-time copy of the session.
type View struct {
	State      State  `json:"state"`
	Step       string `json:"step"`
	Phase      Phase  `json:"phase"`
	CanAdvance bool   `json:"can_advance"`
	Order      *Order `json:"order,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		State:      s.state,
		Step:       s.state.CurrentStep.String(),
		Phase:      s.phase,
		CanAdvance: s.phase == PhaseOpen && CanAdvance(s.state),
	}
	if s.state.SelectedSlot != nil {
		slot := *s.state.SelectedSlot
		v.State.SelectedSlot = &slot
	}
	if s.order != nil {
		o := *s.order
		v.Order = &o
	}
	return v
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Next advances one step if the current step's guard holds.
func (s *Session) Next() (View, error) {
	return s.update(func(st *State) error {
		next, err := Advance(*st)
		if err != nil {
			return err
		}
		*st = next
		return nil
	})
}

// Back retreats one step. It never fails; once submission has started it is
// a no-op, so a failed submission still leaves the session at Review.
func (s *Session) Back() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseOpen {
		s.state = Back(s.state)
	}
	return s.viewLocked()
}

// SelectAddress records the chosen address. An empty id clears the
// selection. Any previously resolved address is discarded.
func (s *Session) SelectAddress(id string) (View, error) {
	return s.update(func(st *State) error {
		id = strings.TrimSpace(id)
		if st.SelectedAddressID != id {
			s.addressGen++
			s.resolved = nil
		}
		st.SelectedAddressID = id
		return nil
	})
}

// ResolveAddress fetches the selected address. The result is applied only if
// the selection did not change while the request was in flight; otherwise
// ErrStaleResponse is returned and the session is unchanged.
func (s *Session) ResolveAddress(ctx context.Context) (Address, error) {
	s.mu.Lock()
	id, gen := s.state.SelectedAddressID, s.addressGen
	if s.resolved != nil && s.resolved.ID == id {
		addr := *s.resolved
		s.mu.Unlock()
		return addr, nil
	}
	s.mu.Unlock()

	if id == "" {
		return Address{}, ErrNoAddressSelected
	}

	addr, err := s.deps.Addresses.GetAddress(ctx, id)
	if err != nil {
		s.logger.Warnw("resolve address failed", "address_id", id, "error", err)
		return Address{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.addressGen || s.state.SelectedAddressID != id {
		s.logger.Debugw("dropping stale address response", "address_id", id)
		return addr, ErrStaleResponse
	}
	s.resolved = &addr
	return addr, nil
}

// SelectSlot picks a slot from the last listing. Slot selection is
// optional; see ClearSlot.
func (s *Session) SelectSlot(slotID string) (View, error) {
	return s.update(func(st *State) error {
		for _, slot := range s.slots {
			if slot.ID == slotID {
				picked := slot
				st.SelectedSlot = &picked
				return nil
			}
		}
		return ErrUnknownSlot
	})
}

func (s *Session) ClearSlot() (View, error) {
	return s.update(func(st *State) error {
		st.SelectedSlot = nil
		return nil
	})
}

func (s *Session) SelectPayment(m PaymentMethod) (View, error) {
	return s.update(func(st *State) error {
		if !m.Valid() {
			return ErrInvalidPayment
		}
		st.SelectedPayment = m
		return nil
	})
}

// ApplyCoupon records a coupon code. When a coupon collaborator is configured
// the advisory discount comes from it; otherwise the code is forwarded with
// the order and no discount is shown.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (View, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return s.View(), ErrInvalidCoupon
	}

	var discount int64
	if s.deps.Coupons != nil {
		subtotal := s.cart.Snapshot().Totals.SubtotalPaise
		d, err := s.deps.Coupons.ValidateCoupon(ctx, code, subtotal)
		if err != nil {
			s.logger.Warnw("coupon validation failed", "coupon", code, "error", err)
			return s.View(), err
		}
		discount = min(max(d, 0), subtotal)
	}

	return s.update(func(st *State) error {
		st.CouponCode = code
		st.CouponDiscountPaise = discount
		return nil
	})
}

func (s *Session) RemoveCoupon() (View, error) {
	return s.update(func(st *State) error {
		st.CouponCode = ""
		st.CouponDiscountPaise = 0
		return nil
	})
}

func (s *Session) SetNotes(notes string) (View, error) {
	return s.update(func(st *State) error {
		notes = strings.TrimSpace(notes)
		if len([]rune(notes)) > maxNotesLength {
			return ErrNotesTooLong
		}
		st.Notes = notes
		return nil
	})
}

func (s *Session) AcceptTerms(accepted bool) (View, error) {
	return s.update(func(st *State) error {
		st.TermsAccepted = accepted
		return nil
	})
}

// Submit sends the order when the session is at Review and the submission
// guard holds. It is detached from ctx cancellation: a caller going away
// does not abort an order that is already on the wire. On success the cart
// is cleared and the session becomes terminal. On failure the session stays
// at Review with the cart untouched.
func (s *Session) Submit(ctx context.Context) (Order, error) {
	s.mu.Lock()
	switch {
	case s.phase == PhaseSubmitted:
		s.mu.Unlock()
		return Order{}, ErrCheckoutClosed
	case s.phase == PhaseSubmitting:
		s.mu.Unlock()
		return Order{}, ErrSubmissionInFlight
	case s.state.CurrentStep != StepReview:
		s.mu.Unlock()
		return Order{}, ErrNotAtReview
	case !CanAdvance(s.state):
		s.mu.Unlock()
		return Order{}, ErrStepIncomplete
	case s.cart.IsEmpty():
		s.mu.Unlock()
		return Order{}, ErrEmptyCart
	}

	req := OrderRequest{
		AddressID:     s.state.SelectedAddressID,
		PaymentMethod: s.state.SelectedPayment,
		CouponCode:    s.state.CouponCode,
		Notes:         s.state.Notes,
		Items:         orderItems(s.cart.Snapshot()),
	}
	if s.state.SelectedSlot != nil {
		req.DeliverySlotID = s.state.SelectedSlot.ID
	}
	// a changed request is a new order attempt and must not replay the
	// outcome recorded for the old key
	if s.sent != nil && !s.sent.equal(req) {
		s.idempotencyKey = uuid.NewString()
	}
	key := s.idempotencyKey
	sent := req
	s.sent = &sent
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	order, err := s.deps.Orders.CreateOrder(ctx, req, key)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseOpen
		s.mu.Unlock()

		s.logger.Errorw("order submission failed", "address_id", req.AddressID, "payment_method", req.PaymentMethod, "error", err)
		return Order{}, &SubmissionError{Err: err}
	}

	// the order exists, so the cart is emptied in memory even if the flush
	// fails; the next successful flush overwrites the stale record
	if err := s.cart.Reset(ctx); err != nil {
		s.logger.Errorw("persist empty cart after order failed", "order_id", order.ID, "error", err)
	}

	s.mu.Lock()
	s.phase = PhaseSubmitted
	s.order = &order
	s.mu.Unlock()

	s.logger.Infow("order submitted", "order_id", order.ID, "payment_method", req.PaymentMethod)
	return order, nil
}

// update applies fn to a copy of the state and commits it only if fn
// succeeds. Mutations are refused once submission has started.
func (s *Session) update(fn func(*State) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseSubmitted:
		return s.viewLocked(), ErrCheckoutClosed
	case PhaseSubmitting:
		return s.viewLocked(), ErrSubmissionInFlight
	}

	next := s.state
	if err := fn(&next); err != nil {
		return s.viewLocked(), err
	}
	s.state = next
	return s.viewLocked(), nil
}

// IsValidation reports whether err is a local validation failure rather than
// a collaborator failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrStepIncomplete) ||
		errors.Is(err, ErrFinalStep) ||
		errors.Is(err, ErrNotAtReview) ||
		errors.Is(err, ErrUnknownSlot) ||
		errors.Is(err, ErrInvalidPayment) ||
		errors.Is(err, ErrInvalidCoupon) ||
		errors.Is(err, ErrNotesTooLong) ||
		errors.Is(err, ErrNoAddressSelected)
}
