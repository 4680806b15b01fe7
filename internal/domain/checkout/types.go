package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"carecart/internal/domain/cart"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrStepIncomplete     = errors.New("current step is incomplete")
	ErrFinalStep          = errors.New("review is the final step, submit the order instead")
	ErrNotAtReview        = errors.New("order can only be submitted from the review step")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrCheckoutClosed     = errors.New("checkout already submitted")
	ErrNoAddressSelected  = errors.New("no address selected")
	ErrStaleResponse      = errors.New("selection changed while the request was in flight")
	ErrUnknownSlot        = errors.New("unknown delivery slot")
	ErrInvalidPayment     = errors.New("unsupported payment method")
	ErrInvalidCoupon      = errors.New("coupon code is required")
	ErrNotesTooLong       = errors.New("notes are too long")
)

// SubmissionError is returned when the order collaborator rejects or fails a
// submission. The cart is left untouched and the submission may be retried.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

type Address struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

type AddressFields struct {
	Label         string `json:"label" validate:"max=40"`
	RecipientName string `json:"recipient_name" validate:"required,max=80"`
	Phone         string `json:"phone" validate:"required,indianphone"`
	Line1         string `json:"line1" validate:"required,max=200"`
	Line2         string `json:"line2" validate:"max=200"`
	City          string `json:"city" validate:"required,max=80"`
	State         string `json:"state" validate:"required,max=80"`
	PostalCode    string `json:"postal_code" validate:"required,numeric,len=6"`
	IsDefault     bool   `json:"is_default"`
}

type Slot struct {
	ID          string    `json:"id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// OrderItem is one cart line as sent with the order. The marketplace holds
// no copy of the cart, so the lines travel with the request.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPricePaise int64  `json:"unit_price_paise"`
}

type OrderRequest struct {
	AddressID      string        `json:"address_id"`
	DeliverySlotID string        `json:"delivery_slot_id,omitempty"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	CouponCode     string        `json:"coupon_code,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Items          []OrderItem   `json:"items,omitempty"`
}

func (r OrderRequest) equal(o OrderRequest) bool {
	return r.AddressID == o.AddressID &&
		r.DeliverySlotID == o.DeliverySlotID &&
		r.PaymentMethod == o.PaymentMethod &&
		r.CouponCode == o.CouponCode &&
		r.Notes == o.Notes &&
		slices.Equal(r.Items, o.Items)
}

func orderItems(c cart.Cart) []OrderItem {
	items := make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, OrderItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPricePaise: it.UnitPricePaise,
		})
	}
	return items
}

type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number,omitempty"`
	Status      string `json:"status,omitempty"`
	TotalPaise  int64  `json:"total_paise"`
}

type AddressService interface {
	ListAddresses(ctx context.Context) ([]Address, error)
	GetAddress(ctx context.Context, id string) (Address, error)
	CreateAddress(ctx context.Context, f AddressFields) (Address, error)
	UpdateAddress(ctx context.Context, id string, f AddressFields) (Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

type SlotService interface {
	ListSlots(ctx context.Context) ([]Slot, error)
}

// OrderService creates orders. idempotencyKey stays the same while an
// identical request is retried, so a retry cannot create a second order; it
// changes when the request itself changes.
type OrderService interface {
	CreateOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (Order, error)
}

// CouponService validates a coupon against a subtotal and returns the
// discount in paise.
type CouponService interface {
	ValidateCoupon(ctx context.Context, code string, subtotalPaise int64) (int64, error)
}

// Collaborators groups the backend services a session depends on. Coupons is
// optional.
type Collaborators struct {
	Addresses AddressService
	Slots     SlotService
	Orders    OrderService
	Coupons   CouponService
}
