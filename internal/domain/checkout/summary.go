package checkout

import (
	"context"
	"errors"

	"carecart/internal/domain/cart"

	"github.com/shopspring/decimal"
)

// Summary is the review-step breakdown. Tax and EstimatedTotal are advisory:
// the charged amount is whatever the order collaborator persists.
type Summary struct {
	Cart                cart.Totals   `json:"cart"`
	CouponCode          string        `json:"coupon_code,omitempty"`
	CouponDiscountPaise int64         `json:"coupon_discount_paise"`
	TaxPercent          string        `json:"tax_percent"`
	AdvisoryTaxPaise    int64         `json:"advisory_tax_paise"`
	EstimatedTotalPaise int64         `json:"estimated_total_paise"`
	Address             *Address      `json:"address,omitempty"`
	AddressResolved     bool          `json:"address_resolved"`
	Slot                *Slot         `json:"delivery_slot,omitempty"`
	PaymentMethod       PaymentMethod `json:"payment_method,omitempty"`
	Advisory            bool          `json:"advisory"`
}

// AdvisoryTax returns pct percent of subtotal rounded to the nearest paisa.
func AdvisoryTax(subtotalPaise int64, pct decimal.Decimal) int64 {
	if subtotalPaise <= 0 || !pct.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(subtotalPaise).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Review builds the summary shown on the review step. It tries to resolve the
// selected address; a failed or stale resolution leaves AddressResolved false
// so the caller can retry, but never fails the summary itself.
func (s *Session) Review(ctx context.Context) Summary {
	if _, err := s.ResolveAddress(ctx); err != nil && !errors.Is(err, ErrNoAddressSelected) {
		s.logger.Debugw("review without resolved address", "error", err)
	}

	totals := s.cart.Snapshot().Totals

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Cart:                totals,
		CouponCode:          s.state.CouponCode,
		CouponDiscountPaise: min(s.state.CouponDiscountPaise, totals.SubtotalPaise),
		TaxPercent:          s.taxPercent.String(),
		AdvisoryTaxPaise:    AdvisoryTax(totals.SubtotalPaise, s.taxPercent),
		PaymentMethod:       s.state.SelectedPayment,
		Advisory:            true,
	}
	sum.EstimatedTotalPaise = max(totals.GrandTotalPaise-sum.CouponDiscountPaise, 0) + sum.AdvisoryTaxPaise

	if s.state.SelectedSlot != nil {
		slot := *s.state.SelectedSlot
		sum.Slot = &slot
	}
	if s.resolved != nil && s.resolved.ID == s.state.SelectedAddressID {
		a := *s.resolved
		sum.Address = &a
		sum.AddressResolved = true
	}
	return sum
}
