package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"
)

func (c *Client) GetProduct(ctx context.Context, id string) (cart.Product, error) {
	var p cart.Product
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p, nil)
	if errors.Is(err, ErrNotFound) {
		return cart.Product{}, fmt.Errorf("product %s: %w", id, cart.ErrProductNotFound)
	}
	if err != nil {
		return cart.Product{}, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

func (c *Client) ListAddresses(ctx context.Context) ([]checkout.Address, error) {
	var out []checkout.Address
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAddress(ctx context.Context, id string) (checkout.Address, error) {
	var a checkout.Address
	err := c.do(ctx, http.MethodGet, "/addresses/"+url.PathEscape(id), nil, &a, nil)
	return a, err
}

func (c *Client) CreateAddress(ctx context.Context, f checkout.AddressFields) (checkout.Address, error) {
	var a checkout.Address
	err := c.do(ctx, http.MethodPost, "/addresses", f, &a, nil)
	return a, err
}

func (c *Client) UpdateAddress(ctx context.Context, id string, f checkout.AddressFields) (checkout.Address, error) {
	var a checkout.Address
	err := c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(id), f, &a, nil)
	return a, err
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListSlots(ctx context.Context) ([]checkout.Slot, error) {
	var out []checkout.Slot
	if err := c.do(ctx, http.MethodGet, "/delivery/slots", nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder posts the order, cart lines included, with an Idempotency-Key
// header so a retried submission resolves to the same order.
func (c *Client) CreateOrder(ctx context.Context, req checkout.OrderRequest, idempotencyKey string) (checkout.Order, error) {
	var o checkout.Order
	h := http.Header{}
	if idempotencyKey != "" {
		h.Set("Idempotency-Key", idempotencyKey)
	}
	err := c.do(ctx, http.MethodPost, "/orders", req, &o, h)
	return o, err
}

func (c *Client) ValidateCoupon(ctx context.Context, code string, subtotalPaise int64) (int64, error) {
	in := struct {
		Code          string `json:"code"`
		SubtotalPaise int64  `json:"subtotal_paise"`
	}{code, subtotalPaise}

	var out struct {
		Valid         bool   `json:"valid"`
		DiscountPaise int64  `json:"discount_paise"`
		Message       string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/coupons/validate", in, &out, nil); err != nil {
		return 0, err
	}
	if !out.Valid {
		msg := out.Message
		if msg == "" {
			msg = "coupon is not valid"
		}
		return 0, &APIError{Status: http.StatusUnprocessableEntity, Message: msg}
	}
	return out.DiscountPaise, nil
}

// Collaborators returns c as the full set of checkout collaborators.
func (c *Client) Collaborators() checkout.Collaborators {
	return checkout.Collaborators{Addresses: c, Slots: c, Orders: c, Coupons: c}
}
