package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"

	"github.com/go-chi/chi/v5"
)

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg, "status": status})
}

type marketplace struct {
	lastAuth        string
	lastIdempotency string
	lastOrder       checkout.OrderRequest
	orderStatus     int
}

func (m *marketplace) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.lastAuth = r.Header.Get("Authorization")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "paracetamol" {
			writeErr(w, http.StatusNotFound, "product not found")
			return
		}
		writeData(w, http.StatusOK, cart.Product{ID: "paracetamol", Name: "Paracetamol 500mg", UnitPricePaise: 30_00, StockQuantity: 12})
	})
	r.Get("/addresses", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []checkout.Address{{ID: "a1", City: "Pune", IsDefault: true}})
	})
	r.Get("/addresses/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, checkout.Address{ID: chi.URLParam(r, "id"), City: "Pune"})
	})
	r.Post("/addresses", func(w http.ResponseWriter, r *http.Request) {
		var f checkout.AddressFields
		_ = json.NewDecoder(r.Body).Decode(&f)
		writeData(w, http.StatusCreated, checkout.Address{ID: "a2", City: f.City})
	})
	r.Delete("/addresses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/delivery/slots", func(w http.ResponseWriter, r *http.Request) {
		start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
		writeData(w, http.StatusOK, []checkout.Slot{{ID: "s1", WindowStart: start, WindowEnd: start.Add(3 * time.Hour)}})
	})
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		m.lastIdempotency = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&m.lastOrder)
		if m.orderStatus != 0 {
			writeErr(w, m.orderStatus, "Selected slot is no longer available")
			return
		}
		writeData(w, http.StatusCreated, checkout.Order{ID: 501, OrderNumber: "CC-0501", Status: "pending", TotalPaise: 240_00})
	})
	r.Post("/coupons/validate", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Code != "SAVE10" {
			writeData(w, http.StatusOK, map[string]any{"valid": false, "message": "Coupon has expired"})
			return
		}
		writeData(w, http.StatusOK, map[string]any{"valid": true, "discount_paise": 20_00})
	})
	return r
}

func newTestClient(t *testing.T) (*Client, *marketplace) {
	t.Helper()
	m := &marketplace{}
	srv := httptest.NewServer(m.routes())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second), m
}

func TestGetProduct(t *testing.T) {
	c, m := newTestClient(t)
	ctx := WithToken(context.Background(), "tok-123")

	p, err := c.GetProduct(ctx, "paracetamol")
	if err != nil {
		t.Fatal(err)
	}
	if p.UnitPricePaise != 30_00 || p.StockQuantity != 12 {
		t.Errorf("product = %+v", p)
	}
	if m.lastAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q", m.lastAuth)
	}

	_, err = c.GetProduct(ctx, "discontinued")
	if !errors.Is(err, cart.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestAddresses(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	list, err := c.ListAddresses(ctx)
	if err != nil || len(list) != 1 || !list[0].IsDefault {
		t.Fatalf("list = %+v, %v", list, err)
	}

	a, err := c.GetAddress(ctx, "a1")
	if err != nil || a.ID != "a1" {
		t.Errorf("get = %+v, %v", a, err)
	}

	created, err := c.CreateAddress(ctx, checkout.AddressFields{City: "Nagpur"})
	if err != nil || created.City != "Nagpur" {
		t.Errorf("create = %+v, %v", created, err)
	}

	if err := c.DeleteAddress(ctx, "a1"); err != nil {
		t.Errorf("delete: %v", err)
	}

	// no PUT route: chi answers 405
	var apiErr *APIError
	if _, err := c.UpdateAddress(ctx, "a1", checkout.AddressFields{}); !errors.As(err, &apiErr) || apiErr.Status != http.StatusMethodNotAllowed {
		t.Errorf("update err = %v", err)
	}
}

func TestListSlots(t *testing.T) {
	c, _ := newTestClient(t)
	slots, err := c.ListSlots(context.Background())
	if err != nil || len(slots) != 1 {
		t.Fatalf("slots = %+v, %v", slots, err)
	}
	if slots[0].WindowEnd.Sub(slots[0].WindowStart) != 3*time.Hour {
		t.Errorf("window = %+v", slots[0])
	}
}

func TestCreateOrder(t *testing.T) {
	c, m := newTestClient(t)
	req := checkout.OrderRequest{
		AddressID:     "a1",
		PaymentMethod: checkout.PaymentUPI,
		Notes:         "ring twice",
		Items:         []checkout.OrderItem{{ProductID: "p1", Quantity: 2, UnitPricePaise: 100_00}},
	}

	o, err := c.CreateOrder(context.Background(), req, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != 501 || m.lastIdempotency != "key-1" || m.lastOrder.Notes != "ring twice" {
		t.Errorf("order = %+v, key = %q, req = %+v", o, m.lastIdempotency, m.lastOrder)
	}
	if len(m.lastOrder.Items) != 1 || m.lastOrder.Items[0] != req.Items[0] {
		t.Errorf("items on the wire = %+v", m.lastOrder.Items)
	}

	m.orderStatus = http.StatusConflict
	_, err = c.CreateOrder(context.Background(), req, "key-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "Selected slot is no longer available" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestValidateCoupon(t *testing.T) {
	c, _ := newTestClient(t)

	d, err := c.ValidateCoupon(context.Background(), "SAVE10", 200_00)
	if err != nil || d != 20_00 {
		t.Errorf("discount = %d, %v", d, err)
	}

	_, err = c.ValidateCoupon(context.Background(), "OLD", 200_00)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Coupon has expired" {
		t.Errorf("err = %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"message":"Address not serviceable"}`, "Address not serviceable"},
		{`{"error":"bad token"}`, "bad token"},
		{`upstream timeout`, "upstream timeout"},
		{`<html>502</html>`, "Bad Gateway"},
		{``, "Bad Gateway"},
	}
	for _, tt := range tests {
		if got := errorMessage(http.StatusBadGateway, []byte(tt.raw)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
