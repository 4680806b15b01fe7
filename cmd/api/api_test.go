package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"carecart/internal/auth"
	"carecart/internal/backend"
	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"
	"carecart/internal/domain/storage"
	"carecart/internal/notifications"
	"carecart/internal/ratelimiter"
	"carecart/internal/shopper"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeCatalog map[string]cart.Product

func (c fakeCatalog) GetProduct(_ context.Context, id string) (cart.Product, error) {
	p, ok := c[id]
	if !ok {
		return cart.Product{}, fmt.Errorf("product %s: %w", id, cart.ErrProductNotFound)
	}
	return p, nil
}

type fakeMarketplace struct {
	mu        sync.Mutex
	addresses []checkout.Address
	slots     []checkout.Slot
	orderErr  error
	orders    []checkout.OrderRequest
	keys      []string
}

func (m *fakeMarketplace) ListAddresses(context.Context) ([]checkout.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]checkout.Address(nil), m.addresses...), nil
}

func (m *fakeMarketplace) GetAddress(_ context.Context, id string) (checkout.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return checkout.Address{}, &backend.APIError{Status: http.StatusNotFound, Message: "address not found"}
}

func (m *fakeMarketplace) CreateAddress(_ context.Context, f checkout.AddressFields) (checkout.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := checkout.Address{ID: fmt.Sprintf("addr-%d", len(m.addresses)+1), RecipientName: f.RecipientName, City: f.City, IsDefault: f.IsDefault}
	m.addresses = append(m.addresses, a)
	return a, nil
}

func (m *fakeMarketplace) UpdateAddress(ctx context.Context, id string, _ checkout.AddressFields) (checkout.Address, error) {
	return m.GetAddress(ctx, id)
}

func (m *fakeMarketplace) DeleteAddress(context.Context, string) error { return nil }

func (m *fakeMarketplace) ListSlots(context.Context) ([]checkout.Slot, error) {
	return m.slots, nil
}

func (m *fakeMarketplace) CreateOrder(_ context.Context, req checkout.OrderRequest, key string) (checkout.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, req)
	m.keys = append(m.keys, key)
	if m.orderErr != nil {
		return checkout.Order{}, m.orderErr
	}
	return checkout.Order{ID: 42, OrderNumber: "CC-0042", Status: "pending", TotalPaise: 240_00}, nil
}

type recordingNotifier struct {
	placed chan notifications.OrderPlaced
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, ev notifications.OrderPlaced) {
	n.placed <- ev
}

type testApp struct {
	app         *application
	handler     http.Handler
	market      *fakeMarketplace
	notifier    *recordingNotifier
	token       string
	authn       *auth.JWTAuthenticator
	basicHeader string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := zap.NewNop().Sugar()
	catalog := fakeCatalog{
		"paracetamol": {ID: "paracetamol", Name: "Paracetamol 500mg", UnitPricePaise: 100_00, MaxRetailPricePaise: 120_00, StockQuantity: 20},
		"vit-c":       {ID: "vit-c", Name: "Vitamin C", UnitPricePaise: 150_00, StockQuantity: 5},
		"cough-syrup": {ID: "cough-syrup", Name: "Cough Syrup", UnitPricePaise: 90_00, StockQuantity: 0},
	}
	market := &fakeMarketplace{
		addresses: []checkout.Address{
			{ID: "home", Label: "Home", City: "Pune", IsDefault: true},
			{ID: "office", Label: "Office", City: "Mumbai"},
		},
		slots: []checkout.Slot{{ID: "slot-am", WindowStart: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), WindowEnd: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}},
	}

	store := storage.NewContainer(nil, "")
	codes, err := shopper.NewCodes("test-salt")
	if err != nil {
		t.Fatal(err)
	}
	authn := auth.NewJWTAuthenticator("test-secret", "carecart", "carecart")
	token, err := authn.GenerateToken("shopper-1", "asha@example.com")
	if err != nil {
		t.Fatal(err)
	}
	notifier := &recordingNotifier{placed: make(chan notifications.OrderPlaced, 1)}

	app := &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "ops", pass: "secret"},
			},
			checkout: checkoutConfig{taxPercent: decimal.NewFromInt(12)},
		},
		logger:        logger,
		storage:       store,
		shoppers:      shopper.NewRegistry(store.ClientState, logger, shopper.WithCatalog(catalog)),
		catalog:       catalog,
		collaborators: checkout.Collaborators{Addresses: market, Slots: market, Orders: market},
		codes:         codes,
		notifier:      notifier,
		authenticator: authn,
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
	}

	return &testApp{
		app:         app,
		handler:     app.mount(),
		market:      market,
		notifier:    notifier,
		token:       token,
		authn:       authn,
		basicHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte("ops:secret")),
	}
}

func (ta *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ta.doWithAuth(t, method, path, body, "Bearer "+ta.token)
}

func (ta *testApp) doWithAuth(t *testing.T, method, path string, body any, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env.Data
}

type errorBody struct {
	Message    string `json:"message"`
	Status     int    `json:"status"`
	Redirect   string `json:"redirect"`
	CanAdvance *bool  `json:"can_advance"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return e
}

type viewBody struct {
	Step       string `json:"step"`
	Phase      string `json:"phase"`
	CanAdvance bool   `json:"can_advance"`
	State      struct {
		SelectedAddressID string `json:"selected_address_id"`
		SelectedPayment   string `json:"selected_payment_method"`
	} `json:"state"`
	Summary *checkout.Summary `json:"summary"`
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func TestAuthTokenRequired(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Token abc"},
		{"bad signature", "Bearer eyJhbGciOiJIUzI1NiJ9.e30.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.doWithAuth(t, http.MethodGet, "/v1/cart", nil, tt.header)
			expectStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.doWithAuth(t, http.MethodGet, "/v1/health", nil, "")
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = ta.doWithAuth(t, http.MethodGet, "/v1/health", nil, ta.basicHeader)
	expectStatus(t, rr, http.StatusOK)
	data := decodeData[map[string]string](t, rr)
	if data["status"] != "ok" || data["storage"] != "memory" {
		t.Errorf("health = %v", data)
	}
}

func TestCartHandlers(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "paracetamol", Qty: 2})
	expectStatus(t, rr, http.StatusOK)
	c := decodeData[cart.Cart](t, rr)
	if len(c.Items) != 1 || c.Totals.SubtotalPaise != 200_00 || c.Totals.DeliveryFeePaise != cart.FlatDeliveryFeePaise {
		t.Fatalf("cart = %+v", c)
	}
	lineID := c.Items[0].ID

	qty := 30
	rr = ta.do(t, http.MethodPatch, "/v1/cart/items/"+lineID, UpdateCartItemPayload{Qty: &qty})
	expectStatus(t, rr, http.StatusBadRequest)

	qty = 6
	rr = ta.do(t, http.MethodPatch, "/v1/cart/items/"+lineID, UpdateCartItemPayload{Qty: &qty})
	expectStatus(t, rr, http.StatusOK)
	c = decodeData[cart.Cart](t, rr)
	if c.Totals.GrandTotalPaise != 600_00 || c.Totals.DeliveryFeePaise != 0 {
		t.Errorf("totals = %+v", c.Totals)
	}

	rr = ta.do(t, http.MethodPatch, "/v1/cart/items/missing", UpdateCartItemPayload{Qty: &qty})
	expectStatus(t, rr, http.StatusNotFound)

	rr = ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "cough-syrup", Qty: 1})
	expectStatus(t, rr, http.StatusConflict)

	rr = ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "unknown", Qty: 1})
	expectStatus(t, rr, http.StatusNotFound)

	rr = ta.do(t, http.MethodDelete, "/v1/cart/items/"+lineID, nil)
	expectStatus(t, rr, http.StatusOK)
	if c := decodeData[cart.Cart](t, rr); !c.IsEmpty() || c.Totals.GrandTotalPaise != 0 {
		t.Errorf("cart after remove = %+v", c)
	}
}

func TestCartSurvivesEviction(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "vit-c", Qty: 2})
	expectStatus(t, rr, http.StatusOK)

	// a fresh registry over the same store restores the cart
	ta.app.shoppers = shopper.NewRegistry(ta.app.storage.ClientState, ta.app.logger)
	rr = ta.do(t, http.MethodGet, "/v1/cart", nil)
	expectStatus(t, rr, http.StatusOK)
	if c := decodeData[cart.Cart](t, rr); c.Totals.ItemCount != 2 || c.Totals.SubtotalPaise != 300_00 {
		t.Errorf("restored cart = %+v", c)
	}
}

func TestWishlistHandlers(t *testing.T) {
	ta := newTestApp(t)

	for _, id := range []string{"paracetamol", "vit-c", "paracetamol"} {
		rr := ta.do(t, http.MethodPost, "/v1/wishlist", AddWishlistPayload{ProductID: id})
		expectStatus(t, rr, http.StatusOK)
	}

	rr := ta.do(t, http.MethodGet, "/v1/wishlist?page=1&limit=1", nil)
	expectStatus(t, rr, http.StatusOK)
	page := decodeData[WishlistPage](t, rr)
	if len(page.Entries) != 1 || page.Pagination.Total != 2 || !page.Pagination.HasNext {
		t.Fatalf("page = %+v", page)
	}

	// repriced after it was saved
	catalog := ta.app.catalog.(fakeCatalog)
	vitC := catalog["vit-c"]
	vitC.UnitPricePaise = 160_00
	catalog["vit-c"] = vitC

	rr = ta.do(t, http.MethodPost, "/v1/wishlist/vit-c/move-to-cart", nil)
	expectStatus(t, rr, http.StatusOK)
	moved := decodeData[MoveToCartResponse](t, rr)
	if len(moved.Cart.Items) != 1 || len(moved.Wishlist.Entries) != 1 {
		t.Fatalf("moved = %+v", moved)
	}
	if got := moved.Cart.Items[0].UnitPricePaise; got != 160_00 {
		t.Errorf("moved line price = %d, want current catalog price 16000", got)
	}

	rr = ta.do(t, http.MethodPost, "/v1/wishlist/vit-c/move-to-cart", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = ta.do(t, http.MethodDelete, "/v1/wishlist/paracetamol", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestCheckout_EmptyCartRedirects(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodPost, "/v1/checkout", nil)
	expectStatus(t, rr, http.StatusConflict)
	if e := decodeError(t, rr); e.Redirect != "/cart" {
		t.Errorf("redirect = %q", e.Redirect)
	}

	rr = ta.do(t, http.MethodGet, "/v1/checkout", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestCheckout_NextRejectedWhileIncomplete(t *testing.T) {
	ta := newTestApp(t)
	ta.market.addresses = nil

	expectStatus(t, ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "paracetamol", Qty: 1}), http.StatusOK)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout", nil), http.StatusOK)

	rr := ta.do(t, http.MethodPost, "/v1/checkout/next", nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	e := decodeError(t, rr)
	if e.CanAdvance == nil || *e.CanAdvance {
		t.Errorf("can_advance = %v", e.CanAdvance)
	}

	rr = ta.do(t, http.MethodPost, "/v1/checkout/back", nil)
	expectStatus(t, rr, http.StatusOK)
	if v := decodeData[viewBody](t, rr); v.Step != "address" {
		t.Errorf("step = %q", v.Step)
	}
}

// walkToReview fills the cart and moves an open checkout to the review step
// with terms accepted.
func walkToReview(t *testing.T, ta *testApp) {
	t.Helper()

	expectStatus(t, ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "paracetamol", Qty: 2}), http.StatusOK)

	rr := ta.do(t, http.MethodPost, "/v1/checkout", nil)
	expectStatus(t, rr, http.StatusOK)
	if v := decodeData[viewBody](t, rr); v.State.SelectedAddressID != "home" || !v.CanAdvance {
		t.Fatalf("begin view = %+v", v)
	}

	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout/next", nil), http.StatusOK)

	expectStatus(t, ta.do(t, http.MethodGet, "/v1/checkout/slots", nil), http.StatusOK)
	expectStatus(t, ta.do(t, http.MethodPut, "/v1/checkout/slot", SelectSlotPayload{SlotID: "slot-am"}), http.StatusOK)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout/next", nil), http.StatusOK)

	expectStatus(t, ta.do(t, http.MethodPut, "/v1/checkout/payment", SelectPaymentPayload{Method: "bitcoin"}), http.StatusUnprocessableEntity)
	expectStatus(t, ta.do(t, http.MethodPut, "/v1/checkout/payment", SelectPaymentPayload{Method: checkout.PaymentUPI}), http.StatusOK)

	rr = ta.do(t, http.MethodPost, "/v1/checkout/next", nil)
	expectStatus(t, rr, http.StatusOK)
	if v := decodeData[viewBody](t, rr); v.Step != "review" || v.CanAdvance {
		t.Fatalf("review view = %+v", v)
	}

	accepted := true
	expectStatus(t, ta.do(t, http.MethodPut, "/v1/checkout/terms", TermsPayload{Accepted: &accepted}), http.StatusOK)
}

func TestCheckout_SubmitSuccess(t *testing.T) {
	ta := newTestApp(t)
	walkToReview(t, ta)

	rr := ta.do(t, http.MethodGet, "/v1/checkout", nil)
	expectStatus(t, rr, http.StatusOK)
	v := decodeData[viewBody](t, rr)
	if v.Summary == nil || !v.Summary.AddressResolved || v.Summary.AdvisoryTaxPaise != 24_00 || v.Summary.EstimatedTotalPaise != 264_00 {
		t.Fatalf("summary = %+v", v.Summary)
	}

	rr = ta.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	expectStatus(t, rr, http.StatusCreated)
	resp := decodeData[SubmitResponse](t, rr)
	if resp.OrderID != 42 || resp.ConfirmationCode == "" || resp.Redirect != "/orders/confirmation/"+resp.ConfirmationCode {
		t.Errorf("submit = %+v", resp)
	}
	if id, err := ta.app.codes.Decode(resp.ConfirmationCode); err != nil || id != 42 {
		t.Errorf("decode code = %d, %v", id, err)
	}

	req := ta.market.orders[0]
	if req.AddressID != "home" || req.DeliverySlotID != "slot-am" || req.PaymentMethod != checkout.PaymentUPI {
		t.Errorf("order request = %+v", req)
	}

	select {
	case ev := <-ta.notifier.placed:
		if ev.ShopperID != "shopper-1" || ev.Email != "asha@example.com" || ev.ConfirmationCode != resp.ConfirmationCode {
			t.Errorf("notification = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("order notification not sent")
	}

	rr = ta.do(t, http.MethodGet, "/v1/cart", nil)
	if c := decodeData[cart.Cart](t, rr); !c.IsEmpty() {
		t.Errorf("cart not cleared: %+v", c)
	}

	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout/submit", nil), http.StatusConflict)

	rr = ta.do(t, http.MethodPost, "/v1/checkout", nil)
	expectStatus(t, rr, http.StatusConflict)
	if e := decodeError(t, rr); e.Redirect != "/cart" {
		t.Errorf("redirect = %q", e.Redirect)
	}
}

func TestCheckout_SubmitFailureKeepsCart(t *testing.T) {
	ta := newTestApp(t)
	walkToReview(t, ta)
	ta.market.orderErr = &backend.APIError{Status: http.StatusConflict, Message: "Selected slot is no longer available"}

	rr := ta.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	expectStatus(t, rr, http.StatusBadGateway)
	if e := decodeError(t, rr); e.Message != "Selected slot is no longer available" {
		t.Errorf("message = %q", e.Message)
	}

	rr = ta.do(t, http.MethodGet, "/v1/cart", nil)
	if c := decodeData[cart.Cart](t, rr); c.Totals.ItemCount != 2 {
		t.Errorf("cart changed: %+v", c)
	}

	ta.market.orderErr = nil
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout/submit", nil), http.StatusCreated)
	if len(ta.market.keys) != 2 || ta.market.keys[0] != ta.market.keys[1] {
		t.Errorf("idempotency keys = %v", ta.market.keys)
	}
}

func TestCheckout_AddressErrors(t *testing.T) {
	ta := newTestApp(t)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "paracetamol", Qty: 1}), http.StatusOK)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout", nil), http.StatusOK)

	rr := ta.do(t, http.MethodPut, "/v1/checkout/address", SelectAddressPayload{AddressID: "gone"})
	expectStatus(t, rr, http.StatusNotFound)

	rr = ta.do(t, http.MethodPost, "/v1/checkout/addresses", checkout.AddressFields{
		RecipientName: "Asha", Phone: "12345", Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001",
	})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ta.do(t, http.MethodPost, "/v1/checkout/addresses", checkout.AddressFields{
		RecipientName: "Asha", Phone: "9876543210", Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001",
	})
	expectStatus(t, rr, http.StatusCreated)
}

func TestCheckout_AbandonAndForget(t *testing.T) {
	ta := newTestApp(t)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/cart/items", AddCartItemPayload{ProductID: "paracetamol", Qty: 1}), http.StatusOK)
	expectStatus(t, ta.do(t, http.MethodPost, "/v1/checkout", nil), http.StatusOK)

	expectStatus(t, ta.do(t, http.MethodDelete, "/v1/checkout", nil), http.StatusNoContent)
	expectStatus(t, ta.do(t, http.MethodGet, "/v1/checkout", nil), http.StatusNotFound)

	expectStatus(t, ta.do(t, http.MethodDelete, "/v1/me/state", nil), http.StatusNoContent)
	rr := ta.do(t, http.MethodGet, "/v1/cart", nil)
	if c := decodeData[cart.Cart](t, rr); !c.IsEmpty() {
		t.Errorf("cart after forget = %+v", c)
	}
}

func TestRegisterDevice(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodPost, "/v1/devices", RegisterDevicePayload{PushToken: "not-a-token"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ta.do(t, http.MethodPost, "/v1/devices", RegisterDevicePayload{PushToken: "ExponentPushToken[abc123]"})
	expectStatus(t, rr, http.StatusNoContent)

	tokens, err := ta.app.shoppers.PushTokens(context.Background(), "shopper-1")
	if err != nil || len(tokens) != 1 {
		t.Errorf("tokens = %v, %v", tokens, err)
	}
}

func TestRateLimiter(t *testing.T) {
	ta := newTestApp(t)
	ta.app.config.rateLimiter = ratelimiter.Config{Enabled: true, RequestsPerTimeFrame: 1, TimeFrame: time.Minute}
	ta.app.rateLimiter = ratelimiter.NewFixedWindowLimiter(1, time.Minute)

	expectStatus(t, ta.do(t, http.MethodGet, "/v1/cart", nil), http.StatusOK)

	rr := ta.do(t, http.MethodGet, "/v1/cart", nil)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	other, _ := ta.authn.GenerateToken("shopper-2", "")
	expectStatus(t, ta.doWithAuth(t, http.MethodGet, "/v1/cart", nil, "Bearer "+other), http.StatusOK)
}

func TestDomainErrorMapping(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusConflict},
		{"in flight", checkout.ErrSubmissionInFlight, http.StatusConflict},
		{"incomplete", checkout.ErrStepIncomplete, http.StatusUnprocessableEntity},
		{"unknown slot", checkout.ErrUnknownSlot, http.StatusUnprocessableEntity},
		{"bad quantity", cart.ErrInvalidQuantity, http.StatusBadRequest},
		{"line missing", cart.ErrItemNotFound, http.StatusNotFound},
		{"submission", &checkout.SubmissionError{Err: errors.New("boom")}, http.StatusBadGateway},
		{"upstream 404", &backend.APIError{Status: 404, Message: "gone"}, http.StatusNotFound},
		{"upstream 422", &backend.APIError{Status: 422, Message: "Coupon has expired"}, http.StatusUnprocessableEntity},
		{"upstream 503", &backend.APIError{Status: 503, Message: "down"}, http.StatusBadGateway},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ta.app.domainError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, false)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
