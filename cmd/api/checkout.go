package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"carecart/internal/domain/checkout"
	"carecart/internal/notifications"

	"github.com/go-chi/chi/v5"
)

type CheckoutResponse struct {
	checkout.View
	Summary *checkout.Summary `json:"summary,omitempty"`
}

type SelectAddressPayload struct {
	AddressID string `json:"address_id" validate:"required,max=64"`
}

type AddressResponse struct {
	Address checkout.Address `json:"address"`
	View    checkout.View    `json:"checkout"`
}

type AddressListResponse struct {
	Addresses []checkout.Address `json:"addresses"`
	View      checkout.View      `json:"checkout"`
}

type SlotListResponse struct {
	Slots []checkout.Slot `json:"slots"`
	View  checkout.View   `json:"checkout"`
}

type SelectSlotPayload struct {
	SlotID string `json:"slot_id" validate:"required,max=64"`
}

type SelectPaymentPayload struct {
	Method checkout.PaymentMethod `json:"method" validate:"required"`
}

type CouponPayload struct {
	Code string `json:"code" validate:"required,max=32"`
}

type NotesPayload struct {
	Notes string `json:"notes"`
}

type TermsPayload struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type SubmitResponse struct {
	OrderID          int64  `json:"order_id"`
	OrderNumber      string `json:"order_number,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	Redirect         string `json:"redirect"`
}

func (app *application) sessionOptions(shopperID string) []checkout.Option {
	return []checkout.Option{
		checkout.WithTaxPercent(app.config.checkout.taxPercent),
		checkout.WithLogger(app.logger.With("shopper_id", shopperID)),
	}
}

// beginCheckoutHandler godoc
//
//	@Summary		Enter checkout
//	@Description	Starts a checkout session, or resumes the open one. The default address is preselected when the address book can be listed. An empty cart is rejected with redirect "/cart".
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	CheckoutResponse
//	@Failure		409	{object}	error	"Cart is empty"
//	@Security		ApiKeyAuth
//	@Router			/checkout [post]
func (app *application) beginCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	sess, err := s.BeginCheckout(app.collaborators, app.sessionOptions(s.ID)...)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if sess.View().State.SelectedAddressID == "" {
		// preselection only; the address step lists again on failure
		if _, err := sess.Addresses().List(ctx); err != nil {
			app.logger.Warnw("preselect default address failed", "shopper_id", s.ID, "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, CheckoutResponse{View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCheckoutHandler godoc
//
//	@Summary		Get checkout state
//	@Description	Returns the stepper state together with the review summary. Tax and estimated total are advisory.
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	CheckoutResponse
//	@Failure		404	{object}	error	"No checkout in progress"
//	@Security		ApiKeyAuth
//	@Router			/checkout [get]
func (app *application) getCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary := sess.Review(ctx)
	if err := app.jsonResponse(w, http.StatusOK, CheckoutResponse{View: sess.View(), Summary: &summary}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// abandonCheckoutHandler godoc
//
//	@Summary		Leave checkout
//	@Tags			checkout
//	@Success		204
//	@Failure		409	{object}	error	"Submission in progress"
//	@Security		ApiKeyAuth
//	@Router			/checkout [delete]
func (app *application) abandonCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	if err := s.AbandonCheckout(); err != nil {
		app.domainError(w, r, err, false)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// nextStepHandler godoc
//
//	@Summary		Advance one step
//	@Description	Fails with 422 and can_advance=false while the current step is incomplete
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	checkout.View
//	@Failure		422	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/next [post]
func (app *application) nextStepHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	view, err := sess.Next()
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// backStepHandler godoc
//
//	@Summary		Go back one step
//	@Description	Always permitted; Address is the first step
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	checkout.View
//	@Security		ApiKeyAuth
//	@Router			/checkout/back [post]
func (app *application) backStepHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, sess.Back()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// selectAddressHandler godoc
//
//	@Summary		Select the delivery address
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SelectAddressPayload	true	"Address"
//	@Success		200		{object}	AddressResponse
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Selection changed meanwhile"
//	@Failure		502		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/address [put]
func (app *application) selectAddressHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload SelectAddressPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := sess.Addresses().Select(ctx, payload.AddressID)
	if err != nil {
		app.domainError(w, r, err, sess.View().CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, AddressResponse{Address: addr, View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listAddressesHandler godoc
//
//	@Summary		List saved addresses
//	@Description	Preselects the default address when nothing is selected yet
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	AddressListResponse
//	@Failure		502	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/addresses [get]
func (app *application) listAddressesHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := sess.Addresses().List(ctx)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, AddressListResponse{Addresses: list, View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createAddressHandler godoc
//
//	@Summary		Save a new address
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		checkout.AddressFields	true	"Address"
//	@Success		201		{object}	AddressResponse
//	@Failure		400		{object}	error
//	@Failure		502		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/addresses [post]
func (app *application) createAddressHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload checkout.AddressFields
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := sess.Addresses().Create(ctx, payload)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, AddressResponse{Address: addr, View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateAddressHandler godoc
//
//	@Summary		Edit a saved address
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			addressID	path		string					true	"Address ID"
//	@Param			payload		body		checkout.AddressFields	true	"Address"
//	@Success		200			{object}	AddressResponse
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/addresses/{addressID} [put]
func (app *application) updateAddressHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)
	addressID := chi.URLParam(r, "addressID")

	var payload checkout.AddressFields
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := sess.Addresses().Update(ctx, addressID, payload)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, AddressResponse{Address: addr, View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteAddressHandler godoc
//
//	@Summary		Delete a saved address
//	@Description	Deleting the selected address falls back to the default one, then to the first remaining one
//	@Tags			checkout
//	@Produce		json
//	@Param			addressID	path		string	true	"Address ID"
//	@Success		200			{object}	checkout.View
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/addresses/{addressID} [delete]
func (app *application) deleteAddressHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := sess.Addresses().Delete(ctx, chi.URLParam(r, "addressID")); err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.View()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listSlotsHandler godoc
//
//	@Summary		List delivery slots
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	SlotListResponse
//	@Failure		502	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/slots [get]
func (app *application) listSlotsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slots, err := sess.Slots().List(ctx)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, SlotListResponse{Slots: slots, View: sess.View()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// selectSlotHandler godoc
//
//	@Summary		Select a delivery slot
//	@Description	The slot must come from the last listing. Slot selection is optional.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SelectSlotPayload	true	"Slot"
//	@Success		200		{object}	checkout.View
//	@Failure		422		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/slot [put]
func (app *application) selectSlotHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload SelectSlotPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := sess.Slots().Select(payload.SlotID)
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// clearSlotHandler godoc
//
//	@Summary		Clear the delivery slot
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	checkout.View
//	@Security		ApiKeyAuth
//	@Router			/checkout/slot [delete]
func (app *application) clearSlotHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	view, err := sess.Slots().Clear()
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listPaymentMethodsHandler godoc
//
//	@Summary		List payment methods
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{array}	string
//	@Security		ApiKeyAuth
//	@Router			/checkout/payment-methods [get]
func (app *application) listPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, sess.Payments().Methods()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// selectPaymentHandler godoc
//
//	@Summary		Select the payment method
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SelectPaymentPayload	true	"Payment method"
//	@Success		200		{object}	checkout.View
//	@Failure		422		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout/payment [put]
func (app *application) selectPaymentHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload SelectPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := sess.Payments().Select(payload.Method)
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// applyCouponHandler godoc
//
//	@Summary		Apply a coupon
//	@Description	The discount shown on review is advisory; the marketplace applies the coupon when the order is placed
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CouponPayload	true	"Coupon"
//	@Success		200		{object}	checkout.View
//	@Failure		422		{object}	error	"Coupon rejected"
//	@Security		ApiKeyAuth
//	@Router			/checkout/coupon [put]
func (app *application) applyCouponHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload CouponPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := sess.ApplyCoupon(ctx, payload.Code)
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removeCouponHandler godoc
//
//	@Summary		Remove the coupon
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	checkout.View
//	@Security		ApiKeyAuth
//	@Router			/checkout/coupon [delete]
func (app *application) removeCouponHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	view, err := sess.RemoveCoupon()
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// setNotesHandler godoc
//
//	@Summary		Set delivery notes
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		NotesPayload	true	"Notes"
//	@Success		200		{object}	checkout.View
//	@Failure		422		{object}	error	"Notes too long"
//	@Security		ApiKeyAuth
//	@Router			/checkout/notes [put]
func (app *application) setNotesHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload NotesPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := sess.SetNotes(payload.Notes)
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// acceptTermsHandler godoc
//
//	@Summary		Accept or withdraw the terms
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		TermsPayload	true	"Terms"
//	@Success		200		{object}	checkout.View
//	@Security		ApiKeyAuth
//	@Router			/checkout/terms [put]
func (app *application) acceptTermsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getCheckoutFromContext(r)

	var payload TermsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := sess.AcceptTerms(*payload.Accepted)
	if err != nil {
		app.domainError(w, r, err, view.CanAdvance)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// submitOrderHandler godoc
//
//	@Summary		Place the order
//	@Description	Submits from the review step. On success the cart is cleared and the client is redirected to the order confirmation. On failure the cart is untouched and the submission can be retried.
//	@Tags			checkout
//	@Produce		json
//	@Success		201	{object}	SubmitResponse
//	@Failure		409	{object}	error	"Submission in progress or already submitted"
//	@Failure		422	{object}	error	"Checkout incomplete"
//	@Failure		502	{object}	error	"Order rejected by the marketplace"
//	@Security		ApiKeyAuth
//	@Router			/checkout/submit [post]
func (app *application) submitOrderHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)
	sess := getCheckoutFromContext(r)

	order, err := sess.Submit(r.Context())
	if err != nil {
		app.domainError(w, r, err, sess.View().CanAdvance)
		return
	}

	resp := SubmitResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Redirect:    "/orders/" + strconv.FormatInt(order.ID, 10),
	}
	if code, err := app.codes.Encode(order.ID); err != nil {
		app.logger.Warnw("confirmation code failed", "order_id", order.ID, "error", err)
	} else {
		resp.ConfirmationCode = code
		resp.Redirect = "/orders/confirmation/" + code
	}

	if app.notifier != nil {
		ev := notifications.OrderPlaced{
			ShopperID:        s.ID,
			Email:            s.Email(),
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			ConfirmationCode: resp.ConfirmationCode,
			TotalPaise:       order.TotalPaise,
		}
		ctx := context.WithoutCancel(r.Context())
		go func() {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			app.notifier.OrderPlaced(ctx, ev)
		}()
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
