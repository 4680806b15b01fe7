package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type AddCartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Qty       int    `json:"qty" validate:"required,min=1,max=100"`
}

type UpdateCartItemPayload struct {
	Qty *int `json:"qty" validate:"required,min=0,max=100"`
}

// getCartHandler godoc
//
//	@Summary		Get the cart
//	@Description	Returns the shopper's cart with derived totals in paise
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	cart.Cart
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, s.Cart.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// clearCartHandler godoc
//
//	@Summary		Clear the cart
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	cart.Cart
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := s.Cart.Clear(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addCartItemHandler godoc
//
//	@Summary		Add a product to the cart
//	@Description	Looks the product up in the catalog and merges qty units into the cart. The quantity is capped at the available stock.
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddCartItemPayload	true	"Product and quantity"
//	@Success		200		{object}	cart.Cart
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error	"Product not found"
//	@Failure		409		{object}	error	"Out of stock"
//	@Failure		502		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	var payload AddCartItemPayload
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

	product, err := app.catalog.GetProduct(ctx, payload.ProductID)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	c, err := s.Cart.AddItem(ctx, product, payload.Qty)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateCartItemHandler godoc
//
//	@Summary		Change a line's quantity
//	@Description	qty 0 removes the line
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			lineID	path		string					true	"Cart line ID"
//	@Param			payload	body		UpdateCartItemPayload	true	"New quantity"
//	@Success		200		{object}	cart.Cart
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{lineID} [patch]
func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)
	lineID := chi.URLParam(r, "lineID")

	var payload UpdateCartItemPayload
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

	c, err := s.Cart.UpdateQuantity(ctx, lineID, *payload.Qty)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removeCartItemHandler godoc
//
//	@Summary		Remove a line from the cart
//	@Tags			cart
//	@Produce		json
//	@Param			lineID	path		string	true	"Cart line ID"
//	@Success		200		{object}	cart.Cart
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{lineID} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := s.Cart.RemoveItem(ctx, chi.URLParam(r, "lineID"))
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}
