package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"carecart/internal/domain/cart"
	"carecart/internal/domain/wishlist"
	"carecart/internal/params"

	"github.com/go-chi/chi/v5"
)

type AddWishlistPayload struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

type WishlistPage struct {
	Entries    []wishlist.Entry  `json:"entries"`
	Pagination params.Pagination `json:"pagination"`
}

type MoveToCartResponse struct {
	Cart     cart.Cart     `json:"cart"`
	Wishlist wishlist.List `json:"wishlist"`
}

// getWishlistHandler godoc
//
//	@Summary		List saved products
//	@Tags			wishlist
//	@Produce		json
//	@Param			page	query		int	false	"Page number (default 1)"
//	@Param			limit	query		int	false	"Page size (default 20, max 50)"
//	@Success		200		{object}	WishlistPage
//	@Security		ApiKeyAuth
//	@Router			/wishlist [get]
func (app *application) getWishlistHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	p := params.ParsePagination(r.URL.Query())
	entries := params.Slice(s.Wishlist.Items().Entries, &p)

	if err := app.jsonResponse(w, http.StatusOK, WishlistPage{Entries: entries, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addWishlistHandler godoc
//
//	@Summary		Save a product for later
//	@Description	Saving an already saved product is a no-op
//	@Tags			wishlist
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddWishlistPayload	true	"Product"
//	@Success		200		{object}	wishlist.List
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/wishlist [post]
func (app *application) addWishlistHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	var payload AddWishlistPayload
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

	list, err := s.Wishlist.Add(ctx, product)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removeWishlistHandler godoc
//
//	@Summary		Remove a saved product
//	@Tags			wishlist
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	wishlist.List
//	@Security		ApiKeyAuth
//	@Router			/wishlist/{productID} [delete]
func (app *application) removeWishlistHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := s.Wishlist.Remove(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// moveWishlistToCartHandler godoc
//
//	@Summary		Move a saved product into the cart
//	@Description	Looks the product up in the catalog, adds one unit to the cart at the current price and drops it from the wishlist. The wishlist is unchanged when the cart rejects the product.
//	@Tags			wishlist
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	MoveToCartResponse
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error	"Out of stock"
//	@Security		ApiKeyAuth
//	@Router			/wishlist/{productID}/move-to-cart [post]
func (app *application) moveWishlistToCartHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	productID := chi.URLParam(r, "productID")
	if !s.Wishlist.Contains(productID) {
		app.domainError(w, r, fmt.Errorf("wishlist: %w", cart.ErrItemNotFound), false)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// price and stock come from the catalog, not from when it was saved
	product, err := app.catalog.GetProduct(ctx, productID)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	c, err := s.Wishlist.MoveToCart(ctx, product, s.Cart)
	if err != nil {
		app.domainError(w, r, err, false)
		return
	}

	resp := MoveToCartResponse{Cart: c, Wishlist: s.Wishlist.Items()}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
