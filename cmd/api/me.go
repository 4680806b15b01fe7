package main

import (
	"context"
	"net/http"
	"time"
)

// forgetShopperHandler godoc
//
//	@Summary		Erase stored shopper state
//	@Description	Deletes the persisted cart, wishlist and push tokens of the caller and drops any checkout in progress
//	@Tags			shopper
//	@Success		204
//	@Failure		409	{object}	error	"Submission in progress"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/state [delete]
func (app *application) forgetShopperHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	if err := s.AbandonCheckout(); err != nil {
		app.domainError(w, r, err, false)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := app.shoppers.Forget(ctx, s.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
