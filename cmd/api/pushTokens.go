package main

import (
	"context"
	"net/http"
	"time"
)

// RegisterDevicePayload carries the Expo push token of the shopper's device.
type RegisterDevicePayload struct {
	PushToken string `json:"push_token" validate:"required,max=255"`
}

// registerDeviceHandler godoc
//
//	@Summary		Register a device for push notifications
//	@Description	Stores an Expo push token used for order updates. Registering a known token is a no-op.
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	RegisterDevicePayload	true	"Push token"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/devices [post]
func (app *application) registerDeviceHandler(w http.ResponseWriter, r *http.Request) {
	s := getShopperFromContext(r)

	var payload RegisterDevicePayload
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

	if err := app.shoppers.RegisterPushToken(ctx, s.ID, payload.PushToken); err != nil {
		app.domainError(w, r, err, false)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
