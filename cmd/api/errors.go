package main

import (
	"errors"
	"net/http"
	"net/url"

	"carecart/internal/backend"
	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"
	"carecart/internal/domain/wishlist"
	"carecart/internal/shopper"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

// conflictResponse optionally tells the client where to go instead, e.g.
// back to the cart when checkout is entered with an empty cart.
func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	type envelope struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Status   int    `json:"status"`
		Redirect string `json:"redirect,omitempty"`
	}
	writeJSON(w, http.StatusConflict, &envelope{
		Message:  err.Error(),
		Status:   http.StatusConflict,
		Redirect: redirect,
	})
}

func (app *application) unprocessableResponse(w http.ResponseWriter, r *http.Request, err error, canAdvance bool) {
	app.logger.Warnw("validation failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	type envelope struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		Status     int    `json:"status"`
		CanAdvance bool   `json:"can_advance"`
	}
	writeJSON(w, http.StatusUnprocessableEntity, &envelope{
		Message:    err.Error(),
		Status:     http.StatusUnprocessableEntity,
		CanAdvance: canAdvance,
	})
}

// badGatewayResponse reports a marketplace failure. message is shown to the
// shopper as is.
func (app *application) badGatewayResponse(w http.ResponseWriter, r *http.Request, err error, message string) {
	app.logger.Errorw("marketplace error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadGateway, message)
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// domainError maps cart, wishlist, checkout and marketplace errors onto
// responses. canAdvance is reported with validation failures.
func (app *application) domainError(w http.ResponseWriter, r *http.Request, err error, canAdvance bool) {
	var (
		apiErr *backend.APIError
		subErr *checkout.SubmissionError
		urlErr *url.Error
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		app.conflictResponse(w, r, err, "/cart")

	case errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, checkout.ErrCheckoutClosed),
		errors.Is(err, checkout.ErrStaleResponse):
		app.conflictResponse(w, r, err, "")

	case errors.Is(err, checkout.ErrStepIncomplete):
		app.unprocessableResponse(w, r, err, false)

	case checkout.IsValidation(err):
		app.unprocessableResponse(w, r, err, canAdvance)

	case errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, wishlist.ErrInvalidProduct),
		errors.Is(err, shopper.ErrInvalidPushToken):
		app.badRequestResponse(w, r, err)

	case errors.Is(err, cart.ErrOutOfStock):
		app.conflictResponse(w, r, err, "")

	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, errNoCheckout):
		app.notFoundResponse(w, r, err)

	case errors.As(err, &subErr):
		msg := "could not place the order, please try again"
		if errors.As(subErr.Err, &apiErr) {
			msg = apiErr.Message
		}
		app.badGatewayResponse(w, r, err, msg)

	case errors.As(err, &apiErr):
		switch {
		case apiErr.Status == http.StatusNotFound:
			app.notFoundResponse(w, r, errors.New(apiErr.Message))
		case apiErr.Status == http.StatusUnauthorized:
			app.unauthorizedErrorResponse(w, r, err)
		case apiErr.Status >= 400 && apiErr.Status < 500:
			app.unprocessableResponse(w, r, errors.New(apiErr.Message), canAdvance)
		default:
			app.badGatewayResponse(w, r, err, apiErr.Message)
		}

	case errors.As(err, &urlErr):
		app.badGatewayResponse(w, r, err, "marketplace unavailable, please try again")

	default:
		app.internalServerError(w, r, err)
	}
}
