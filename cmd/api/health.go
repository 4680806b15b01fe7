package main

import (
	"context"
	"net/http"
	"time"
)

// healthCheckHandler godoc
//
//	@Summary		Health check
//	@Description	Reports service status, version and whether shopper state is persisted to Postgres
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	error
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"env":     app.config.env,
		"version": version,
		"storage": "memory",
	}

	if app.storage != nil && app.storage.Persistent() {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		data["storage"] = "postgres"
		if err := app.storage.Ping(ctx); err != nil {
			app.logger.Errorw("health check: database unreachable", "error", err)
			writeJSONError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
