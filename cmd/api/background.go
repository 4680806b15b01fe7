package main

import (
	"time"
)

type sweeper interface {
	Sweep() int
}

// sweepIdleEvery evicts idle shoppers and expired rate limiter windows.
func (app *application) sweepIdleEvery(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run once immediately
		app.sweep()

		for range ticker.C {
			app.sweep()
		}
	}()
}

func (app *application) sweep() {
	if n := app.shoppers.Sweep(); n > 0 {
		app.logger.Infow("evicted idle shoppers", "count", n, "remaining", app.shoppers.Len())
	}

	if s, ok := app.rateLimiter.(sweeper); ok {
		s.Sweep()
	}
}
