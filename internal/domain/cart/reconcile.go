package cart

import (
	"context"
	"errors"
	"fmt"
)

// ReconcileReport lists the product ids affected by a Reconcile pass.
type ReconcileReport struct {
	Removed  []string `json:"removed"`
	Repriced []string `json:"repriced"`
	Clamped  []string `json:"clamped"`
}

func (r ReconcileReport) Changed() bool {
	return len(r.Removed) > 0 || len(r.Repriced) > 0 || len(r.Clamped) > 0
}

// Reconcile re-validates every line against the catalog. Lines whose product
// is gone or out of stock are removed, prices and snapshots are refreshed,
// and quantities are clamped to the current stock. Any catalog error other
// than ErrProductNotFound aborts the pass and leaves the cart untouched.
func (s *Store) Reconcile(ctx context.Context, catalog Catalog) (Cart, ReconcileReport, error) {
	var report ReconcileReport

	current := s.Snapshot()
	if current.IsEmpty() {
		return current, report, nil
	}

	latest := make(map[string]*Product, len(current.Items))
	for _, it := range current.Items {
		p, err := catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				latest[it.ProductID] = nil
				continue
			}
			return current, report, fmt.Errorf("reconcile %s: %w", it.ProductID, err)
		}
		latest[it.ProductID] = &p
	}

	next, err := s.mutate(ctx, func(items []Item) ([]Item, bool, error) {
		report = ReconcileReport{}
		kept := items[:0]

		for _, it := range items {
			p, seen := latest[it.ProductID]
			if !seen {
				// added after the catalog round trip
				kept = append(kept, it)
				continue
			}
			if p == nil || p.StockQuantity <= 0 {
				report.Removed = append(report.Removed, it.ProductID)
				continue
			}

			if p.UnitPricePaise != it.UnitPricePaise || p.MaxRetailPricePaise != it.Snapshot.MaxRetailPricePaise {
				report.Repriced = append(report.Repriced, it.ProductID)
			}

			thumb := it.Snapshot.ThumbnailURL
			it.Snapshot = s.snapshotOf(*p)
			if it.Snapshot.ThumbnailURL == "" {
				it.Snapshot.ThumbnailURL = thumb
			}
			it.UnitPricePaise = p.UnitPricePaise

			if q := clampToStock(it.Quantity, p.StockQuantity); q != it.Quantity {
				report.Clamped = append(report.Clamped, it.ProductID)
				it.Quantity = q
			}

			kept = append(kept, it)
		}

		return kept, true, nil
	})
	if err != nil {
		return next, ReconcileReport{}, err
	}
	return next, report, nil
}
