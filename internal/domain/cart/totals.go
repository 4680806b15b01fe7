package cart

// DeliveryFee returns the fee charged for a non-empty cart with the given
// subtotal.
func DeliveryFee(subtotalPaise int64) int64 {
	if subtotalPaise >= FreeDeliveryThresholdPaise {
		return 0
	}
	return FlatDeliveryFeePaise
}

// Build returns a Cart whose line totals and cart totals are recomputed from
// scratch. The input slice is not modified.
func Build(items []Item) Cart {
	c := Cart{Items: cloneItems(items)}

	for i := range c.Items {
		it := &c.Items[i]
		it.LineTotalPaise = int64(it.Quantity) * it.UnitPricePaise

		c.Totals.ItemCount += it.Quantity
		c.Totals.SubtotalPaise += it.LineTotalPaise

		// unit price is already the selling price, so the saving is display only
		if saving := it.Snapshot.MaxRetailPricePaise - it.UnitPricePaise; saving > 0 {
			c.Totals.DiscountDisplayPaise += saving * int64(it.Quantity)
		}
	}

	// an empty cart carries no fee; zero-priced lines still do
	if len(c.Items) > 0 {
		c.Totals.DeliveryFeePaise = DeliveryFee(c.Totals.SubtotalPaise)
	}
	c.Totals.GrandTotalPaise = c.Totals.SubtotalPaise + c.Totals.DeliveryFeePaise
	return c
}
