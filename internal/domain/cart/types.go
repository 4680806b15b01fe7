package cart

import (
	"context"
	"errors"
)

// Delivery pricing, in paise.
const (
	FreeDeliveryThresholdPaise int64 = 500_00
	FlatDeliveryFeePaise       int64 = 40_00
)

var (
	ErrInvalidProduct  = errors.New("product id is required")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrItemNotFound    = errors.New("item not found")
	ErrProductNotFound = errors.New("product not found")
)

// Product is the catalog shape the cart snapshots from.
type Product struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Brand                string `json:"brand"`
	UnitPricePaise       int64  `json:"unit_price_paise"`
	MaxRetailPricePaise  int64  `json:"max_retail_price_paise"`
	StockQuantity        int    `json:"stock_quantity"`
	PrescriptionRequired bool   `json:"prescription_required"`
	ImagePublicID        string `json:"image_public_id,omitempty"`
}

// ProductSnapshot is the denormalized product data captured into a line.
type ProductSnapshot struct {
	Name                 string `json:"name"`
	Brand                string `json:"brand"`
	UnitPricePaise       int64  `json:"unit_price_paise"`
	MaxRetailPricePaise  int64  `json:"max_retail_price_paise"`
	StockQuantity        int    `json:"stock_quantity"`
	PrescriptionRequired bool   `json:"prescription_required"`
	ThumbnailURL         string `json:"thumbnail_url,omitempty"`
}

type Item struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Snapshot       ProductSnapshot `json:"product_snapshot"`
	Quantity       int             `json:"quantity"`
	UnitPricePaise int64           `json:"unit_price_paise"`
	LineTotalPaise int64           `json:"line_total_paise"`
}

type Totals struct {
	ItemCount            int   `json:"total_item_count"`
	SubtotalPaise        int64 `json:"subtotal_paise"`
	DiscountDisplayPaise int64 `json:"discount_display_paise"`
	DeliveryFeePaise     int64 `json:"delivery_fee_paise"`
	GrandTotalPaise      int64 `json:"grand_total_paise"`
}

// Cart is an immutable view of the store contents. Totals are always derived
// from Items by Build.
type Cart struct {
	Items  []Item `json:"items"`
	Totals Totals `json:"totals"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) clone() Cart {
	return Cart{Items: cloneItems(c.Items), Totals: c.Totals}
}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return []Item{}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Persister flushes a cart snapshot to durable storage.
type Persister interface {
	Persist(ctx context.Context, c Cart) error
}

// Catalog resolves current product data. Implementations return an error
// wrapping ErrProductNotFound when the product no longer exists.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// ImageResolver turns a catalog image id into a display URL.
type ImageResolver interface {
	ThumbnailURL(publicID string) string
}
