package product

import "time"

// Counter events. Product counters are never written back to the catalog
// record; a read adds these events on top of the stored baseline.
const (
	EventProductRated     = "ProductRated"
	EventProductPurchased = "ProductPurchased"
	EventProductDeleted   = "ProductDeleted"
)

type ProductRated struct {
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	RatedAt   time.Time `json:"rated_at"`
}

type ProductPurchased struct {
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// ProductDeleted resets the counters accumulated so far, so a later product
// that reuses the id starts from zero.
type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
