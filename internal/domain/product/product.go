package product

import (
	"errors"
	"strings"

	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

const AggregateType = "Product"

// ProductsKey is the storage key of the catalog.
const ProductsKey = "ecommerceProducts"

var (
	ErrInvalidName  = errors.New("name is required")
	ErrInvalidPrice = errors.New("price must be positive")
	ErrInvalidStock = errors.New("stock cannot be negative")
)

// Product is a catalog entry. The counters hold the stored baseline plus
// every counter event recorded since; AverageRating is derived from them
// and never stored.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category"`
	Image         string          `json:"image"`
	RatingSum     int             `json:"ratingSum"`
	RatingCount   int             `json:"ratingCount"`
	PurchaseCount int             `json:"purchaseCount"`
}

func (p Product) AverageRating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}

// Validate rejects stored records without identity or with negative
// counters. Catalog rules on price and stock are checked on write only.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.RatingSum < 0 || p.RatingCount < 0 || p.PurchaseCount < 0 {
		return errors.New("product counters cannot be negative")
	}
	return nil
}

func (p Product) validateCatalog() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

type counters struct {
	ratingSum     int
	ratingCount   int
	purchaseCount int
}

// ApplyEvent folds one counter event into c.
func (c *counters) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductRated:
		var data ProductRated
		if err := event.Decode(&data); err != nil {
			return err
		}
		c.ratingSum += data.Rating
		c.ratingCount++
	case EventProductPurchased:
		var data ProductPurchased
		if err := event.Decode(&data); err != nil {
			return err
		}
		c.purchaseCount += data.Quantity
	case EventProductDeleted:
		*c = counters{}
	}
	return nil
}

func (p *Product) apply(c counters) {
	p.RatingSum += c.ratingSum
	p.RatingCount += c.ratingCount
	p.PurchaseCount += c.purchaseCount
}
