package product

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

// Input holds the catalog fields of a new product.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
}

// UpdateInput holds the fields to change; nil fields keep their value.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
	Image       *string
}

type Service struct {
	mu         sync.Mutex
	products   *kv.Collection[Product]
	eventStore store.EventStoreInterface
}

// NewService creates a product service. seed supplies the catalog used
// while ecommerceProducts has never been written; it may be nil.
func NewService(st kv.Store, es store.EventStoreInterface, seed func() []Product) *Service {
	return &Service{
		products:   kv.NewCollection(st, ProductsKey, seed),
		eventStore: es,
	}
}

// List returns the catalog with counters brought up to date.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.products.Load(ctx)
	if err != nil {
		return nil, err
	}
	tallies, err := s.tallies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].apply(tallies[products[i].ID])
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, bool, error) {
	products, err := s.products.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return nil, false, nil
	}

	events, err := s.eventStore.GetEvents(ctx, AggregateType, id)
	if err != nil {
		return nil, false, err
	}
	var c counters
	for _, e := range events {
		if err := c.ApplyEvent(e); err != nil {
			log.Printf("[Product] Skipping event %s: %v", e.ID, err)
		}
	}
	p := products[idx]
	p.apply(c)
	return &p, true, nil
}

// Add creates a product with the next numeric id and zeroed counters.
func (s *Service) Add(ctx context.Context, in Input) (*Product, error) {
	p := Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		Image:       in.Image,
	}
	if err := p.validateCatalog(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.ID = nextID(products)
	if err := s.products.Save(ctx, append(products, p)); err != nil {
		return nil, err
	}
	log.Printf("[Product] Added %s (%s)", p.Name, p.ID)
	return &p, nil
}

// Update merges the non-nil fields of in into the product. A missing id is a
// no-op. Counters cannot be changed here.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.Load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return nil
	}

	p := products[idx]
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if err := p.validateCatalog(); err != nil {
		return err
	}

	products[idx] = p
	return s.products.Save(ctx, products)
}

// Delete removes the product. Orders keep their own copy of name and price,
// so nothing else changes. A missing id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.Load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return nil
	}

	products = append(products[:idx], products[idx+1:]...)
	if err := s.products.Save(ctx, products); err != nil {
		return err
	}
	if _, err := s.eventStore.Append(ctx, id, AggregateType, EventProductDeleted, ProductDeleted{
		ProductID: id,
		DeletedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	log.Printf("[Product] Deleted %s", id)
	return nil
}

// AddRating records one rating. The range is not checked here; callers
// validate it. A missing product is a no-op.
func (s *Service) AddRating(ctx context.Context, productID string, rating int) error {
	ok, err := s.exists(ctx, productID)
	if err != nil || !ok {
		return err
	}
	_, err = s.eventStore.Append(ctx, productID, AggregateType, EventProductRated, ProductRated{
		ProductID: productID,
		Rating:    rating,
		RatedAt:   time.Now().UTC(),
	})
	return err
}

// IncrementPurchaseCount records quantity units sold. A missing product is
// a no-op.
func (s *Service) IncrementPurchaseCount(ctx context.Context, productID string, quantity int) error {
	ok, err := s.exists(ctx, productID)
	if err != nil || !ok {
		return err
	}
	_, err = s.eventStore.Append(ctx, productID, AggregateType, EventProductPurchased, ProductPurchased{
		ProductID:   productID,
		Quantity:    quantity,
		PurchasedAt: time.Now().UTC(),
	})
	return err
}

// Search matches term against name, description and category, case-insensitively,
// and restricts to category when it is set.
func (s *Service) Search(ctx context.Context, term, category string) ([]Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	category = strings.TrimSpace(category)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Categories returns the distinct categories in use, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.products.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) exists(ctx context.Context, id string) (bool, error) {
	products, err := s.products.Load(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(products, id) >= 0, nil
}

func (s *Service) tallies(ctx context.Context) (map[string]counters, error) {
	events, err := s.eventStore.GetEventsByType(ctx, AggregateType)
	if err != nil {
		return nil, err
	}
	out := make(map[string]counters)
	for _, e := range events {
		c := out[e.AggregateID]
		if err := c.ApplyEvent(e); err != nil {
			log.Printf("[Product] Skipping event %s: %v", e.ID, err)
			continue
		}
		out[e.AggregateID] = c
	}
	return out, nil
}

func indexOf(products []Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextID returns one more than the largest numeric id. Ids that are not
// numbers count as zero.
func nextID(products []Product) string {
	maxID := 0
	for _, p := range products {
		if n, err := strconv.Atoi(p.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}
