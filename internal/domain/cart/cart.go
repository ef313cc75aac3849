package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/shopspring/decimal"
)

// CartKey is the storage key of the guest cart. Carts of logged-in users
// live under CartKey + ":" + userID.
const CartKey = "ecommerceCart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("productId is required")
)

// Item is one cart line. Name and price are captured when the product is
// added and are what the order will charge.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i Item) Validate() error {
	if i.ProductID == "" {
		return ErrInvalidProduct
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func Key(userID string) string {
	if userID == "" {
		return CartKey
	}
	return CartKey + ":" + userID
}

type Service struct {
	mu    sync.Mutex
	store kv.Store
}

func NewService(st kv.Store) *Service {
	return &Service{store: st}
}

func (s *Service) cart(userID string) *kv.Collection[Item] {
	return kv.NewCollection[Item](s.store, Key(userID), nil)
}

func (s *Service) Items(ctx context.Context, userID string) ([]Item, error) {
	return s.cart(userID).Load(ctx)
}

// Add puts item in the cart, adding to the quantity of an existing line
// for the same product.
func (s *Service) Add(ctx context.Context, userID string, item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(userID)
	items, err := c.Load(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return c.Save(ctx, items)
		}
	}
	return c.Save(ctx, append(items, item))
}

// Remove drops the line for productID. A missing line is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(userID)
	items, err := c.Load(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return c.Save(ctx, kept)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(userID)
	items, err := c.Load(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return c.Save(ctx, items)
		}
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart(userID).Save(ctx, nil)
}

// TotalItems is the number of units across all lines.
func (s *Service) TotalItems(ctx context.Context, userID string) (int, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (s *Service) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return Total(items), nil
}

// Total sums price times quantity over items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
