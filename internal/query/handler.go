package query

import (
	"context"
	"sort"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Handler builds read models from the stores. Nothing here writes.
type Handler struct {
	userSvc    *user.Service
	productSvc *product.Service
	reviewSvc  *review.Service
	cartSvc    *cart.Service
	orderSvc   *order.Service
}

func NewHandler(
	userSvc *user.Service,
	productSvc *product.Service,
	reviewSvc *review.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
) *Handler {
	return &Handler{
		userSvc:    userSvc,
		productSvc: productSvc,
		reviewSvc:  reviewSvc,
		cartSvc:    cartSvc,
		orderSvc:   orderSvc,
	}
}

// Products
func (h *Handler) ListProducts(ctx context.Context) ([]ProductReadModel, error) {
	products, err := h.productSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	return toProductReadModels(products), nil
}

func (h *Handler) SearchProducts(ctx context.Context, term, category string) ([]ProductReadModel, error) {
	products, err := h.productSvc.Search(ctx, term, category)
	if err != nil {
		return nil, err
	}
	return toProductReadModels(products), nil
}

func (h *Handler) Categories(ctx context.Context) ([]string, error) {
	return h.productSvc.Categories(ctx)
}

// GetProduct returns the product with its reviews, newest first.
func (h *Handler) GetProduct(ctx context.Context, id string) (*ProductDetailReadModel, bool, error) {
	p, ok, err := h.productSvc.Get(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	reviews, err := h.reviewSvc.ByProduct(ctx, id)
	if err != nil {
		return nil, false, err
	}
	names, err := h.usernames(ctx)
	if err != nil {
		return nil, false, err
	}

	detail := &ProductDetailReadModel{
		ProductReadModel: toProductReadModel(*p),
		Reviews:          make([]ReviewReadModel, 0, len(reviews)),
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, ReviewReadModel{
			ID:        r.ID,
			UserID:    r.UserID,
			Username:  names[r.UserID],
			Rating:    r.Rating,
			Comment:   r.Comment,
			Timestamp: r.Timestamp.Format(time.RFC3339),
		})
	}
	return detail, true, nil
}

// TopSelling ranks catalog products by units across every stored order.
// Lines are grouped by product id, so a reused id inherits the lines of the
// product it replaced. Products no longer in the catalog are left out.
func (h *Handler) TopSelling(ctx context.Context, n int) ([]ProductSalesReadModel, error) {
	orders, err := h.orderSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := h.productSvc.List(ctx)
	if err != nil {
		return nil, err
	}

	sold := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
		}
	}

	out := make([]ProductSalesReadModel, 0, len(sold))
	for _, p := range products {
		if qty, ok := sold[p.ID]; ok {
			out = append(out, ProductSalesReadModel{
				ProductID: p.ID,
				Name:      p.Name,
				Category:  p.Category,
				TotalSold: qty,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSold > out[j].TotalSold
	})
	return limit(out, n), nil
}

// TopRated ranks rated products by average, then by number of ratings.
func (h *Handler) TopRated(ctx context.Context, n int) ([]ProductReadModel, error) {
	products, err := h.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductReadModel, 0, len(products))
	for _, p := range products {
		if p.RatingCount > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		return out[i].RatingCount > out[j].RatingCount
	})
	return limit(out, n), nil
}

// Cart
func (h *Handler) GetCart(ctx context.Context, userID string) (*CartReadModel, error) {
	items, err := h.cartSvc.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartReadModel{
		UserID: userID,
		Items:  make([]CartItemReadModel, 0, len(items)),
		Total:  cart.Total(items),
	}
	for _, it := range items {
		view.Items = append(view.Items, CartItemReadModel{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal(),
		})
		view.TotalItems += it.Quantity
	}
	return view, nil
}

// Orders
func (h *Handler) GetOrder(ctx context.Context, id string) (*order.Order, bool, error) {
	return h.orderSvc.Get(ctx, id)
}

// ListOrdersByUser returns the user's orders, newest first.
func (h *Handler) ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	orders, err := h.orderSvc.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

// ListAllOrders returns all orders (for admin use), newest first.
func (h *Handler) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	orders, err := h.orderSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func (h *Handler) PendingReviewCount(ctx context.Context) (int, error) {
	return h.orderSvc.PendingReviewCount(ctx)
}

// Notifications returns the user's inbox, newest first.
func (h *Handler) Notifications(ctx context.Context, userID string) (*NotificationsReadModel, error) {
	notifications, err := h.orderSvc.NotificationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &NotificationsReadModel{Notifications: make([]NotificationReadModel, 0, len(notifications))}
	for _, n := range notifications {
		if !n.Read {
			view.UnreadCount++
		}
		view.Notifications = append(view.Notifications, NotificationReadModel{
			ID:             n.ID,
			Message:        n.Message,
			Type:           string(n.Type),
			Read:           n.Read,
			Timestamp:      n.Timestamp.Format(time.RFC3339),
			RelatedOrderID: n.RelatedOrderID,
		})
	}
	return view, nil
}

// Users
func (h *Handler) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := h.userSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]user.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (h *Handler) ReviewsByUser(ctx context.Context, userID string) ([]review.Review, error) {
	return h.reviewSvc.ByUser(ctx, userID)
}

// Dashboard summarises the store for admins. Revenue counts every order
// that was not cancelled.
func (h *Handler) Dashboard(ctx context.Context) (*DashboardReadModel, error) {
	orders, err := h.orderSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := h.userSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := h.productSvc.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &DashboardReadModel{
		TotalOrders:    len(orders),
		TotalUsers:     len(users),
		TotalProducts:  len(products),
		Revenue:        decimal.Zero,
		OrdersByStatus: make(map[string]int),
	}
	for _, o := range orders {
		d.OrdersByStatus[string(o.Status)]++
		if o.PendingReview() {
			d.PendingReviewCount++
		}
		if o.Status != order.StatusCancelled {
			d.Revenue = d.Revenue.Add(o.Total)
		}
	}
	return d, nil
}

func (h *Handler) usernames(ctx context.Context) (map[string]string, error) {
	users, err := h.userSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func toProductReadModel(p product.Product) ProductReadModel {
	return ProductReadModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Category:      p.Category,
		Image:         p.Image,
		RatingSum:     p.RatingSum,
		RatingCount:   p.RatingCount,
		AverageRating: p.AverageRating(),
		PurchaseCount: p.PurchaseCount,
	}
}

func toProductReadModels(products []product.Product) []ProductReadModel {
	out := make([]ProductReadModel, 0, len(products))
	for _, p := range products {
		out = append(out, toProductReadModel(p))
	}
	return out
}

func newestFirst(orders []order.Order) {
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
