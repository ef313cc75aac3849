package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/user"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrProductNotFound = errors.New("product not found")
)

// Handler runs storefront commands on behalf of the session's user.
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

// Register creates an account. The new user is not logged in.
func (h *Handler) Register(ctx context.Context, cmd Register) (*user.User, error) {
	u, err := h.userSvc.Register(ctx, user.RegisterInput{
		Username: cmd.Username,
		Password: cmd.Password,
		Phone:    cmd.Phone,
		Email:    cmd.Email,
		Address:  cmd.Address,
	})
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (h *Handler) Login(ctx context.Context, cmd Login) (*user.User, error) {
	u, err := h.userSvc.Login(ctx, cmd.Username, cmd.Password)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (h *Handler) Logout(ctx context.Context) error {
	return h.userSvc.Logout(ctx)
}

// UpdateUser lets users edit their own account and admins edit any account.
func (h *Handler) UpdateUser(ctx context.Context, cmd UpdateUser) error {
	actor, err := h.requireUser(ctx)
	if err != nil {
		return err
	}
	if cmd.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if cmd.Role != nil && !actor.IsAdmin() {
		return ErrForbidden
	}

	target, ok, err := h.userSvc.Get(ctx, cmd.UserID)
	if err != nil || !ok {
		return err
	}
	updated := *target
	updated.Password = ""
	if cmd.Username != nil {
		updated.Username = *cmd.Username
	}
	if cmd.Password != nil {
		updated.Password = *cmd.Password
	}
	if cmd.Phone != nil {
		updated.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		updated.Email = *cmd.Email
	}
	if cmd.Address != nil {
		updated.Address = *cmd.Address
	}
	if cmd.Role != nil {
		updated.Role = user.Role(*cmd.Role)
	}
	return h.userSvc.Update(ctx, updated)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *Handler) DeleteUser(ctx context.Context, cmd DeleteUser) error {
	actor, err := h.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if cmd.UserID == actor.ID {
		return fmt.Errorf("%w: cannot delete the account in use", ErrForbidden)
	}
	return h.userSvc.Delete(ctx, cmd.UserID)
}

func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	if _, err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return h.productSvc.Add(ctx, product.Input{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    cmd.Category,
		Image:       cmd.Image,
	})
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	return h.productSvc.Update(ctx, cmd.ProductID, product.UpdateInput{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    cmd.Category,
		Image:       cmd.Image,
	})
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// RateProduct stores the review and folds the rating into the product.
func (h *Handler) RateProduct(ctx context.Context, cmd RateProduct) (*review.Review, error) {
	if !review.ValidRating(cmd.Rating) {
		return nil, review.ErrInvalidRating
	}
	actor, err := h.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok, err := h.productSvc.Get(ctx, cmd.ProductID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProductNotFound
	}

	r, err := h.reviewSvc.AddReview(ctx, cmd.ProductID, actor.ID, cmd.Rating, cmd.Comment)
	if err != nil {
		return nil, err
	}
	if err := h.productSvc.AddRating(ctx, cmd.ProductID, cmd.Rating); err != nil {
		return nil, err
	}
	return r, nil
}

// AddToCart adds a product to the cart of the session's user, or to the
// guest cart when nobody is logged in. Name and price are taken from the
// catalog now.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	p, ok, err := h.productSvc.Get(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	owner, err := h.cartOwner(ctx)
	if err != nil {
		return err
	}
	return h.cartSvc.Add(ctx, owner, cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  cmd.Quantity,
	})
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	owner, err := h.cartOwner(ctx)
	if err != nil {
		return err
	}
	return h.cartSvc.Remove(ctx, owner, cmd.ProductID)
}

func (h *Handler) SetCartQuantity(ctx context.Context, cmd SetCartQuantity) error {
	owner, err := h.cartOwner(ctx)
	if err != nil {
		return err
	}
	return h.cartSvc.UpdateQuantity(ctx, owner, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) ClearCart(ctx context.Context) error {
	owner, err := h.cartOwner(ctx)
	if err != nil {
		return err
	}
	return h.cartSvc.Clear(ctx, owner)
}

// Checkout places an order from the user's cart and empties the cart.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (*order.Order, error) {
	buyer, err := h.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	cartItems, err := h.cartSvc.Items(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, order.ErrEmptyOrder
	}

	items := make([]order.Item, 0, len(cartItems))
	for _, it := range cartItems {
		items = append(items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	o, err := h.orderSvc.Place(ctx, buyer, items, cmd.ShippingInfo, cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if err := h.cartSvc.Clear(ctx, buyer.ID); err != nil {
		log.Printf("[Checkout] Order %s placed but cart of %s not cleared: %v", o.ID, buyer.ID, err)
	}
	return o, nil
}

// PayOrder runs the simulated payment gateway for an order the user owns.
// Admins may pay any order.
func (h *Handler) PayOrder(ctx context.Context, cmd PayOrder) error {
	actor, err := h.requireUser(ctx)
	if err != nil {
		return err
	}
	o, ok, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil || !ok {
		return err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return h.orderSvc.MarkAsPaid(ctx, cmd.OrderID)
}

func (h *Handler) SetOrderStatus(ctx context.Context, cmd SetOrderStatus) error {
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	status, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return err
	}
	return h.orderSvc.UpdateStatus(ctx, cmd.OrderID, status)
}

func (h *Handler) ReviewOrder(ctx context.Context, cmd ReviewOrder) error {
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	return h.orderSvc.MarkAsReviewed(ctx, cmd.OrderID)
}

func (h *Handler) DeleteOrder(ctx context.Context, cmd DeleteOrder) error {
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	return h.orderSvc.Delete(ctx, cmd.OrderID)
}

// MarkNotificationRead marks one of the user's own notifications as read.
// Ids that are not the user's are ignored.
func (h *Handler) MarkNotificationRead(ctx context.Context, cmd MarkNotificationRead) error {
	actor, err := h.requireUser(ctx)
	if err != nil {
		return err
	}
	mine, err := h.orderSvc.NotificationsForUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	for _, n := range mine {
		if n.ID == cmd.NotificationID {
			return h.orderSvc.MarkNotificationAsRead(ctx, n.ID)
		}
	}
	return nil
}

func (h *Handler) requireUser(ctx context.Context) (*user.User, error) {
	u, err := h.userSvc.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, order.ErrNoAuthenticatedUser
	}
	return u, nil
}

func (h *Handler) requireAdmin(ctx context.Context) (*user.User, error) {
	u, err := h.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

func (h *Handler) cartOwner(ctx context.Context) (string, error) {
	u, err := h.userSvc.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", nil
	}
	return u.ID, nil
}
