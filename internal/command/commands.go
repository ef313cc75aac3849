package command

import (
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Account Commands
type Register struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUser edits an account. Nil fields keep their value; Role may only
// be changed by an admin.
type UpdateUser struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Address  *string `json:"address,omitempty"`
	Role     *string `json:"role,omitempty"`
}

type DeleteUser struct {
	UserID string `json:"user_id"`
}

// Product Commands
type CreateProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

type UpdateProduct struct {
	ProductID   string           `json:"product_id"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Image       *string          `json:"image,omitempty"`
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

type RateProduct struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// Cart Commands
type AddToCart struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	ProductID string `json:"product_id"`
}

type SetCartQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order Commands
type Checkout struct {
	ShippingInfo  *order.ShippingInfo `json:"shipping_info,omitempty"`
	PaymentMethod string              `json:"payment_method"`
}

type PayOrder struct {
	OrderID string `json:"order_id"`
}

type SetOrderStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type ReviewOrder struct {
	OrderID string `json:"order_id"`
}

type DeleteOrder struct {
	OrderID string `json:"order_id"`
}

type MarkNotificationRead struct {
	NotificationID string `json:"notification_id"`
}
