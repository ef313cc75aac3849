package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

// Storage keys.
const (
	OrdersKey        = "ecommerceOrders"
	NotificationsKey = "ecommerceNotifications"
)

type Status string

const (
	StatusPending    Status = "Pendiente"
	StatusPaid       Status = "Pagado"
	StatusInProgress Status = "En Proceso"
	StatusCompleted  Status = "Completado"
	StatusShipped    Status = "Enviado"
	StatusDelivered  Status = "Entregado"
	StatusCancelled  Status = "Cancelado"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusInProgress,
	StatusCompleted,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var (
	ErrNoAuthenticatedUser = errors.New("no authenticated user")
	ErrEmptyOrder          = errors.New("order must have at least one item")
	ErrInvalidItem         = errors.New("order item needs a product and a positive quantity")
	ErrInvalidStatus       = errors.New("unknown order status")
	ErrOrderFinalized      = errors.New("order is already in a final status")
	ErrNotPayable          = errors.New("only pending orders can be paid")
)

// ParseStatus accepts the exact status names.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// AwaitingReview reports whether the status is one an admin has not yet
// acted on.
func (s Status) AwaitingReview() bool {
	return s == StatusPending || s == StatusPaid
}

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a placed checkout. Items hold the name and price the buyer saw,
// so later catalog changes never alter an order.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	UserName      string          `json:"userName"`
	Date          string          `json:"date"`
	Status        Status          `json:"status"`
	IsNewForAdmin bool            `json:"isNewForAdmin"`
	Total         decimal.Decimal `json:"total"`
	Items         []Item          `json:"items"`
	ShippingInfo  *ShippingInfo   `json:"shippingInfo,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (o Order) Validate() error {
	if o.ID == "" || o.UserID == "" {
		return errors.New("order is missing id or userId")
	}
	return nil
}

// PendingReview reports whether the order counts toward the admin badge.
func (o Order) PendingReview() bool {
	return o.IsNewForAdmin && o.Status.AwaitingReview()
}

// CanTransitionTo reports whether an admin may move the order to target.
// Any non-final order may be set to any status; a final order may still be
// cancelled unless it already is.
func (o *Order) CanTransitionTo(target Status) bool {
	if target == o.Status {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return !o.Status.IsTerminal()
}

// transition moves the order to target, clearing the admin flag once the
// order leaves the statuses awaiting review.
func (o *Order) transition(target Status, at time.Time) {
	if !target.AwaitingReview() {
		o.IsNewForAdmin = false
	}
	o.Status = target
	o.UpdatedAt = at
}

func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
