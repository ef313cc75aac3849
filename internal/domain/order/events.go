package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lifecycle events, appended after the collections are written so the
// notifier and other subscribers can follow along.
const (
	EventOrderPlaced         = "OrderPlaced"
	EventOrderStatusChanged  = "OrderStatusChanged"
	EventOrderDeleted        = "OrderDeleted"
	EventNotificationEmitted = "NotificationEmitted"
)

type OrderPlaced struct {
	OrderID  string          `json:"order_id"`
	UserID   string          `json:"user_id"`
	Items    []Item          `json:"items"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderDeleted struct {
	OrderID   string    `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// NotificationEmitted carries the whole notification.
type NotificationEmitted struct {
	Notification
}
