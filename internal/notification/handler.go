package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/email"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/metrics"
)

// Mailer sends notification emails.
type Mailer interface {
	SendNotification(to, username, message, notificationType string, summary *email.OrderSummary) error
}

type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, bool, error)
}

type OrderLookup interface {
	Get(ctx context.Context, id string) (*order.Order, bool, error)
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	users  UserLookup
	orders OrderLookup
}

// NewHandler creates a new notification handler. orders may be nil, in
// which case emails carry no order summary.
func NewHandler(mailer Mailer, users UserLookup, orders OrderLookup) *Handler {
	return &Handler{
		mailer: mailer,
		users:  users,
		orders: orders,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	// Only process NotificationEmitted events
	if event.EventType == order.EventNotificationEmitted {
		return h.handleNotificationEmitted(ctx, event)
	}

	return nil
}

func (h *Handler) handleNotificationEmitted(ctx context.Context, event store.Event) error {
	var e order.NotificationEmitted
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal NotificationEmitted event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing notification %s for user %s", e.ID, e.UserID)

	u, exists, err := h.users.Get(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] Error getting user %s: %v", e.UserID, err)
		return err
	}
	if !exists {
		log.Printf("[Notifier] User not found: %s", e.UserID)
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}
	if u.Email == "" {
		log.Printf("[Notifier] User %s has no email address, skipping", e.UserID)
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	summary := h.orderSummary(ctx, e.RelatedOrderID)

	if err := h.mailer.SendNotification(u.Email, u.Username, e.Message, string(e.Type), summary); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", u.Email, err)
		metrics.EmailsSent.WithLabelValues("error").Inc()
		return err
	}

	metrics.EmailsSent.WithLabelValues("ok").Inc()
	log.Printf("[Notifier] Notification email sent to %s for order %s", u.Email, e.RelatedOrderID)
	return nil
}

// orderSummary returns the order's current state, or nil when it cannot
// be read. Deleted orders still get their email, without the summary.
func (h *Handler) orderSummary(ctx context.Context, orderID string) *email.OrderSummary {
	if h.orders == nil || orderID == "" {
		return nil
	}
	o, exists, err := h.orders.Get(ctx, orderID)
	if err != nil {
		log.Printf("[Notifier] Error getting order %s: %v", orderID, err)
		return nil
	}
	if !exists {
		return nil
	}

	items := make([]email.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return &email.OrderSummary{
		OrderID: o.ID,
		Status:  string(o.Status),
		Total:   o.Total,
		Items:   items,
	}
}
