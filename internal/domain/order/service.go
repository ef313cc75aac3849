package order

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/google/uuid"
)

// PurchaseRecorder receives the units sold per product when an order is
// placed.
type PurchaseRecorder interface {
	IncrementPurchaseCount(ctx context.Context, productID string, quantity int) error
}

// Service is the only writer of the order and notification collections.
type Service struct {
	mu            sync.Mutex
	orders        *kv.Collection[Order]
	notifications *kv.Collection[Notification]
	eventStore    store.EventStoreInterface
	products      PurchaseRecorder
	now           func() time.Time
}

func NewService(st kv.Store, es store.EventStoreInterface, products PurchaseRecorder) *Service {
	return &Service{
		orders:        kv.NewCollection[Order](st, OrdersKey, nil),
		notifications: kv.NewCollection[Notification](st, NotificationsKey, nil),
		eventStore:    es,
		products:      products,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Place records a new pending order for buyer. The total is computed from
// the item prices as given. Once the order is saved, purchase counts, the
// buyer's notification and the lifecycle events are written; failures in
// those steps are logged and do not fail the call.
func (s *Service) Place(ctx context.Context, buyer *user.User, items []Item, shipping *ShippingInfo, paymentMethod string) (*Order, error) {
	if buyer == nil || buyer.ID == "" {
		return nil, ErrNoAuthenticatedUser
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	lines := make([]Item, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d", ErrInvalidItem, i+1)
		}
		lines[i] = it
	}

	now := s.now()
	o := Order{
		ID:            "ORD-" + uuid.New().String(),
		UserID:        buyer.ID,
		UserName:      buyer.Username,
		Date:          now.Format("2006-01-02"),
		Status:        StatusPending,
		IsNewForAdmin: true,
		Total:         Total(lines),
		Items:         lines,
		ShippingInfo:  shipping,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.orders.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, append(orders, o)); err != nil {
		return nil, err
	}
	metrics.OrdersPlaced.Inc()
	log.Printf("[Order] Placed %s for %s: %d lines, total %s", o.ID, o.UserID, len(o.Items), o.Total)

	if s.products != nil {
		for _, it := range o.Items {
			if err := s.products.IncrementPurchaseCount(ctx, it.ProductID, it.Quantity); err != nil {
				log.Printf("[Order] Failed to record purchase of %s for %s: %v", it.ProductID, o.ID, err)
			}
		}
	}

	s.record(ctx, o.ID, EventOrderPlaced, OrderPlaced{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Items:    o.Items,
		Total:    o.Total,
		PlacedAt: now,
	})

	typ, msg := placedNotification(o.ID)
	if err := s.notify(ctx, o.UserID, o.ID, typ, msg); err != nil {
		log.Printf("[Order] Failed to notify %s about %s: %v", o.UserID, o.ID, err)
	}

	return &o, nil
}

// MarkAsPaid moves a pending order to Pagado. The admin flag is left as is.
// A missing or already paid order is a no-op.
func (s *Service) MarkAsPaid(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, idx, err := s.find(ctx, orderID)
	if err != nil || idx < 0 {
		return err
	}
	switch orders[idx].Status {
	case StatusPaid:
		return nil
	case StatusPending:
		return s.changeStatus(ctx, orders, idx, StatusPaid)
	default:
		return ErrNotPayable
	}
}

// MarkAsReviewed moves an order awaiting review to En Proceso and clears
// its admin flag. Any other order is left untouched.
func (s *Service) MarkAsReviewed(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, idx, err := s.find(ctx, orderID)
	if err != nil || idx < 0 {
		return err
	}
	if !orders[idx].Status.AwaitingReview() {
		return nil
	}
	orders[idx].IsNewForAdmin = false
	return s.changeStatus(ctx, orders, idx, StatusInProgress)
}

// UpdateStatus sets the status of a non-final order and notifies its owner.
// A missing order or an unchanged status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, idx, err := s.find(ctx, orderID)
	if err != nil || idx < 0 {
		return err
	}
	o := &orders[idx]
	if o.Status == status {
		return nil
	}
	if !o.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s is %s", ErrOrderFinalized, o.ID, o.Status)
	}
	return s.changeStatus(ctx, orders, idx, status)
}

// Delete removes the order. Purchase counts are kept and no notification is
// sent. A missing order is a no-op.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, idx, err := s.find(ctx, orderID)
	if err != nil || idx < 0 {
		return err
	}
	orders = append(orders[:idx], orders[idx+1:]...)
	if err := s.orders.Save(ctx, orders); err != nil {
		return err
	}
	log.Printf("[Order] Deleted %s", orderID)
	s.record(ctx, orderID, EventOrderDeleted, OrderDeleted{OrderID: orderID, DeletedAt: s.now()})
	return nil
}

// PendingReviewCount counts orders still awaiting an admin.
func (s *Service) PendingReviewCount(ctx context.Context) (int, error) {
	orders, err := s.orders.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range orders {
		if o.PendingReview() {
			n++
		}
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, bool, error) {
	orders, idx, err := s.find(ctx, orderID)
	if err != nil || idx < 0 {
		return nil, false, err
	}
	o := orders[idx]
	return &o, true, nil
}

// List returns every order in placement order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.Load(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0)
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// MarkNotificationAsRead flips read to true. Nothing is written when the
// notification is missing or already read.
func (s *Service) MarkNotificationAsRead(ctx context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications, err := s.notifications.Load(ctx)
	if err != nil {
		return err
	}
	for i := range notifications {
		if notifications[i].ID != notificationID {
			continue
		}
		if notifications[i].Read {
			return nil
		}
		notifications[i].Read = true
		return s.notifications.Save(ctx, notifications)
	}
	return nil
}

// NotificationsForUser returns the user's notifications, newest first.
func (s *Service) NotificationsForUser(ctx context.Context, userID string) ([]Notification, error) {
	notifications, err := s.notifications.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0)
	for i := len(notifications) - 1; i >= 0; i-- {
		if notifications[i].UserID == userID {
			out = append(out, notifications[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifications, err := s.NotificationsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, notif := range notifications {
		if !notif.Read {
			n++
		}
	}
	return n, nil
}

// changeStatus saves orders with orders[idx] moved to status, then notifies
// the owner. Callers hold s.mu.
func (s *Service) changeStatus(ctx context.Context, orders []Order, idx int, status Status) error {
	o := &orders[idx]
	from := o.Status
	now := s.now()
	o.transition(status, now)
	if err := s.orders.Save(ctx, orders); err != nil {
		return err
	}
	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	log.Printf("[Order] %s: %s -> %s", o.ID, from, status)

	s.record(ctx, o.ID, EventOrderStatusChanged, OrderStatusChanged{
		OrderID:   o.ID,
		From:      from,
		To:        status,
		ChangedAt: now,
	})

	typ, msg := statusNotification(o.ID, status)
	if err := s.notify(ctx, o.UserID, o.ID, typ, msg); err != nil {
		log.Printf("[Order] Failed to notify %s about %s: %v", o.UserID, o.ID, err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID, orderID string, typ NotificationType, message string) error {
	n := Notification{
		ID:             "NOTIF-" + uuid.New().String(),
		UserID:         userID,
		Message:        message,
		Type:           typ,
		Timestamp:      s.now(),
		RelatedOrderID: orderID,
	}
	notifications, err := s.notifications.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.notifications.Save(ctx, append(notifications, n)); err != nil {
		return err
	}
	metrics.NotificationsEmitted.WithLabelValues(string(typ)).Inc()
	s.record(ctx, orderID, EventNotificationEmitted, NotificationEmitted{Notification: n})
	return nil
}

// record appends a lifecycle event. The collections are already written, so
// a failure is only logged.
func (s *Service) record(ctx context.Context, orderID, eventType string, data any) {
	if s.eventStore == nil {
		return
	}
	if _, err := s.eventStore.Append(ctx, orderID, AggregateType, eventType, data); err != nil {
		log.Printf("[Order] Failed to append %s for %s: %v", eventType, orderID, err)
	}
}

func (s *Service) find(ctx context.Context, orderID string) ([]Order, int, error) {
	orders, err := s.orders.Load(ctx)
	if err != nil {
		return nil, -1, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return orders, i, nil
		}
	}
	return orders, -1, nil
}
