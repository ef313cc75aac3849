package order

import (
	"errors"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationDanger  NotificationType = "danger"
)

// Notification is a message to a user about one of their orders. Read only
// ever goes from false to true.
type Notification struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Read           bool             `json:"read"`
	Timestamp      time.Time        `json:"timestamp"`
	RelatedOrderID string           `json:"relatedOrderId,omitempty"`
}

func (n Notification) Validate() error {
	if n.ID == "" || n.UserID == "" {
		return errors.New("notification is missing id or userId")
	}
	return nil
}

// statusNotification returns the type and message sent when an order moves
// to status.
func statusNotification(orderID string, status Status) (NotificationType, string) {
	switch status {
	case StatusShipped:
		return NotificationSuccess, fmt.Sprintf("Your order #%s has been shipped", orderID)
	case StatusCompleted:
		return NotificationSuccess, fmt.Sprintf("Your order #%s has been delivered/completed", orderID)
	case StatusCancelled:
		return NotificationDanger, fmt.Sprintf("Your order #%s has been cancelled", orderID)
	default:
		return NotificationInfo, fmt.Sprintf("Your order #%s status changed to %s", orderID, status)
	}
}

func placedNotification(orderID string) (NotificationType, string) {
	return NotificationInfo, fmt.Sprintf("Your order #%s has been placed and is pending", orderID)
}
