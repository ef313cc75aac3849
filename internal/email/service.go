package email

import (
	"errors"
	"fmt"
	"net/smtp"
)

var ErrNoRecipient = errors.New("email recipient is required")

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send SendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// NewServiceWithSender creates a service that hands messages to send
// instead of an SMTP server.
func NewServiceWithSender(host, port, from string, send SendFunc) *Service {
	s := NewService(host, port, from)
	s.send = send
	return s
}

// SendNotification emails a user notification, with the order it refers to
// when summary is set.
func (s *Service) SendNotification(to, username, message, notificationType string, summary *OrderSummary) error {
	if to == "" {
		return ErrNoRecipient
	}
	subject := "Update on your order"
	if summary != nil {
		subject = fmt.Sprintf("Order %s: %s", shortID(summary.OrderID), summary.Status)
	}
	body := BuildNotificationBody(username, message, notificationType, summary)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(orderID string) string {
	const prefix = "ORD-"
	id := orderID
	if len(id) > len(prefix)+8 && id[:len(prefix)] == prefix {
		id = id[:len(prefix)+8]
	}
	return id
}
