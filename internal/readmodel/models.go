package readmodel

import (
	"github.com/shopspring/decimal"
)

// ProductReadModel is a catalog entry as shown to shoppers, with its
// derived average rating.
type ProductReadModel struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category"`
	Image         string          `json:"image,omitempty"`
	RatingSum     int             `json:"ratingSum"`
	RatingCount   int             `json:"ratingCount"`
	AverageRating float64         `json:"averageRating"`
	PurchaseCount int             `json:"purchaseCount"`
}

// ProductDetailReadModel adds the product's reviews.
type ProductDetailReadModel struct {
	ProductReadModel
	Reviews []ReviewReadModel `json:"reviews"`
}

type ReviewReadModel struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp"`
}

type CartItemReadModel struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartReadModel struct {
	UserID     string              `json:"userId,omitempty"`
	Items      []CartItemReadModel `json:"items"`
	TotalItems int                 `json:"totalItems"`
	Total      decimal.Decimal     `json:"total"`
}

// ProductSalesReadModel ranks a product by units sold across all orders.
type ProductSalesReadModel struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	TotalSold int    `json:"totalSold"`
}

// DashboardReadModel is the admin overview.
type DashboardReadModel struct {
	TotalOrders        int             `json:"totalOrders"`
	TotalUsers         int             `json:"totalUsers"`
	TotalProducts      int             `json:"totalProducts"`
	PendingReviewCount int             `json:"pendingReviewCount"`
	Revenue            decimal.Decimal `json:"revenue"`
	OrdersByStatus     map[string]int  `json:"ordersByStatus"`
}

// NotificationsReadModel is a user's inbox.
type NotificationsReadModel struct {
	UnreadCount   int                     `json:"unreadCount"`
	Notifications []NotificationReadModel `json:"notifications"`
}

type NotificationReadModel struct {
	ID             string `json:"id"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	Read           bool   `json:"read"`
	Timestamp      string `json:"timestamp"`
	RelatedOrderID string `json:"relatedOrderId,omitempty"`
}
