package query

// Re-export read models from readmodel package
import "github.com/example/ec-storefront/internal/readmodel"

type ProductReadModel = readmodel.ProductReadModel
type ProductDetailReadModel = readmodel.ProductDetailReadModel
type ReviewReadModel = readmodel.ReviewReadModel
type CartItemReadModel = readmodel.CartItemReadModel
type CartReadModel = readmodel.CartReadModel
type ProductSalesReadModel = readmodel.ProductSalesReadModel
type DashboardReadModel = readmodel.DashboardReadModel
type NotificationsReadModel = readmodel.NotificationsReadModel
type NotificationReadModel = readmodel.NotificationReadModel
