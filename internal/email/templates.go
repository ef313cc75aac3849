package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an order line for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// OrderSummary is the order a notification refers to, when it still exists.
type OrderSummary struct {
	OrderID string
	Status  string
	Total   decimal.Decimal
	Items   []OrderItem
}

var accentColors = map[string]string{
	"info":    "#0d6efd",
	"success": "#198754",
	"warning": "#ffc107",
	"danger":  "#dc3545",
}

// BuildNotificationBody builds the HTML body of a notification email. The
// order table is included when summary is non-nil.
func BuildNotificationBody(username, message, notificationType string, summary *OrderSummary) string {
	accent, ok := accentColors[notificationType]
	if !ok {
		accent = accentColors["info"]
	}

	var orderHTML string
	if summary != nil {
		orderHTML = buildOrderTable(summary)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: %s; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Order update</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hello %s,</p>
		<p style="font-size: 16px;">%s</p>
		%s
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. You can review all your notifications in your account.
		</p>
	</div>
</body>
</html>`, accent, html.EscapeString(username), html.EscapeString(message), orderHTML)
}

func buildOrderTable(summary *OrderSummary) string {
	var itemsHTML strings.Builder
	for _, item := range summary.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			formatAmount(item.Price),
			formatAmount(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		))
	}

	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order %s</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Product</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; margin-left: 10px;">$%s</span>
		</div>`,
		html.EscapeString(summary.OrderID),
		html.EscapeString(summary.Status),
		itemsHTML.String(),
		formatAmount(summary.Total),
	)
}

// formatAmount renders d with two decimals and comma separators
func formatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + formatNumber(whole) + "." + frac
}

// formatNumber inserts comma separators into a string of digits
func formatNumber(str string) string {
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if len(str) > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
