package email

import (
	"html/template"
	"strconv"
	"strings"
)

// OrderItem is one line of a confirmation mail.
type OrderItem struct {
	Name     string
	Quantity int
	Price    int
}

func (i OrderItem) Subtotal() int {
	return i.Price * i.Quantity
}

// OrderConfirmation is everything the confirmation mail shows.
type OrderConfirmation struct {
	Number      string
	ShopName    string
	ClientName  string
	Items       []OrderItem
	Total       int
	PaymentMode string
	Paid        bool
}

var orderConfirmationTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"amount": formatNumber,
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1f6f5c; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hello {{if .ClientName}}{{.ClientName}}{{else}}there{{end}}, {{.ShopName}} has received your order.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.Number}}</p>
		</div>

		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Product</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Unit price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
			{{- range .Items}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.Name}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{amount .Price}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{amount .Subtotal}}</td>
				</tr>
			{{- end}}
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #1f6f5c; margin-left: 10px;">{{amount .Total}}</span>
		</div>

		<p>Payment: {{.PaymentMode}}{{if .Paid}} (paid){{else}} (to be paid){{end}}</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">This message was sent automatically. Please do not reply.</p>
	</div>
</body>
</html>`))

// BuildOrderConfirmationBody renders the HTML body of the confirmation mail.
// Shop and product names are escaped.
func BuildOrderConfirmationBody(c OrderConfirmation) (string, error) {
	var b strings.Builder
	if err := orderConfirmationTmpl.Execute(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatNumber formats a number with comma separators
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := strconv.Itoa(n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	head := len(str) % 3
	if head > 0 {
		result.WriteString(str[:head])
	}
	for i := head; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
