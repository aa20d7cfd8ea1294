package order

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
)

type OrderPlaced struct {
	OrderID     string      `json:"order_id"`
	Number      string      `json:"number"`
	ClientID    string      `json:"client_id"`
	ShopID      string      `json:"shop_id"`
	Items       []Item      `json:"items"`
	Total       int         `json:"total"`
	PaymentMode PaymentMode `json:"payment_mode"`
	Paid        bool        `json:"paid"`
	PlacedAt    time.Time   `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	ShopID    string    `json:"shop_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Total     int       `json:"total"`
	Paid      bool      `json:"paid"`
	PlacedAt  time.Time `json:"placed_at"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderPaid struct {
	OrderID  string    `json:"order_id"`
	ShopID   string    `json:"shop_id"`
	Status   Status    `json:"status"`
	Total    int       `json:"total"`
	PlacedAt time.Time `json:"placed_at"`
	PaidAt   time.Time `json:"paid_at"`
}

func placedEvent(o *Order) OrderPlaced {
	return OrderPlaced{
		OrderID:     o.ID,
		Number:      o.Number,
		ClientID:    o.ClientID,
		ShopID:      o.ShopID,
		Items:       o.Items,
		Total:       o.Total,
		PaymentMode: o.PaymentMode,
		Paid:        o.Paid,
		PlacedAt:    o.CreatedAt,
	}
}
