// Package notification mails clients when their orders are placed.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/email"
	"github.com/example/mall-backoffice/internal/events"
)

// Sender delivers an order confirmation.
type Sender interface {
	SendOrderConfirmation(to string, c email.OrderConfirmation) error
}

// Directory resolves the people and shops named in an event.
type Directory interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetShop(ctx context.Context, id string) (*shop.Shop, error)
}

// Handler processes events for sending notifications
type Handler struct {
	sender    Sender
	directory Directory
}

func NewHandler(sender Sender, directory Directory) *Handler {
	return &Handler{sender: sender, directory: directory}
}

// HandleEvent is a kafka.MessageHandler.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := events.Decode(value)
	if err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if event.Type == order.EventOrderPlaced {
		return h.handleOrderPlaced(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(ctx context.Context, event events.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing order %s for client %s", e.Number, e.ClientID)

	client, err := h.directory.GetUser(ctx, e.ClientID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("[Notifier] Client not found: %s", e.ClientID)
		return nil
	}
	if err != nil {
		return err
	}

	shopName := e.ShopID
	if sh, err := h.directory.GetShop(ctx, e.ShopID); err == nil {
		shopName = sh.Name
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		items[i] = email.OrderItem{Name: name, Quantity: item.Quantity, Price: item.Price}
	}

	confirmation := email.OrderConfirmation{
		Number:      e.Number,
		ShopName:    shopName,
		ClientName:  client.FullName(),
		Items:       items,
		Total:       e.Total,
		PaymentMode: string(e.PaymentMode),
		Paid:        e.Paid,
	}
	if err := h.sender.SendOrderConfirmation(client.Email, confirmation); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", client.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", client.Email, e.Number)
	return nil
}
