package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfirmation() OrderConfirmation {
	return OrderConfirmation{
		Number:     "CMD-20260512-0A1B2C3D",
		ShopName:   "Tom & Jerry's",
		ClientName: "Awa Diallo",
		Items: []OrderItem{
			{Name: "Leather bag", Quantity: 2, Price: 12500},
			{Name: "<script>alert(1)</script>", Quantity: 1, Price: 900},
		},
		Total:       25900,
		PaymentMode: "delivery",
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body, err := BuildOrderConfirmationBody(sampleConfirmation())

	require.NoError(t, err)
	assert.Contains(t, body, "CMD-20260512-0A1B2C3D")
	assert.Contains(t, body, "Hello Awa Diallo")
	assert.Contains(t, body, "25,000")
	assert.Contains(t, body, "25,900")
	assert.Contains(t, body, "(to be paid)")
	assert.Contains(t, body, "Tom &amp; Jerry&#39;s")
	assert.NotContains(t, body, "<script>")
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		25900:   "25,900",
		1234567: "1,234,567",
		-4500:   "-4,500",
		100000:  "100,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatNumber(in), "formatNumber(%d)", in)
	}
}

func TestService_SendOrderConfirmation(t *testing.T) {
	svc := NewService("smtp.mall.test", "2525", "noreply@mall.test")
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, svc.SendOrderConfirmation("awa@example.com", sampleConfirmation()))

	assert.Equal(t, "smtp.mall.test:2525", gotAddr)
	assert.Equal(t, "noreply@mall.test", gotFrom)
	assert.Equal(t, []string{"awa@example.com"}, gotTo)
	headers, _, found := strings.Cut(string(gotMsg), "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, "Subject: Order CMD-20260512-0A1B2C3D confirmed - Tom & Jerry's")
	assert.Contains(t, headers, "Content-Type: text/html; charset=UTF-8")
}

func TestService_SendError(t *testing.T) {
	svc := NewService("localhost", "1025", "noreply@mall.test")
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, svc.SendOrderConfirmation("awa@example.com", sampleConfirmation()))
}
