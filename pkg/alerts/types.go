package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAuthentication marks a notifier failure caused by rejected credentials.
var ErrAuthentication = errors.New("authentication failed")

// Alert represents a price drop notification.
type Alert struct {
	ProductID   string    `json:"product_id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	TargetPrice float64   `json:"target_price"`
	Currency    string    `json:"currency,omitempty"`
	URL         string    `json:"url,omitempty"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewAlert builds the alert for a product whose price reached the target.
func NewAlert(productID, title string, price, target float64) Alert {
	return Alert{
		ProductID:   productID,
		Title:       title,
		Price:       price,
		TargetPrice: target,
		Message:     fmt.Sprintf("Price Alert: %s is now $%.2f!", title, price),
		Timestamp:   time.Now().UTC(),
	}
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert and returns the provider-assigned message id, if any.
	Send(ctx context.Context, alert Alert) (string, error)
}
