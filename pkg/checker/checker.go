package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/textproto"

	"github.com/ogulcanaydogan/price-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/price-guardian/pkg/model"
)

// ProductLookup fetches the current title and price of a product.
type ProductLookup interface {
	Lookup(ctx context.Context, productID string) (*model.ProductSnapshot, error)
}

// Checker compares a product's price against a target and dispatches alerts.
type Checker struct {
	lookup    ProductLookup
	notifiers []alerts.Notifier
	out       io.Writer
	logger    *slog.Logger
	dryRun    bool
}

// New creates a checker. Progress lines are written to out.
func New(lookup ProductLookup, notifiers []alerts.Notifier, out io.Writer, logger *slog.Logger) *Checker {
	return &Checker{
		lookup:    lookup,
		notifiers: notifiers,
		out:       out,
		logger:    logger,
	}
}

// SetDryRun disables notification dispatch.
func (c *Checker) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// Check performs one lookup and, if the price is at or below target, one
// notification burst. Only lookup failures are returned as errors; notifier
// failures are reported in the outcome.
func (c *Checker) Check(ctx context.Context, productID string, target float64) (*model.Outcome, error) {
	fmt.Fprintln(c.out, "Fetching product information...")

	snap, err := c.lookup.Lookup(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	fmt.Fprintf(c.out, "Product: %s\n", snap.Title)
	fmt.Fprintf(c.out, "Current Price: $%.2f\n", snap.Price)
	fmt.Fprintf(c.out, "Target Price: $%.2f\n", target)

	outcome := &model.Outcome{
		Snapshot:    *snap,
		TargetPrice: target,
		Triggered:   snap.Triggered(target),
		Shortfall:   snap.Shortfall(target),
	}

	c.logger.Info("price checked",
		"product", productID,
		"title", snap.Title,
		"price", snap.Price,
		"target", target,
		"triggered", outcome.Triggered,
	)

	if !outcome.Triggered {
		fmt.Fprintf(c.out, "\nPrice is still above target by $%.2f\n", outcome.Shortfall)
		return outcome, nil
	}

	if c.dryRun {
		fmt.Fprintln(c.out, "\nPrice is at or below target! Dry run, not sending notifications.")
		return outcome, nil
	}

	fmt.Fprintln(c.out, "\nPrice is at or below target! Sending notifications...")

	alert := alerts.NewAlert(productID, snap.Title, snap.Price, target)
	alert.Currency = snap.Currency
	alert.URL = snap.DetailPageURL

	for _, res := range alerts.Dispatch(ctx, c.notifiers, alert) {
		c.report(res)
		nr := model.NotificationResult{Notifier: res.Notifier, ID: res.ID}
		if res.Err != nil {
			nr.Error = res.Err.Error()
		}
		outcome.Notifications = append(outcome.Notifications, nr)
	}

	return outcome, nil
}

// report prints and logs a single notifier result.
func (c *Checker) report(res alerts.Result) {
	label := displayName(res.Notifier)

	if res.OK() {
		if res.ID != "" {
			fmt.Fprintf(c.out, "%s sent successfully. ID: %s\n", label, res.ID)
		} else {
			fmt.Fprintf(c.out, "%s sent successfully!\n", label)
		}
		c.logger.Info("notification sent", "notifier", res.Notifier, "id", res.ID)
		return
	}

	fmt.Fprintf(c.out, "Failed to send %s: %s\n", label, describe(res.Err))
	c.logger.Error("send notification failed",
		"notifier", res.Notifier,
		"error", res.Err,
	)
}

func displayName(notifier string) string {
	switch notifier {
	case "sms":
		return "SMS"
	case "email":
		return "Email"
	case "slack":
		return "Slack alert"
	case "webhook":
		return "Webhook alert"
	default:
		return notifier
	}
}

// describe categorizes a notifier error for humans.
func describe(err error) string {
	var protoErr *textproto.Error
	switch {
	case errors.Is(err, alerts.ErrAuthentication):
		return fmt.Sprintf("Authentication error. Check your credentials. (%v)", err)
	case errors.As(err, &protoErr):
		return fmt.Sprintf("SMTP error - %v", protoErr)
	default:
		return err.Error()
	}
}
