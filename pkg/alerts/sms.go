package alerts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds SMS provider credentials and numbers.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	// HTTPClient overrides the client used for API calls.
	HTTPClient *http.Client
}

// ProviderError is a non-success reply from a messaging provider.
type ProviderError struct {
	Status  int
	Code    int64
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.Status)
	}
	return fmt.Sprintf("provider returned status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

// SMSNotifier sends alerts as text messages through Twilio.
type SMSNotifier struct {
	cfg    TwilioConfig
	client *twilio.RestClient
}

// NewSMSNotifier creates a Twilio SMS notifier.
func NewSMSNotifier(cfg TwilioConfig) *SMSNotifier {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	base := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &SMSNotifier{
		cfg:    cfg,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}
}

func (s *SMSNotifier) Name() string { return "sms" }

// Send creates one message and returns its sid. The Twilio client takes no
// context, so cancellation is only honored before the request starts; the
// HTTP client timeout bounds the call itself.
func (s *SMSNotifier) Send(ctx context.Context, alert Alert) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(s.cfg.To)
	params.SetFrom(s.cfg.From)
	params.SetBody(alert.Message)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			perr := &ProviderError{
				Status:  restErr.Status,
				Code:    int64(restErr.Code),
				Message: restErr.Message,
			}
			if restErr.Status == http.StatusUnauthorized || restErr.Status == http.StatusForbidden {
				return "", fmt.Errorf("%w: %w", ErrAuthentication, perr)
			}
			return "", perr
		}
		return "", fmt.Errorf("send sms: %w", err)
	}

	if msg.Sid == nil || *msg.Sid == "" {
		return "", fmt.Errorf("sms response missing sid")
	}
	return *msg.Sid, nil
}
