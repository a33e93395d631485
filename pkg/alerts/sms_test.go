package alerts_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/price-guardian/pkg/alerts"
)

// redirectTransport sends every request to a test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestSMS(t *testing.T, handler http.HandlerFunc) *alerts.SMSNotifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	return alerts.NewSMSNotifier(alerts.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15550001111",
		To:         "+15550002222",
		HTTPClient: &http.Client{Transport: redirectTransport{target: target}},
	})
}

func TestSMSNotifier_Name(t *testing.T) {
	assert.Equal(t, "sms", alerts.NewSMSNotifier(alerts.TwilioConfig{}).Name())
}

func TestSMSNotifier_Send(t *testing.T) {
	n := newTestSMS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550002222", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "Price Alert: Echo Dot is now $49.99!", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM0123456789abcdef", "status": "queued"}`))
	})

	sid, err := n.Send(context.Background(), alerts.NewAlert("B08N5WRWNW", "Echo Dot", 49.99, 50.00))
	require.NoError(t, err)
	assert.Equal(t, "SM0123456789abcdef", sid)
}

func TestSMSNotifier_Send_AuthError(t *testing.T) {
	n := newTestSMS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": 20003, "message": "Authenticate", "status": 401}`))
	})

	_, err := n.Send(context.Background(), alerts.NewAlert("B08N5WRWNW", "Echo Dot", 1, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, alerts.ErrAuthentication))

	var perr *alerts.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(20003), perr.Code)
}

func TestSMSNotifier_Send_ProviderError(t *testing.T) {
	n := newTestSMS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": 21211, "message": "The 'To' number is not a valid phone number.", "status": 400}`))
	})

	_, err := n.Send(context.Background(), alerts.NewAlert("B08N5WRWNW", "Echo Dot", 1, 2))
	require.Error(t, err)
	assert.False(t, errors.Is(err, alerts.ErrAuthentication))

	var perr *alerts.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Contains(t, err.Error(), "not a valid phone number")
}

func TestSMSNotifier_Send_MissingSID(t *testing.T) {
	n := newTestSMS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	_, err := n.Send(context.Background(), alerts.NewAlert("B08N5WRWNW", "Echo Dot", 1, 2))
	assert.Error(t, err)
}

func TestSMSNotifier_Send_Cancelled(t *testing.T) {
	calls := 0
	n := newTestSMS(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Send(ctx, alerts.NewAlert("B08N5WRWNW", "Echo Dot", 1, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
