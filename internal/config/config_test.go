package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/price-guardian/internal/config"
)

var baseEnv = map[string]string{
	"AMAZON_ACCESS_KEY":    "AKIDEXAMPLE",
	"AMAZON_SECRET_KEY":    "secret",
	"AMAZON_ASSOCIATE_TAG": "tag-20",
	"AMAZON_PRODUCT_ID":    "B08N5WRWNW",
	"TWILIO_ACCOUNT_SID":   "AC123",
	"TWILIO_AUTH_TOKEN":    "token",
	"TWILIO_FROM_NUMBER":   "+15550001111",
	"TWILIO_TO_NUMBER":     "+15550002222",
	"GMAIL_USER":           "me@gmail.com",
	"GMAIL_APP_PASSWORD":   "app-pass",
	"EMAIL_FROM":           "me@gmail.com",
	"EMAIL_TO":             "you@example.com",
	"EXPECTED_PRICE":       "50.00",
}

var optionalEnv = []string{
	"AMAZON_REGION", "SMTP_HOST", "SMTP_PORT", "SLACK_WEBHOOK_URL", "SLACK_CHANNEL",
	"WEBHOOK_URL", "WEBHOOK_SECRET", "LOG_LEVEL", "LOG_FORMAT",
}

func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	for _, k := range optionalEnv {
		t.Setenv(k, "")
	}
	for k, v := range baseEnv {
		t.Setenv(k, v)
	}
	for k, v := range overrides {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "US", cfg.Amazon.Region)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "#price-alerts", cfg.Slack.Channel)
	assert.Empty(t, cfg.Slack.WebhookURL)
	assert.Empty(t, cfg.Webhook.URL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnv(t, map[string]string{"AMAZON_REGION": "UK", "EXPECTED_PRICE": "19.99"})

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "AKIDEXAMPLE", cfg.Amazon.AccessKey)
	assert.Equal(t, "secret", cfg.Amazon.SecretKey)
	assert.Equal(t, "tag-20", cfg.Amazon.AssociateTag)
	assert.Equal(t, "UK", cfg.Amazon.Region)
	assert.Equal(t, "B08N5WRWNW", cfg.Amazon.ProductID)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "token", cfg.Twilio.AuthToken)
	assert.Equal(t, "+15550001111", cfg.Twilio.FromNumber)
	assert.Equal(t, "+15550002222", cfg.Twilio.ToNumber)
	assert.Equal(t, "me@gmail.com", cfg.Gmail.User)
	assert.Equal(t, "app-pass", cfg.Gmail.AppPassword)
	assert.Equal(t, "me@gmail.com", cfg.Email.From)
	assert.Equal(t, "you@example.com", cfg.Email.To)
	assert.InDelta(t, 19.99, cfg.ExpectedPrice, 1e-9)
}

func TestLoad_MissingRequired(t *testing.T) {
	for key := range baseEnv {
		t.Run(key, func(t *testing.T) {
			setEnv(t, map[string]string{key: ""})

			_, err := config.Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrMissingConfiguration))

			var missing *config.MissingConfigurationError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, key, missing.Key)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidPrice(t *testing.T) {
	tests := []string{"abc", "0", "-5", "NaN", "Inf", "1e400"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			setEnv(t, map[string]string{"EXPECTED_PRICE": raw})

			_, err := config.Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))

			var invalid *config.InvalidConfigurationError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "EXPECTED_PRICE", invalid.Key)
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []string{"70000", "0", "-1", "abc", "25.5"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			setEnv(t, map[string]string{"SMTP_PORT": raw})

			_, err := config.Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))

			var invalid *config.InvalidConfigurationError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "SMTP_PORT", invalid.Key)
			assert.Equal(t, raw, invalid.Value)
		})
	}
}

func TestLoad_PortFromEnv(t *testing.T) {
	setEnv(t, map[string]string{"SMTP_PORT": " 2525 "})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2525, cfg.SMTP.Port)
}

func TestLoad_FromFile(t *testing.T) {
	setEnv(t, nil)
	t.Setenv("AMAZON_PRODUCT_ID", "")
	t.Setenv("EXPECTED_PRICE", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
amazon:
  product_id: B000TEST01
  region: DE
expected_price: 42.5
smtp:
  host: smtp.example.com
  port: 2525
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "B000TEST01", cfg.Amazon.ProductID)
	assert.Equal(t, "DE", cfg.Amazon.Region)
	assert.InDelta(t, 42.5, cfg.ExpectedPrice, 1e-9)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setEnv(t, map[string]string{"LOG_LEVEL": "error", "AMAZON_REGION": "JP"})

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("amazon:\n  region: FR\nlog:\n  level: debug\n"), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "JP", cfg.Amazon.Region)
}

func TestLoad_InvalidFile(t *testing.T) {
	setEnv(t, nil)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	price, err := config.ParsePrice(" 50.00 ")
	require.NoError(t, err)
	assert.Equal(t, 50.0, price)
}
