package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingConfiguration is matched by every MissingConfigurationError.
	ErrMissingConfiguration = errors.New("missing configuration")
	// ErrInvalidConfiguration is matched by every InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MissingConfigurationError reports a required key that has no value.
type MissingConfigurationError struct {
	Key string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing required environment variable: %s", e.Key)
}

func (e *MissingConfigurationError) Unwrap() error { return ErrMissingConfiguration }

// InvalidConfigurationError reports a key whose value cannot be used.
type InvalidConfigurationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Key, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// Config holds all Price Guardian configuration.
type Config struct {
	Amazon  AmazonConfig  `mapstructure:"amazon"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
	Gmail   GmailConfig   `mapstructure:"gmail"`
	Email   EmailConfig   `mapstructure:"email"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Logging LoggingConfig `mapstructure:"log"`

	// ExpectedPrice is the target price; notifications fire at or below it.
	ExpectedPrice float64 `mapstructure:"-"`
}

// AmazonConfig defines Product Advertising API credentials and the tracked item.
type AmazonConfig struct {
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	AssociateTag string `mapstructure:"associate_tag"`
	Region       string `mapstructure:"region"`
	ProductID    string `mapstructure:"product_id"`
}

// TwilioConfig defines SMS provider credentials.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	ToNumber   string `mapstructure:"to_number"`
}

// GmailConfig defines SMTP login credentials.
type GmailConfig struct {
	User        string `mapstructure:"user"`
	AppPassword string `mapstructure:"app_password"`
}

// EmailConfig defines the envelope addresses.
type EmailConfig struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// SMTPConfig defines the submission server.
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SlackConfig defines the optional Slack webhook.
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines the optional generic webhook.
type WebhookConfig struct {
	URL    string `mapstructure:"url"`
	Secret string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// requiredKeys are checked in order; the first empty one is reported.
var requiredKeys = []string{
	"amazon.access_key",
	"amazon.secret_key",
	"amazon.associate_tag",
	"twilio.account_sid",
	"twilio.auth_token",
	"twilio.from_number",
	"twilio.to_number",
	"gmail.user",
	"gmail.app_password",
	"email.from",
	"email.to",
	"amazon.product_id",
	"expected_price",
}

var optionalKeys = []string{
	"amazon.region",
	"smtp.host",
	"smtp.port",
	"slack.webhook_url",
	"slack.channel",
	"webhook.url",
	"webhook.secret",
	"log.level",
	"log.format",
}

// EnvName returns the environment variable bound to a config key.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over the file.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".price-guardian"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("amazon.region", "US")
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("slack.channel", "#price-alerts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range append(append([]string{}, requiredKeys...), optionalKeys...) {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, &MissingConfigurationError{Key: EnvName(key)}
		}
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("smtp.port")))
	if err != nil || port < 1 || port > 65535 {
		return nil, &InvalidConfigurationError{
			Key:    EnvName("smtp.port"),
			Value:  v.GetString("smtp.port"),
			Reason: "port must be an integer between 1 and 65535",
		}
	}
	v.Set("smtp.port", port)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	price, err := ParsePrice(v.GetString("expected_price"))
	if err != nil {
		return nil, err
	}
	cfg.ExpectedPrice = price

	if strings.TrimSpace(cfg.Amazon.Region) == "" {
		cfg.Amazon.Region = "US"
	}

	return &cfg, nil
}

// ParsePrice parses a target price, which must be a positive finite decimal.
func ParsePrice(raw string) (float64, error) {
	key := EnvName("expected_price")
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &InvalidConfigurationError{Key: key, Value: raw, Reason: "not a decimal number"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, &InvalidConfigurationError{Key: key, Value: raw, Reason: "must be finite"}
	}
	if price <= 0 {
		return 0, &InvalidConfigurationError{Key: key, Value: raw, Reason: "must be positive"}
	}
	return price, nil
}
