package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/price-guardian/internal/config"
	"github.com/ogulcanaydogan/price-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/price-guardian/pkg/checker"
	"github.com/ogulcanaydogan/price-guardian/pkg/marketplace"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile string
	envFile string

	// Replaced in tests.
	newLookup    = initLookup
	newNotifiers = initNotifiers
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Price Guardian - Amazon price drop alerts over SMS and email",
	Long: `Price Guardian looks up one Amazon product, compares its price with your
target, and sends an SMS and an email when the price is at or below it.
Run it from cron or any scheduler; every invocation performs a single check.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

// Execute runs the CLI and exits with its status. SIGINT and SIGTERM cancel
// the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status: 0 once
// a check completes, whatever the notifiers reported, and 1 on any error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, config.ErrMissingConfiguration) {
			fmt.Fprintln(stderr, "Please check your .env file or environment configuration.")
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.price-guardian/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// loadConfig loads the dotenv file, then the configuration.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initLookup creates the marketplace client for the configured region.
func initLookup(cfg *config.Config) (checker.ProductLookup, error) {
	region, err := marketplace.LookupRegion(cfg.Amazon.Region)
	if err != nil {
		return nil, &config.InvalidConfigurationError{
			Key:    config.EnvName("amazon.region"),
			Value:  cfg.Amazon.Region,
			Reason: err.Error(),
		}
	}
	creds := marketplace.Credentials{
		AccessKey:    cfg.Amazon.AccessKey,
		SecretKey:    cfg.Amazon.SecretKey,
		AssociateTag: cfg.Amazon.AssociateTag,
	}
	return marketplace.NewClient(creds, region, marketplace.Options{}), nil
}

// initNotifiers creates alert notifiers from config. SMS and email always
// run, in that order; Slack and webhook only when configured.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	notifiers := []alerts.Notifier{
		alerts.NewSMSNotifier(alerts.TwilioConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.FromNumber,
			To:         cfg.Twilio.ToNumber,
		}),
		alerts.NewEmailNotifier(alerts.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.Gmail.User,
			Password: cfg.Gmail.AppPassword,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		}),
	}

	if cfg.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel))
	}
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Secret))
	}

	return notifiers
}
