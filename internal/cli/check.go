package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/price-guardian/pkg/checker"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the product price once and notify on a drop",
	Long: `Fetch the configured product, compare its price with EXPECTED_PRICE and,
when the price is at or below it, send an SMS followed by an email.
Notification failures are reported but never fail the command.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	for _, cmd := range []*cobra.Command{rootCmd, checkCmd} {
		cmd.Flags().Bool("dry-run", false, "Compare prices without sending notifications")
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logger := newLogger(cfg).With("run_id", uuid.New().String())

	lookup, err := newLookup(cfg)
	if err != nil {
		return err
	}

	c := checker.New(lookup, newNotifiers(cfg), cmd.OutOrStdout(), logger)
	c.SetDryRun(dryRun)

	if _, err := c.Check(cmd.Context(), cfg.Amazon.ProductID, cfg.ExpectedPrice); err != nil {
		return err
	}
	return nil
}
