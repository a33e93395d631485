package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/price-guardian/pkg/marketplace"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Inspect supported marketplace regions",
}

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the marketplace regions accepted by AMAZON_REGION",
	RunE:  runRegionsList,
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	regionsCmd.AddCommand(regionsListCmd)
}

func runRegionsList(cmd *cobra.Command, _ []string) error {
	regions, err := marketplace.Regions()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CODE\tMARKETPLACE\tHOST\tAWS REGION\tCURRENCY\n")
	for _, r := range regions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Code, r.Marketplace, r.Host, r.AWSRegion, r.Currency)
	}
	return w.Flush()
}
