package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/wattsaver/internal/eligibility"
)

func newVouchersCmd() *cobra.Command {
	var residency, property, claimed300, claimed100 string

	cmd := &cobra.Command{
		Use:   "vouchers",
		Short: "Check Climate Voucher eligibility for a household",
		Example: `  wattsaver vouchers --residency citizen --property hdb --claimed-300 no --claimed-100 yes
  wattsaver vouchers --residency pr --property private`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := eligibility.ParseResidency(residency)
			if err != nil {
				return err
			}
			p, err := eligibility.ParseProperty(property)
			if err != nil {
				return err
			}
			c300, err := eligibility.ParseClaimed(claimed300)
			if err != nil {
				return err
			}
			c100, err := eligibility.ParseClaimed(claimed100)
			if err != nil {
				return err
			}

			d, err := eligibility.Evaluate(eligibility.Household{
				Residency:  r,
				Property:   p,
				Claimed300: c300,
				Claimed100: c100,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&residency, "residency", "", "citizen, pr or others")
	cmd.Flags().StringVar(&property, "property", "hdb", "hdb or private")
	cmd.Flags().StringVar(&claimed300, "claimed-300", "no", "claimed the 300 SGD vouchers: yes or no")
	cmd.Flags().StringVar(&claimed100, "claimed-100", "no", "claimed the 100 SGD vouchers: yes or no")
	cmd.MarkFlagRequired("residency")
	return cmd
}
