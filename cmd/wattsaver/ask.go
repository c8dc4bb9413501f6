package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(loadApp appLoader) *cobra.Command {
	var skipIndex bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the energy advisor a question",
		Example: `  wattsaver ask "How can I keep my home cool without air-conditioning?"
  VECTOR_STORE=qdrant wattsaver ask --skip-index "Is a 5-tick fridge worth it?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipIndex {
				if _, err := a.BuildIndex(cmd.Context()); err != nil {
					return fmt.Errorf("indexing failed: %w", err)
				}
			}

			answer := a.Advisor().AnswerQuestion(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipIndex, "skip-index", false, "reuse the existing collection (Qdrant only)")
	return cmd
}

func newProductsCmd(loadApp appLoader) *cobra.Command {
	return &cobra.Command{
		Use:     "products <query>",
		Short:   "Check which products can be bought with Climate Vouchers",
		Example: `  wattsaver products "Can I buy a ceiling fan with the vouchers?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			answer := a.Products().AnswerQuestion(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}
