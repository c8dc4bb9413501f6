// Package main provides the wattsaver CLI: index the advisor corpus, ask
// questions, look up eligible products, and check voucher eligibility.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/wattsaver/internal/app"
	"github.com/bull/wattsaver/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "wattsaver",
		Short: "Household energy advisor and Climate Voucher checker",
		Long: `CLI for the WattSaver energy advisor.

Configuration is read from --config, $WATTSAVER_CONFIG or ./config.yaml,
then overridden by the environment:
  OPENAI_API_KEY  OpenAI API key (required except for vouchers)
  VECTOR_STORE    memory or qdrant (default: memory)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  CORPUS_DIR      directory of advisor documents (default: data)
  CATALOG_PATH    eligible products JSON (default: data/eligible_products.json)
  LOG_LEVEL       debug, info, warn or error (default: info)`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	// loadApp is shared by the commands that need the model and the store.
	loadApp := func(cmd *cobra.Command) (*app.App, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return app.New(cfg, app.NewLogger(cfg, cmd.ErrOrStderr()))
	}

	rootCmd.AddCommand(
		newIndexCmd(loadApp),
		newAskCmd(loadApp),
		newProductsCmd(loadApp),
		newVouchersCmd(),
	)
	return rootCmd
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
