package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/wattsaver/internal/app"
	"github.com/bull/wattsaver/internal/indexer"
)

type appLoader func(cmd *cobra.Command) (*app.App, error)

func newIndexCmd(loadApp appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the advisor index and print statistics",
		Long: `Loads the advisor documents, splits them into token-bounded chunks,
embeds them and replaces the vector store collection.

With the memory store the index lives only for this process, so the
command is mainly useful for checking the corpus. With Qdrant the
collection persists for the server and for "ask --skip-index".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Indexing documents...")
			result, err := a.BuildIndex(cmd.Context())
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			printIndexResult(out, result)
			return nil
		},
	}
}

func printIndexResult(out io.Writer, result *indexer.IndexResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Index complete!")
	fmt.Fprintf(out, "  Collection: %s\n", result.Collection)
	fmt.Fprintf(out, "  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Fprintf(out, "  Chunks: %d\n", result.TotalChunks)
	if result.OversizedChunks > 0 {
		fmt.Fprintf(out, "  Oversized chunks: %d\n", result.OversizedChunks)
	}
	fmt.Fprintf(out, "  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.Documents) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Documents:")
		for _, d := range result.Documents {
			fmt.Fprintf(out, "  - %s: %d tokens, %d chunks\n", d.SourceID, d.Tokens, d.Chunks)
		}
	}

	if len(result.FailedDocs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Fprintf(out, "  - %s: %s\n", failed.SourceID, failed.Reason)
		}
	}
}
