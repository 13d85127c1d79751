package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragchat/internal/builder"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <pattern>...",
	Short: "Chunk, embed and upsert documents into the vector index",
	Long: `Chunk .txt and .md files, embed the chunks and upsert them into the
configured vector index. Patterns support ** (doublestar).

Examples:
  ragchat ingest about.md
  ragchat ingest "portfolio/**/*.md" "notes/*.txt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := builder.NewIngestService(cmd.Context(), cfg, secrets, log)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	stats, err := svc.Ingest(cmd.Context(), args, bar)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d files\n", stats.Chunks, stats.Files)
	return nil
}
