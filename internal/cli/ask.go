package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/builder"
	"ragchat/internal/retriever"
)

var (
	askText string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question and exit",
	Long: `Answer one question and print the answer to stdout.

Examples:
  ragchat ask -q "What projects has he worked on?"
  ragchat ask -q "Skills?" --json`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "question", "q", "", "question (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print answer and sources as JSON")
	askCmd.MarkFlagRequired("question")
}

type askOutput struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []askSource `json:"sources"`
}

type askSource struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc := builder.NewService(cfg, secrets, log)
	res, err := svc.Ask(cmd.Context(), askText)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !askJSON {
		fmt.Fprintln(out, res.Answer)
		return nil
	}
	payload := askOutput{Question: res.Input, Answer: res.Answer}
	for _, d := range res.Context {
		src, _ := d.MetaData[retriever.MetaSource].(string)
		payload.Sources = append(payload.Sources, askSource{Source: src, Score: d.Score(), Text: d.Content})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
