package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragchat/internal/builder"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat",
	Long: `Serve the chat page on / and answers on /get (form field "msg").
The RAG pipeline is built on the first question and shared by all requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := builder.Web(cfg, secrets, log)
	if err != nil {
		log.Error("failed to build application", zap.Error(err))
		return err
	}
	return app.Run()
}
