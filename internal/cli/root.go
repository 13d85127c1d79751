package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/logger"
)

var (
	cfgFile string
	cfg     *config.AppConfig
	secrets *config.Secrets
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Portfolio chatbot answering questions from a vector index",
	Long: `ragchat answers questions about a personal portfolio. Each question is
embedded, the closest passages are fetched from the vector index and an LLM
answers from them.

Example usage:
  ragchat serve                      # Web chat on :8080 (PORT overrides)
  ragchat chat                       # Terminal dashboard
  ragchat ask -q "What do you do?"   # One-shot answer
  ragchat ingest "docs/**/*.md"      # Populate the index`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		secrets, err = config.LoadSecrets()
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = secrets.ConfigPath
		}
		if path != "" {
			cfg, err = config.Load(path)
		} else {
			cfg, _, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// the dashboard owns the terminal, logs go to the file only
		log, err = logger.New(cfg.Log, cmd.Name() == chatCmd.Name())
		if err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, then ~/.config/ragchat/config.yaml)")
}
