package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragchat/internal/builder"
	"ragchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat dashboard",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	m := tui.New(builder.ChainFactory(cfg, secrets, log), cfg.About, log)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
