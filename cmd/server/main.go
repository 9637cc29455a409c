package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prperemyshlev/outreach-service/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "outreach-service",
	Short: "Job-search outreach service",
	Long: `Finds people relevant to a job description, drafts personalised emails
with a text generator and sends them from the user's own mailbox.

Without a subcommand the HTTP API is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Context())
}
