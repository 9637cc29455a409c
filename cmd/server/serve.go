package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	infra, err := app.NewInfrastructure(cmd.Context(), *cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	application, err := app.NewApp(cmd.Context(), infra, cfg)
	if err != nil {
		_ = infra.Shutdown(context.WithoutCancel(cmd.Context()))
		return err
	}

	if err := application.Run(cmd.Context()); err != nil {
		infra.Logger().Error("Application failed", zap.Error(err))
		return err
	}
	return nil
}
