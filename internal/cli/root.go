package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-engine/internal/config"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the quizctl command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Offline tooling for the timed quiz engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config (environment only when empty)")
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewPlayCmd())
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}

func loadConfig(ctx context.Context, path string) (*config.App, error) {
	if path == "" {
		return config.Load(ctx)
	}
	return config.LoadFile(ctx, path)
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
