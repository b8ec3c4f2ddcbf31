// Command examboard ranks students across exam result spreadsheets, either
// as a one-shot CLI or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/examboard/internal/config"
	"github.com/okian/examboard/pkg/logger"
)

// cli holds state shared by every subcommand.
type cli struct {
	cfg *config.Config
	log logger.Logger
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "examboard",
		Short:         "Rank students across exam result spreadsheets",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.AddCommand(newServeCmd(c), newRankCmd(c), newGenerateCmd(c))
	return root
}

// setup loads configuration (defaults -> .env -> file -> env) and
// initializes logging.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}
	c.cfg = cfg
	c.log = logger.Get().Named(cmd.Name())
	return nil
}
