package main

import (
	"os"

	"github.com/brizzai/space/internal/auth"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/metrics"
	"github.com/brizzai/space/internal/requester"
	"github.com/brizzai/space/internal/server"
	"github.com/brizzai/space/internal/storage"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "space",
		Short: "GitHub login and key/value storage service",
		Long: `space serves a GitHub OAuth login that stores user sessions in a
namespaced key/value store, and gives operators direct access to that store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Place version check in PreRun to ensure flags are parsed first
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	config.InitFlags(root.PersistentFlags())
	root.PersistentFlags().BoolP("version", "v", false, "Show version information")

	root.AddCommand(newServeCmd(), newKVCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			app := fx.New(
				fx.Supply(cfg),
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: log.Named("fx")}
				}),
				logger.Module,
				metrics.Module,
				requester.Module,
				storage.Module,
				auth.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}

			app.Run()
			return nil
		},
	}
}
