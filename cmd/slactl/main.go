package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/engine"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Environment defaults, also read from a .env file in the working directory.
const (
	envRate         = "SLACTL_RATE"
	envConfig       = "SLACTL_CONFIG"
	envOut          = "SLACTL_OUT"
	envOTLPEndpoint = "SLACTL_OTLP_ENDPOINT"
	envWebhookURL   = "SLACTL_WEBHOOK_URL"
)

type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "slactl",
		Short: "SLA penalty and billing for route-maintenance contracts",
		Long: `slactl reads the Format A route registry and the Format C fault log of one
month, assesses MTTR and availability penalties under clause 14.1 and writes
the SLA workbook, the accounts note and the penalty note.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			opts.logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newCheckCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the slactl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slactl %s\n", version)
		},
	})
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cfgErr *engine.ConfigError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
