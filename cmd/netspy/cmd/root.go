package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/netspy/internal/config"
	"github.com/nfrund/netspy/internal/logging"
	"github.com/nfrund/netspy/internal/spy"
)

var (
	configFile string
	envFile    string
	logFormat  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "netspy",
	Short: "Inspect the topics and endpoints of a publish/subscribe network",
	Long: `netspy discovers the participants, data writers, data readers and topics
of a publish/subscribe network and prints the samples of a chosen topic live.

Run without a subcommand to start the interactive console:
  netspy                          # default configuration with a simulated network
  netspy --config netspy.yaml     # allowlist, blocklist, threads, simulation...

Inside the console type "help" for the list of commands.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides the configuration)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the configuration)")
}

// loadConfig resolves the configuration and installs the logger it asks for.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(afero.NewOsFs(), configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if _, err := logging.New(logging.Options{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
		Writer: cmd.ErrOrStderr(),
	}); err != nil {
		return nil, &config.ConfigurationError{Field: "logging", Message: "cannot configure logging", Cause: err}
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tool, err := spy.New(cmd.Context(), cfg,
		spy.WithInput(cmd.InOrStdin()),
		spy.WithOutput(cmd.OutOrStdout()),
		spy.WithConfigFile(afero.NewOsFs(), configFile),
	)
	if err != nil {
		return fmt.Errorf("start netspy: %w", err)
	}
	defer tool.Close()

	if err := tool.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
		return err
	}
	return nil
}
