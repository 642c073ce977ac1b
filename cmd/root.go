package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/observability"
)

type ctxKey string

const configKey ctxKey = "config"

var (
	cfgFile string
	// osExit is swapped out in tests.
	osExit = os.Exit
)

// flagKeys maps command line flags onto configuration keys so flags take
// precedence over the config file and the environment.
var flagKeys = map[string]string{
	"base-url":     "target.base_url",
	"app-dir":      "target.app_dir",
	"tag":          "scenarios.tags",
	"format":       "report.format",
	"output":       "report.output",
	"metrics-file": "report.metrics_file",
	"parallel":     "harness.parallelism",
	"headless":     "browser.headless",
	"capture":      "capture.enabled",
	"artifacts":    "artifacts.enabled",
	"log-file":     "logger.log_file",
}

// rootCmd is the command tree Execute runs.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sitecheck",
		Short:   "sitecheck runs browser end-to-end checks against the portfolio site.",
		Version: Version,
		// Usage is noise when a suite fails.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "sitecheck"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting sitecheck.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./sitecheck.yaml)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	observability.Sync()
	if err != nil {
		if !errors.Is(err, ErrScenariosFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		osExit(1)
	}
}

// initializeConfig reads the config file and environment into v and binds
// the flags of the command being run.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitecheck")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SITECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
