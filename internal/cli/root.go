package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/veritas-backend/internal/app"
	"github.com/yungbote/veritas-backend/internal/platform/ctxutil"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "veritas",
	Short: "Veritas - rumor trust scoring and reputation settlement",
	Long: `Veritas scores rumors from reputation-weighted votes and community proofs,
and settles them into TRUE, FALSE or UNCERTAIN outcomes that move voter
reputation.

Commands here operate directly on the configured database; score changes are
published to the event bus when Redis is configured.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "veritas %s\n", app.Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.veritas/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// initConfig layers defaults, the config file and VERITAS_* variables, in
// increasing priority.
func initConfig() {
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
	}
}

func readConfig(v *viper.Viper, file string) error {
	defaults, err := app.DefaultsYAML()
	if err != nil {
		return err
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	v.SetEnvPrefix("VERITAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		file = filepath.Join(home, ".veritas", "config.yaml")
		if _, err := os.Stat(file); err != nil {
			return nil
		}
	}
	v.SetConfigFile(file)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge %s: %w", file, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
	return nil
}

// withApp builds the app for one command and tears it down afterwards. Every
// invocation gets its own request id so its log lines and audit rows correlate.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := app.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	ctx := ctxutil.WithTraceData(cmd.Context(), &ctxutil.TraceData{
		TraceID:   uuid.NewString(),
		RequestID: uuid.NewString(),
	})
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Log.Debug("Running command", "command", cmd.CommandPath(), "request_id", ctxutil.RequestID(ctx))
	return fn(ctx, a)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return id, nil
}
