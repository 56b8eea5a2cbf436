package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/config"
	"github.com/zballl/vibecheck-app/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	traceFile string

	// stopTracing closes the trace file opened by --trace
	stopTracing func()

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Mood-to-playlist recommendations from a generative model",
	Long: `vibecheck turns a free-text mood into a five-track playlist.

Generation endpoints are tried in priority order until one answers; the
reply is parsed leniently and every track is validated before it is shown.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopTracing != nil {
			stopTracing()
			stopTracing = nil
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep global telemetry quiet for CLI runs; serve installs a real system.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config/vibecheck.yaml, then ~/.vibecheck.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs and endpoint attempts)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "trace generation requests/responses to NDJSON file")
}

// flagBinding maps a subcommand flag onto a config key when the flag is set.
type flagBinding struct {
	Flag string
	Key  string
}

var flagBindings = []flagBinding{
	{Flag: "host", Key: "server.host"},
	{Flag: "port", Key: "server.port"},
	{Flag: "timeout", Key: "ailink.request_timeout"},
	{Flag: "strategy", Key: "ailink.strategy"},
}

// initConfig loads configuration and sets up logging and tracing before any subcommand runs.
func initConfig(cmd *cobra.Command, args []string) error {
	observability.InitCLILogger(config.AppName, verbose)

	if traceFile != "" {
		cleanup, err := driver.EnableTracing(traceFile)
		if err != nil {
			observability.CLILogger.Warn("Failed to enable tracing", zap.Error(err))
		} else {
			observability.CLILogger.Debug("Generation tracing enabled", zap.String("file", traceFile))
			stopTracing = cleanup
		}
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		Overrides:  flagOverrides(cmd),
	})
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	if path := config.ConfigFileUsed(cfgFile); path != "" {
		observability.CLILogger.Debug("Using config file", zap.String("path", path))
	} else {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	}
	observability.CLILogger.Debug("Pipeline configuration",
		zap.String("strategy", cfg.AILink.Strategy),
		zap.Strings("models", cfg.AILink.Models),
		zap.Duration("request_timeout", cfg.AILink.RequestTimeout),
		zap.Bool("api_key_set", cfg.AILink.APIKey != ""))
	return nil
}

// flagOverrides collects explicitly set flags as config overrides.
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	if cmd == nil {
		return overrides
	}

	for _, b := range flagBindings {
		if f := cmd.Flags().Lookup(b.Flag); f != nil && f.Changed {
			overrides[b.Key] = f.Value.String()
		}
	}

	// Pinning a model bypasses discovery and the fallback list
	if f := cmd.Flags().Lookup("model"); f != nil && f.Changed && f.Value.String() != "" {
		overrides["ailink.strategy"] = ailink.StrategyStatic
		overrides["ailink.models"] = []string{f.Value.String()}
		overrides["ailink.endpoints"] = []map[string]any{}
	}
	return overrides
}

// loadedConfig returns the config loaded by initConfig.
func loadedConfig() (*config.Config, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return cfg, nil
}
