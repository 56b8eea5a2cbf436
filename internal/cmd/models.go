package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/output"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the endpoints a recommendation would try, in order",
	Long: `Resolve the endpoint list exactly as a recommendation call would.

With the static strategy this is the configured list. With discovery the
catalog is fetched using the configured API key and filtered to models
that support content generation, fast models first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		svc := ailink.NewService(cfg.AILink, nil, observability.CLILogger)
		endpoints, err := svc.Endpoints(cmd.Context(), "")
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format, output.Options{Verbose: verbose}).FormatEndpoints(endpoints)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().String("format", "table", "output format: table, json, markdown, yaml")
	modelsCmd.Flags().String("strategy", "", "endpoint resolution strategy: static or discovery")
}
