package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/providerfactory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration, apply environment overrides and validate it.

On success the resolved backend table is printed. Credentials are never
shown; the CREDENTIAL column only reports whether the backend's key
variable is set.

Examples:
  # Check the built-in backend table
  conduit validate

  # Check a configuration file
  conduit validate --config conduit.yaml`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	source := cfgFile
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "✓ Configuration valid (%s)\n\n", source)

	table := cli.NewTable(out, "BACKEND", "TYPE", "MODEL", "FORMAT", "ENDPOINT", "CREDENTIAL")
	for _, bc := range cfg.ProviderConfigs() {
		provider, err := providerfactory.NewProvider(bc)
		if err != nil {
			return cli.NewConfigError(cfgFile, err.Error())
		}
		resolved := provider.GetConfig()
		provider.Close()

		credential := "set"
		if resolved.Credential == "" {
			credential = "missing"
			if env := cfg.Backends[bc.Name].APIKeyEnv; env != "" {
				credential = "missing (" + env + ")"
			}
		}
		table.Row(
			bc.Name,
			provider.GetType(),
			orDash(resolved.Model),
			orDash(string(resolved.StreamFormat)),
			orDash(resolved.Endpoint),
			credential,
		)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Listen address: %s\n", cfg.Proxy.ListenAddress)
		fmt.Fprintf(out, "Legacy routes:  %t\n", cfg.Proxy.LegacyRoutesEnabled())
		fmt.Fprintf(out, "Evidence:       %s\n", enabledString(cfg.Evidence.Enabled, cfg.Evidence.Backend))
		fmt.Fprintf(out, "Metrics:        %s\n", enabledString(cfg.Telemetry.Metrics.IsEnabled(), cfg.Telemetry.Metrics.Path))
		fmt.Fprintf(out, "Tracing:        %s\n", enabledString(cfg.Telemetry.Tracing.Enabled, cfg.Telemetry.Tracing.Endpoint))
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func enabledString(enabled bool, detail string) string {
	if !enabled {
		return "disabled"
	}
	return "enabled (" + detail + ")"
}
