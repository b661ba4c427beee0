package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Conduit - streaming chat proxy for LLM backends",
	Long: `Conduit relays chat completions from hosted LLM backends to clients as a
single, provider-agnostic server-sent event stream.

A client posts {"messages": [...], "system": "..."} to /v1/chat/{backend}
and receives text deltas, a completion marker, or an error event, whatever
the upstream's own streaming format.

Without --config the built-in backend table is used: claude (Anthropic),
gemini (Google) and openai. Credentials come from ANTHROPIC_API_KEY,
GEMINI_API_KEY and OPENAI_API_KEY.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in backends)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration named by --config with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return cfg, nil
}
