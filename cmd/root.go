// Package cmd provides the command-line interface for docstitch with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --output, etc.) - highest priority
//	2. DOCSTITCH_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (DOCSTITCH_SERVER_PORT, etc.)
//	4. Configuration files (.docstitch.yml) - lowest priority
//
// Environment Variables:
//
//	DOCSTITCH_CONFIG_FILE: Path to custom configuration file
//	DOCSTITCH_DOCUMENT_OUTPUT: Override the output document path
//	DOCSTITCH_SERVER_PORT: Override preview server port
//	And more following the DOCSTITCH_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docstitch/docstitch/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docstitch",
	Short: "Assemble documentation guides from code snippets",
	Long: `Docstitch assembles a single Markdown guide from fragment files and the
code regions they reference. Region markers in playground sources stay in
sync with the prose that explains them, and a check mode keeps CI honest.

Key Features:
  • Region extraction from marked playground sources
  • Fragment directives that splice code into prose
  • Deterministic output with a generated table of contents
  • Link and anchor validation
  • Preview server with live reload

Quick Start:
  docstitch init                  Scaffold a new guide
  docstitch generate              Assemble the guide document
  docstitch generate --check      Verify the document is up to date
  docstitch serve                 Preview the guide with live reload

Command Aliases (for faster typing):
  generate (g), list (l), serve (s), watch (w)

Documentation: https://github.com/docstitch/docstitch`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .docstitch.yml, can also use DOCSTITCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// newLogger builds the logger shared by the subcommands, honoring the
// persistent --log-level flag.
func newLogger() *logging.DocstitchLogger {
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.ParseLevel(viper.GetString("log-level"))

	return logging.NewLogger(logConfig)
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. DOCSTITCH_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .docstitch.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DOCSTITCH_CONFIG_FILE"); envConfigFile != "" {
		// Project-specific config without touching the command line.
		// Supports both relative and absolute paths.
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docstitch")
	}

	// Automatic environment variable binding with the DOCSTITCH_ prefix.
	// Examples: DOCSTITCH_SERVER_PORT, DOCSTITCH_DOCUMENT_OUTPUT
	viper.SetEnvPrefix("DOCSTITCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file falls back to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
