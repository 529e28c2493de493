// Package cli implements the toolclient command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	toolclient "github.com/deep-sre-agent/go-toolclient"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "toolclient",
	Short:         "Inspect and call tools on MCP servers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := toolclient.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load env file %q: %w", envFile, err)
		}
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %q: %w", cfgFile, err)
			}
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file with one section per service (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override <PREFIX>_LOG_LEVEL for the selected service")

	rootCmd.AddCommand(toolsCmd, callCmd)
}
