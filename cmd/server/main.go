package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adsreporter/pkg/config"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adsreporter",
	Short: "adsreporter - Facebook Ads dashboard service",
	Long: `adsreporter polls the Facebook Graph API for today's campaign performance,
aggregates it across ad accounts and serves the dashboard state as JSON.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adsreporter version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional, env vars override it)")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, tokenCmd, configCmd, versionCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Port: %s\n", cfg.Server.Port)
	fmt.Printf("  Graph API: %s/%s\n", cfg.Graph.BaseURL, cfg.Graph.APIVersion)
	fmt.Printf("  Refresh: real %s, simulated %s, chart %s\n",
		cfg.Refresh.RealInterval, cfg.Refresh.SimulatedInterval, cfg.Refresh.ChartInterval)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Path)
	fmt.Printf("  AI insights: %t\n", cfg.AI.APIKey != "")

	return nil
}
