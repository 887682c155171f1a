package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/fashioncraft/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "fashioncraft",
	Short: "fashioncraft: order tracking for tailoring workshops",
	Long:  "fashioncraft serves the workshop order API. Without a sub-command it runs the HTTP server.",
	// Bare `fashioncraft` behaves like `fashioncraft serve`.
	RunE:          serveCmd.RunE,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, ".env file")

	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the sources named by the persistent flags.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Sources{ConfigFile: configFile, EnvFile: envFile})
}
