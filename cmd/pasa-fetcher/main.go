// Copyright Marco Kaiser, 2025. All rights reserved.

// Package main is the entry point for the pasa-fetcher CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pasa-fetcher CLI.
var rootCmd = &cobra.Command{
	Use:   "pasa-fetcher",
	Short: "Fetch research papers from the pasa-agent.ai search agent",
	Long: `pasa-fetcher submits natural-language queries to the pasa-agent.ai
asynchronous search agent, polls until the result set stabilizes, and
returns normalized paper records. Results can be enriched with arXiv
metadata, cached, and downloaded as PDF or TeX files.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pasa-fetcher.yaml or ~/.config/pasa-fetcher/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pasa-fetcher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pasa-fetcher"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
