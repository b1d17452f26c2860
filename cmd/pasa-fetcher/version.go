// Copyright Marco Kaiser, 2025. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pasa-fetcher version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pasa-fetcher %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
