package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gatehook"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gatehook",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gatehook version %s\n", strings.TrimSpace(gatehook.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
