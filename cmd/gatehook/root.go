package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gatehook/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatehook",
	Short: "gatehook keeps agent prompt chains behind their review gates",
	Long: `gatehook is run by an agent CLI's lifecycle hooks. It records chain and gate
directives from prompt-tool responses, denies prompt-tool calls that skip a
pending gate, reminds the agent of what is pending and keeps a ledger of the
active autonomous loop.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory holding .gatehook.yaml and state")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <dir>/.gatehook.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log to stderr (hooks: append to the debug log)")
}

func openApp(cmd *cobra.Command) (*cli.App, error) {
	dir, _ := cmd.Flags().GetString("dir")
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Load(dir, configPath, cli.NewLogger(debug))
}
