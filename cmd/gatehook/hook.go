package main

import (
	"strings"

	"github.com/aretw0/gatehook/internal/cli"
	"github.com/aretw0/gatehook/internal/hooks"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook <name>",
	Short: "Answer one lifecycle hook event",
	Long: `Reads the hook payload from stdin and writes the hook's JSON answer to stdout.
Faults inside gatehook never block the agent: they are logged and answered
with no output.

Hooks: ` + strings.Join(hooks.Names(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: hooks.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		return cli.RunHook(cmd.Context(), cli.HookOptions{
			Name:       args[0],
			Dir:        dir,
			ConfigPath: configPath,
			Debug:      debug,
			Stdout:     cmd.OutOrStdout(),
			Stderr:     cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
