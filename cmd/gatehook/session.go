package main

import (
	"fmt"

	"github.com/aretw0/gatehook"
	"github.com/aretw0/gatehook/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored session records",
	Long:  `List, inspect, watch and remove the chain and gate records of agent sessions.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessions, err := app.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the raw record of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.Status(cmd.Context(), app, args[0], cmd.OutOrStdout(), cli.StatusOptions{JSON: true})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var failed int
		for _, sessionID := range args {
			if err := app.Sessions.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions not removed", failed, len(args))
		}
		return nil
	},
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print session records as hooks change them",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Stop()
		if err := cli.RunWatch(sigCtx, app, cmd.OutOrStdout()); err != nil {
			return err
		}
		if sig := sigCtx.Signal(); sig != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "watch stopped (%v)\n", sig)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's chain, gate and reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.Status(cmd.Context(), app, args[0], cmd.OutOrStdout(), statusOptions(cmd))
	},
}

var loopCmd = &cobra.Command{
	Use:   "loop [loop-id]",
	Short: "Show the ledger of a loop (default: the active loop)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var loopID string
		if len(args) == 1 {
			loopID = args[0]
		}
		return cli.LoopReport(cmd.Context(), app, loopID, cmd.OutOrStdout(), statusOptions(cmd))
	},
}

func statusOptions(cmd *cobra.Command) cli.StatusOptions {
	asJSON, _ := cmd.Flags().GetBool("json")
	plain, _ := cmd.Flags().GetBool("plain")
	return cli.StatusOptions{JSON: asJSON, Plain: plain, Version: gatehook.Version}
}

func init() {
	rootCmd.AddCommand(sessionCmd, statusCmd, loopCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionWatchCmd)

	for _, c := range []*cobra.Command{statusCmd, loopCmd} {
		c.Flags().Bool("json", false, "Print JSON")
		c.Flags().Bool("plain", false, "Print markdown without terminal styling")
	}
}
