package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Terminate the session and clear round state",
	Long: `Destroy the session's viewports, remove the lock, and reset the round
counter so the next start begins at round 1. Round artifact directories are
kept.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if !resetForce {
		fmt.Print("terminate the review session and reset round state? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	// Attach failure is fine here: reset must clean up stale or half-torn
	// sessions too.
	st, _ := app.mgr.Attach()
	if err := app.mgr.Reset(st); err != nil {
		return err
	}
	fmt.Println("session reset; 'tribunal start' begins a fresh review at round 1")
	return nil
}
