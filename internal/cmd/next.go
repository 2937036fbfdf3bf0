package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Advance the active session to the next round",
	Long: `Interrupt every agent, archive the current round's transcripts as the
next round's "previous reviews" input, and deliver the next round's persona
and prompt. Fails when no session is active.`,
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	st, err := app.mgr.Attach()
	if err != nil {
		return err
	}
	if err := app.machine.Rebind(st); err != nil {
		return err
	}

	from := st.CurrentRound
	if err := app.machine.Advance(); err != nil {
		return err
	}

	round := app.machine.Current()
	fmt.Printf("round %d -> %d: focus %q, template %s\n", from, round.Number, round.Focus, round.TemplateID)
	return nil
}
