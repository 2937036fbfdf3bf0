package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Print the command that opens the review panel",
	Long: `Print the terminal-backend command that attaches to the running review
session. Fails when no session is active.`,
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	st, err := app.mgr.Attach()
	if err != nil {
		return err
	}

	attach := app.term.AttachCommand(st.SessionName)
	if attach == "" {
		fmt.Printf("backend %s has no attachable surface; transcripts are under %s\n",
			st.Backend, app.mgr.RoundDir(st.CurrentRound))
		return nil
	}
	fmt.Println(attach)
	return nil
}
