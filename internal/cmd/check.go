package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tribunal/internal/agent"
	"tribunal/internal/errors"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the backend and every agent CLI before starting",
	Long: `Check that the configured terminal backend is usable and that every
agent CLI is installed and responds to its probe command. Exits non-zero if
anything is missing, with remediation text per failure.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func runCheck(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	failed := false

	if err := app.term.Available(); err != nil {
		failed = true
		fmt.Println(failStyle.Render("✗ backend " + app.term.Kind() + ": " + err.Error()))
		if r := errors.Remediation(err); r != "" {
			fmt.Println("  remediation: " + r)
		}
	} else {
		fmt.Println(okStyle.Render("✓ backend " + app.term.Kind()))
	}

	for _, c := range app.cfg.Agents {
		if err := agent.Check(app.runner, c); err != nil {
			failed = true
			fmt.Println(failStyle.Render("✗ agent " + c.Name + ": " + err.Error()))
			if r := errors.Remediation(err); r != "" {
				fmt.Println("  remediation: " + r)
			}
			continue
		}
		fmt.Println(okStyle.Render("✓ agent " + c.Name + " (" + c.Command[0] + ")"))
	}

	if failed {
		return errors.New("preflight failed")
	}
	fmt.Println(okStyle.Render("all checks passed"))
	return nil
}
