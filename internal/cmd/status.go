package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tribunal/internal/review"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, lock, round, and agent activity",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Width(10)
	mutedText = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	lock, live := app.mgr.ActiveLock()
	if lock == nil {
		fmt.Println("no session lock; run 'tribunal start' to begin")
		return nil
	}

	fmt.Println(headStyle.Render("tribunal session"))
	liveness := "stale (owner not running)"
	if live {
		liveness = "live"
	}
	fmt.Println(keyStyle.Render("lock") + fmt.Sprintf("pid %d, %s", lock.PID, liveness))

	st, err := app.mgr.Attach()
	if err != nil {
		fmt.Println(mutedText.Render("no readable session state"))
		return nil
	}

	round := review.FocusForRound(st.CurrentRound, app.cfg.Review.SeverityOverrides())
	fmt.Println(keyStyle.Render("project") + st.Project)
	fmt.Println(keyStyle.Render("backend") + st.Backend)
	fmt.Println(keyStyle.Render("session") + st.SessionName)
	fmt.Println(keyStyle.Render("round") + fmt.Sprintf("%d (focus: %s)", st.CurrentRound, round))
	fmt.Println(keyStyle.Render("created") + st.CreatedAt.Format(time.RFC3339))

	if len(st.Agents) > 0 {
		fmt.Println(headStyle.Render("agents"))
		roundDir := app.mgr.RoundDir(st.CurrentRound)
		for _, b := range st.Agents {
			line := fmt.Sprintf("  %-8s %-22s viewport %s", b.Name, b.Role, b.ViewportID)
			if info, err := app.fs.Stat(filepath.Join(roundDir, b.Name+".log")); err == nil {
				line += mutedText.Render(fmt.Sprintf("  last output %s ago", time.Since(info.ModTime()).Round(time.Second)))
			} else {
				line += mutedText.Render("  no output yet")
			}
			fmt.Println(line)
		}
	}
	return nil
}
