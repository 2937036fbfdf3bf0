package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tribunal/internal/agent"
	"tribunal/internal/review"
	"tribunal/internal/router"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a review session and run round 1",
	Long: `Start a new review session: verify preconditions, take the session lock,
launch every agent in its own viewport, deliver persona and round-1 prompt,
then hand control to the interactive command loop.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.term.Available(); err != nil {
		return err
	}
	if err := agent.CheckAll(app.runner, app.cfg.Agents); err != nil {
		return err
	}

	st, err := app.mgr.Create(projectID(), app.term.Kind())
	if err != nil {
		return err
	}
	app.machine.Bind(st)

	fmt.Printf("session %s: launching %d agents\n", st.SessionName, len(app.agents))
	if err := app.machine.Setup(); err != nil {
		_ = app.mgr.Terminate(st)
		return err
	}

	if err := app.machine.StartRound(1); err != nil {
		return err
	}

	if w, err := review.NewLogWatcher(app.mgr.RoundDir(1), app.logger); err == nil {
		defer w.Close()
		app.machine.AttachWatcher(w)
	} else {
		app.logger.Warn("log watcher unavailable", "error", err)
	}

	if attach := app.term.AttachCommand(st.SessionName); attach != "" {
		fmt.Println("view the panel with: " + attach)
	}

	r := router.New(app.machine, app.inj, app.agents, os.Stdin, os.Stdout, app.logger)
	return r.Run()
}
