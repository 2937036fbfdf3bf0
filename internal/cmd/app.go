package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"tribunal/internal/agent"
	"tribunal/internal/backend"
	"tribunal/internal/config"
	"tribunal/internal/inject"
	"tribunal/internal/logging"
	"tribunal/internal/review"
	"tribunal/internal/session"
)

// app bundles the machinery shared by the session-driving subcommands.
type app struct {
	cfg     *config.Config
	fs      afero.Fs
	logger  *logging.Logger
	runner  backend.CmdRunner
	term    backend.Terminal
	mgr     *session.Manager
	agents  []*agent.Agent
	inj     *inject.Injector
	machine *review.Machine
}

func buildApp() (*app, error) {
	cfg := config.Get()
	fs := afero.NewOsFs()

	logger, err := logging.NewLogger(session.DirName, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}

	runner := &backend.ExecRunner{}
	term, err := backend.For(cfg.Session.Backend, runner)
	if err != nil {
		logger.Close()
		return nil, err
	}

	agents, err := agent.Roster(cfg.Agents)
	if err != nil {
		logger.Close()
		return nil, err
	}

	mgr := session.NewManager(fs, session.DirName, cfg.Session.Prefix, term, logger)
	inj := inject.New(term, cfg.Inject.LineDelay(), logger)
	machine := review.NewMachine(fs, term, inj, mgr, cfg, agents, logger)

	return &app{
		cfg:     cfg,
		fs:      fs,
		logger:  logger,
		runner:  runner,
		term:    term,
		mgr:     mgr,
		agents:  agents,
		inj:     inj,
		machine: machine,
	}, nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// projectID derives the project identifier from the working directory name.
func projectID() string {
	wd, err := os.Getwd()
	if err != nil {
		return "project"
	}
	return filepath.Base(wd)
}
