// Package config defines the tribunal configuration surface and its defaults.
// Configuration is loaded by viper from tribunal.yaml (working directory or
// $HOME/.config/tribunal) with TRIBUNAL_* environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete tribunal configuration
type Config struct {
	Session SessionConfig `mapstructure:"session"`
	Review  ReviewConfig  `mapstructure:"review"`
	Inject  InjectConfig  `mapstructure:"inject"`
	Agents  []AgentConfig `mapstructure:"agents"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SessionConfig controls workspace/session behavior
type SessionConfig struct {
	// Prefix is prepended to the backend session name (default: "tribunal")
	Prefix string `mapstructure:"prefix"`
	// Backend selects the terminal backend: "tmux" or "pty"
	Backend string `mapstructure:"backend"`
}

// ReviewConfig controls round construction
type ReviewConfig struct {
	// FilePatterns is the glob set selecting source files for review context
	FilePatterns []string `mapstructure:"file_patterns"`
	// MaxFiles caps how many full file bodies enter the context document.
	// Matches beyond the cap appear only as truncation markers.
	MaxFiles int `mapstructure:"max_files"`
	// MaxRounds is the round after which the Final template applies
	MaxRounds int `mapstructure:"max_rounds"`
	// RequirementsFile is an optional document appended to every context
	RequirementsFile string `mapstructure:"requirements_file"`
	// SeverityByRound overrides the built-in round→focus mapping.
	// Keys are round numbers as strings (yaml map keys).
	SeverityByRound map[string]string `mapstructure:"severity_by_round"`
	// TemplateDir holds operator-authored templates; embedded defaults are
	// used for any template id not found there
	TemplateDir string `mapstructure:"template_dir"`
	// PersonaDir holds operator-authored personas, same fallback rule
	PersonaDir string `mapstructure:"persona_dir"`
}

// InjectConfig controls text-injection pacing. Delivery is fire-and-forget;
// these delays are the only synchronization with the receiving CLI.
type InjectConfig struct {
	// LineDelayMs is the pause after each injected line (default: 300)
	LineDelayMs int `mapstructure:"line_delay_ms"`
	// PersonaAckTimeoutSeconds is the pause between persona and prompt delivery
	PersonaAckTimeoutSeconds int `mapstructure:"persona_ack_timeout_seconds"`
	// LLMStartTimeoutSeconds is the pause between agent launch and persona delivery
	LLMStartTimeoutSeconds int `mapstructure:"llm_start_timeout_seconds"`
}

// AgentConfig describes one reviewer CLI
type AgentConfig struct {
	// Name is the agent identity used in filenames and router addressing
	Name string `mapstructure:"name"`
	// Role is the role label substituted into templates
	Role string `mapstructure:"role"`
	// Command is the argv launching the interactive CLI
	Command []string `mapstructure:"command"`
	// ProbeArgs are appended to Command[0] by `check` to verify the CLI
	// is installed and authenticated (default: --version)
	ProbeArgs []string `mapstructure:"probe_args"`
}

// LoggingConfig controls the structured debug log
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Prefix:  "tribunal",
			Backend: "tmux",
		},
		Review: ReviewConfig{
			FilePatterns:     []string{"*.go", "*.py", "*.ts", "*.js", "*.rs"},
			MaxFiles:         30,
			MaxRounds:        4,
			RequirementsFile: "REQUIREMENTS.md",
			TemplateDir:      "review/templates",
			PersonaDir:       "review/personas",
		},
		Inject: InjectConfig{
			LineDelayMs:              300,
			PersonaAckTimeoutSeconds: 5,
			LLMStartTimeoutSeconds:   15,
		},
		Agents: []AgentConfig{
			{Name: "claude", Role: "Architecture Reviewer", Command: []string{"claude"}},
			{Name: "codex", Role: "Correctness Reviewer", Command: []string{"codex"}},
			{Name: "gemini", Role: "Security Reviewer", Command: []string{"gemini"}},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("session.prefix", defaults.Session.Prefix)
	viper.SetDefault("session.backend", defaults.Session.Backend)

	viper.SetDefault("review.file_patterns", defaults.Review.FilePatterns)
	viper.SetDefault("review.max_files", defaults.Review.MaxFiles)
	viper.SetDefault("review.max_rounds", defaults.Review.MaxRounds)
	viper.SetDefault("review.requirements_file", defaults.Review.RequirementsFile)
	viper.SetDefault("review.template_dir", defaults.Review.TemplateDir)
	viper.SetDefault("review.persona_dir", defaults.Review.PersonaDir)

	viper.SetDefault("inject.line_delay_ms", defaults.Inject.LineDelayMs)
	viper.SetDefault("inject.persona_ack_timeout_seconds", defaults.Inject.PersonaAckTimeoutSeconds)
	viper.SetDefault("inject.llm_start_timeout_seconds", defaults.Inject.LLMStartTimeoutSeconds)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Get unmarshals the current viper state into a Config. The built-in agent
// roster applies when the config file defines none.
func Get() *Config {
	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return Default()
	}
	if len(cfg.Agents) == 0 {
		cfg.Agents = Default().Agents
	}
	return cfg
}

// ConfigDir returns the user-level configuration directory
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tribunal"
	}
	return filepath.Join(home, ".config", "tribunal")
}

// SeverityOverrides converts the string-keyed severity_by_round map into the
// integer-keyed form used by the round state machine. Unparseable keys are
// dropped.
func (r ReviewConfig) SeverityOverrides() map[int]string {
	if len(r.SeverityByRound) == 0 {
		return nil
	}
	out := make(map[int]string, len(r.SeverityByRound))
	for k, v := range r.SeverityByRound {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			continue
		}
		out[n] = v
	}
	return out
}

// LineDelay returns the injection pacing delay as a duration
func (i InjectConfig) LineDelay() time.Duration {
	return time.Duration(i.LineDelayMs) * time.Millisecond
}

// PersonaAckTimeout returns the persona handshake pause as a duration
func (i InjectConfig) PersonaAckTimeout() time.Duration {
	return time.Duration(i.PersonaAckTimeoutSeconds) * time.Second
}

// LLMStartTimeout returns the agent startup pause as a duration
func (i InjectConfig) LLMStartTimeout() time.Duration {
	return time.Duration(i.LLMStartTimeoutSeconds) * time.Second
}

// Probe returns the argv used by preflight to verify this agent's CLI
func (a AgentConfig) Probe() []string {
	if len(a.Command) == 0 {
		return nil
	}
	probe := a.ProbeArgs
	if len(probe) == 0 {
		probe = []string{"--version"}
	}
	return append([]string{a.Command[0]}, probe...)
}
