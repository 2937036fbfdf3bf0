package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tribunal/internal/config"
	"tribunal/internal/session"
	"tribunal/internal/template"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Scaffold the review workspace in the current directory",
	Long: `Create the review/ workspace with editable copies of the built-in round
templates and agent personas, plus a sample tribunal.yaml. Existing files are
left untouched.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

const sampleConfig = `# tribunal configuration (all keys optional; built-in defaults shown)
session:
  prefix: tribunal
  backend: tmux        # tmux | pty

review:
  file_patterns: ["*.go", "*.py", "*.ts", "*.js", "*.rs"]
  max_files: 30
  max_rounds: 4
  requirements_file: REQUIREMENTS.md
  # severity_by_round:
  #   "2": "High and Above"

inject:
  line_delay_ms: 300
  persona_ack_timeout_seconds: 5
  llm_start_timeout_seconds: 15

agents:
  - name: claude
    role: Architecture Reviewer
    command: [claude]
  - name: codex
    role: Correctness Reviewer
    command: [codex]
  - name: gemini
    role: Security Reviewer
    command: [gemini]

logging:
  level: INFO
`

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	dirs := []string{session.DirName, cfg.Review.TemplateDir, cfg.Review.PersonaDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var written, skipped int
	for _, name := range template.DefaultFiles() {
		dir := cfg.Review.TemplateDir
		target := name
		if agentName, ok := strings.CutPrefix(name, "persona-"); ok {
			// Personas are looked up by agent name in the persona dir.
			dir = cfg.Review.PersonaDir
			target = agentName
		}
		path := filepath.Join(dir, target)
		if _, err := os.Stat(path); err == nil {
			skipped++
			continue
		}
		body, err := template.DefaultContent(name)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", name, err)
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}

	if _, err := os.Stat("tribunal.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("tribunal.yaml", []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("write tribunal.yaml: %w", err)
		}
		written++
	} else {
		skipped++
	}

	fmt.Printf("workspace ready: %d files written, %d already present\n", written, skipped)
	fmt.Println("edit tribunal.yaml and the files under review/ to taste, then run 'tribunal check'")
	return nil
}
