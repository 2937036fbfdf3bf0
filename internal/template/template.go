// Package template renders per-agent review prompts by pure placeholder
// substitution. Substitution is lenient: a placeholder with no value
// collapses to an empty string and is never an error, though Render reports
// how many collapsed so callers can surface template drift.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Template ids selected by the round state machine
const (
	IDInitial = "initial"
	IDFocus   = "focus"
	IDFinal   = "final"
)

// Vars is the fixed placeholder set available to templates.
type Vars struct {
	Round           int    // {{ROUND}}
	Role            string // {{ROLE}}
	Severity        string // {{SEVERITY}}
	Context         string // {{CONTEXT}}
	Requirements    string // {{REQUIREMENTS}}
	Focus           string // {{FOCUS}}
	PreviousReviews string // {{PREVIOUS_REVIEWS}}
	FinalDirective  string // {{FINAL_DIRECTIVE}}
}

// placeholderRe matches any placeholder-shaped token left after known
// substitutions, so unresolved ones can be counted and blanked.
var placeholderRe = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// Render substitutes vars into body and returns the result plus the number
// of unresolved placeholders that were collapsed to empty strings. Identical
// inputs always produce identical output.
func Render(body string, vars Vars) (string, int) {
	replacer := strings.NewReplacer(
		"{{ROUND}}", strconv.Itoa(vars.Round),
		"{{ROLE}}", vars.Role,
		"{{SEVERITY}}", vars.Severity,
		"{{CONTEXT}}", vars.Context,
		"{{REQUIREMENTS}}", vars.Requirements,
		"{{FOCUS}}", vars.Focus,
		"{{PREVIOUS_REVIEWS}}", vars.PreviousReviews,
		"{{FINAL_DIRECTIVE}}", vars.FinalDirective,
	)
	out := replacer.Replace(body)

	unresolved := placeholderRe.FindAllString(out, -1)
	if len(unresolved) > 0 {
		out = placeholderRe.ReplaceAllString(out, "")
	}
	return out, len(unresolved)
}

// WithPersona prefixes a rendered prompt with the agent's persona text and a
// separator, establishing role priming before the task body.
func WithPersona(persona, prompt string) string {
	persona = strings.TrimRight(persona, "\n")
	if persona == "" {
		return prompt
	}
	return persona + "\n\n---\n\n" + prompt
}

// Load returns the template body for id, preferring an operator-authored
// file at {dir}/{id}.md and falling back to the embedded default.
func Load(fs afero.Fs, dir, id string) (string, error) {
	if dir != "" {
		if data, err := afero.ReadFile(fs, dir+"/"+id+".md"); err == nil {
			return string(data), nil
		}
	}
	data, err := defaults.ReadFile("defaults/" + id + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown template %q", id)
	}
	return string(data), nil
}

// LoadPersona returns the persona text for an agent, preferring
// {dir}/{name}.md, then the embedded default persona for that name, then a
// generic persona built from the role label.
func LoadPersona(fs afero.Fs, dir, name, role string) string {
	if dir != "" {
		if data, err := afero.ReadFile(fs, dir+"/"+name+".md"); err == nil {
			return string(data)
		}
	}
	if data, err := defaults.ReadFile("defaults/persona-" + name + ".md"); err == nil {
		return string(data)
	}
	return fmt.Sprintf("You are a %s on a multi-agent review panel. Review the code you are given strictly from that perspective and be specific: name files, lines, and concrete fixes.", role)
}
