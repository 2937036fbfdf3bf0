// Package review implements the multi-round review protocol: the round state
// machine, severity tiers, context assembly, and per-round artifact layout.
package review

import (
	"tribunal/internal/template"
)

// Severity focus labels by round number. Rounds beyond the last defined tier
// reuse it rather than erroring.
const (
	FocusAllIssues       = "All Issues"
	FocusCriticalAndHigh = "Critical and High"
	FocusCriticalOnly    = "Critical Only"
	FocusShipBlocking    = "Ship-Blocking Only"
)

// FinalDirective is the final-round-only instruction demanding an explicit
// ship decision.
const FinalDirective = "End your review with exactly one verdict line: `VERDICT: SHIP` or `VERDICT: NO-SHIP`. A review without an explicit verdict is incomplete."

// Round is one bounded review cycle. Immutable once superseded by advance.
type Round struct {
	Number     int
	Focus      string
	TemplateID string
	Dir        string
}

// FocusForRound derives the severity focus from the round number. The
// mapping is pure; overrides (from severity_by_round config) replace
// individual tiers.
func FocusForRound(n int, overrides map[int]string) string {
	if v, ok := overrides[n]; ok {
		return v
	}
	switch {
	case n <= 1:
		return FocusAllIssues
	case n == 2:
		return FocusCriticalAndHigh
	case n == 3:
		return FocusCriticalOnly
	default:
		return FocusShipBlocking
	}
}

// TemplateForRound selects the template id for a round: the first round uses
// the initial template, the round reaching maxRounds (and everything after
// it) uses the final template, and the rounds between use the focus
// template.
func TemplateForRound(n, maxRounds int) string {
	if maxRounds < 1 {
		maxRounds = 1
	}
	switch {
	case n >= maxRounds:
		return template.IDFinal
	case n <= 1:
		return template.IDInitial
	default:
		return template.IDFocus
	}
}

// FocusPhrase returns the round-specific focus instruction substituted for
// the {{FOCUS}} placeholder.
func FocusPhrase(n int) string {
	switch {
	case n <= 1:
		return "This is the first pass: cast a wide net and report every issue you find, regardless of severity."
	case n == 2:
		return "Narrow the lens: only findings you would rate Critical or High belong in this round."
	case n == 3:
		return "Only truly Critical findings belong in this round; everything else is noise now."
	default:
		return "Only issues that would block shipping belong in this round."
	}
}
