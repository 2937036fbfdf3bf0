package template

import "embed"

// defaults holds the built-in templates and personas materialized by
// `tribunal setup` and used as fallbacks when no operator-authored file
// exists.
//
//go:embed defaults/*.md
var defaults embed.FS

// DefaultFiles lists the embedded asset names (without the defaults/ prefix),
// used by setup to materialize editable copies.
func DefaultFiles() []string {
	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// DefaultContent returns the embedded body for an asset name from
// DefaultFiles.
func DefaultContent(name string) ([]byte, error) {
	return defaults.ReadFile("defaults/" + name)
}
