package review

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"tribunal/internal/logging"
)

// Document is the aggregated review payload for one round. Fields map onto
// the template placeholders; nothing is summarized or compressed — growth is
// bounded only by the file cap, not per-file size.
type Document struct {
	Source          string
	Requirements    string
	PreviousReviews string
	FilesIncluded   int
	FilesOmitted    int
}

// Builder assembles review context documents.
type Builder struct {
	fs               afero.Fs
	root             string
	patterns         []string
	maxFiles         int
	requirementsFile string
	logger           *logging.Logger
}

// NewBuilder creates a context Builder scanning root for files whose base
// name matches any of patterns.
func NewBuilder(fs afero.Fs, root string, patterns []string, maxFiles int, requirementsFile string, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Builder{
		fs:               fs,
		root:             root,
		patterns:         patterns,
		maxFiles:         maxFiles,
		requirementsFile: requirementsFile,
		logger:           logger,
	}
}

// skipDirs are never scanned for review sources.
var skipDirs = map[string]bool{
	"review":       true,
	"node_modules": true,
	"vendor":       true,
	".git":         true,
}

// Build assembles the context for round n. For n > 1 the full transcript of
// round n-1 (prevDir) is included for every agent — only the immediately
// preceding round, never deeper history; missing logs are skipped without
// failure.
func (b *Builder) Build(n int, prevDir string, agents []string) (*Document, error) {
	doc := &Document{}

	matches, err := b.matchFiles()
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}

	var src strings.Builder
	for i, path := range matches {
		if b.maxFiles > 0 && i >= b.maxFiles {
			// Beyond the cap the file is represented only by a marker,
			// never its content.
			fmt.Fprintf(&src, "<!-- omitted: %s (file cap %d reached) -->\n", path, b.maxFiles)
			doc.FilesOmitted++
			continue
		}
		data, err := afero.ReadFile(b.fs, path)
		if err != nil {
			b.logger.Warn("unreadable source skipped", "path", path, "error", err)
			continue
		}
		fmt.Fprintf(&src, "### %s\n\n```\n%s\n```\n\n", path, strings.TrimRight(string(data), "\n"))
		doc.FilesIncluded++
	}
	doc.Source = src.String()

	if b.requirementsFile != "" {
		if data, err := afero.ReadFile(b.fs, filepath.Join(b.root, b.requirementsFile)); err == nil {
			doc.Requirements = string(data)
		}
	}

	if n > 1 && prevDir != "" {
		doc.PreviousReviews = b.previousReviews(prevDir, agents)
	}
	return doc, nil
}

// matchFiles walks the tree under root and returns, sorted, every file whose
// base name matches an inclusion pattern.
func (b *Builder) matchFiles() ([]string, error) {
	var matches []string
	err := afero.Walk(b.fs, b.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] || (strings.HasPrefix(info.Name(), ".") && path != b.root) {
				return filepath.SkipDir
			}
			return nil
		}
		for _, pat := range b.patterns {
			if ok, _ := filepath.Match(pat, info.Name()); ok {
				matches = append(matches, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// previousReviews concatenates each agent's full transcript from the
// previous round under a labeled section. Absent logs are tolerated, not
// fatal.
func (b *Builder) previousReviews(prevDir string, agents []string) string {
	var out strings.Builder
	for _, name := range agents {
		logPath := filepath.Join(prevDir, name+".log")
		data, err := afero.ReadFile(b.fs, logPath)
		if err != nil {
			b.logger.Warn("previous-round log missing", "agent", name, "path", logPath)
			continue
		}
		fmt.Fprintf(&out, "### Review by %s\n\n%s\n\n", name, strings.TrimRight(string(data), "\n"))
	}
	return out.String()
}
