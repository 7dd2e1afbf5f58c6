package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/log"
)

// DefaultIgnoreGlobs excludes object-store and ref internals plus common
// dependency and build directories.
var DefaultIgnoreGlobs = []string{
	".git/objects",
	".git/logs",
	".git/refs",
	".git/hooks",
	"*.lock",
	"*.swp",
	"*~",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"target",
	".venv",
	"__pycache__",
	".DS_Store",
}

const (
	headFile      = "HEAD"
	indexFile     = "index"
	gitignoreFile = ".gitignore"
)

// pathFilter decides which filesystem events matter for a diff mode.
type pathFilter struct {
	root   string
	gitDir string
	mode   git.Mode

	globs gitignore.Matcher
	repo  gitignore.Matcher // nil when gitignore filtering is off or failed

	// branchRef is the ref HEAD points at, relative to gitDir ("" when detached).
	branchRef string
}

func newPathFilter(cfg Config, gitDir string) *pathFilter {
	patterns := make([]gitignore.Pattern, 0, len(cfg.IgnoreGlobs))
	for _, g := range cfg.IgnoreGlobs {
		if strings.TrimSpace(g) == "" {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(g, nil))
	}

	f := &pathFilter{
		root:   cfg.RepoRoot,
		gitDir: gitDir,
		mode:   cfg.Mode,
		globs:  gitignore.NewMatcher(patterns),
	}
	if cfg.UseGitignore {
		f.reloadGitignore()
	}
	f.refreshBranchRef()
	return f
}

// reloadGitignore rereads the repository's ignore rules. A failure leaves
// every path not ignored.
func (f *pathFilter) reloadGitignore() {
	patterns, err := gitignore.ReadPatterns(osfs.New(f.root), nil)
	if err != nil {
		log.Warn(log.CatWatcher, "Failed to read gitignore rules", "root", f.root, "error", err)
		f.repo = nil
		return
	}
	f.repo = gitignore.NewMatcher(patterns)
	log.Debug(log.CatWatcher, "Loaded gitignore rules", "patterns", len(patterns))
}

// refreshBranchRef records which ref file a commit on the current branch
// rewrites.
func (f *pathFilter) refreshBranchRef() {
	data, err := os.ReadFile(filepath.Join(f.gitDir, headFile)) //nolint:gosec // git metadata
	if err != nil {
		f.branchRef = ""
		return
	}
	line := strings.TrimSpace(string(data))
	ref, ok := strings.CutPrefix(line, "ref:")
	if !ok {
		f.branchRef = ""
		return
	}
	f.branchRef = filepath.FromSlash(strings.TrimSpace(ref))
}

// watchesWorktree reports whether the mode compares against the working
// directory or the index.
func (f *pathFilter) watchesWorktree() bool {
	return f.mode == git.ModeWorking || f.mode == git.ModeStaged
}

// classify maps an event to a change type. ok is false for irrelevant
// events.
func (f *pathFilter) classify(event fsnotify.Event) (ChangeType, bool) {
	if event.Op == fsnotify.Chmod || event.Name == "" {
		return "", false
	}

	if rel, inGitDir := relTo(f.gitDir, event.Name); inGitDir {
		switch {
		case rel == headFile:
			return ChangeCommit, true
		case f.branchRef != "" && rel == f.branchRef:
			return ChangeCommit, true
		case rel == indexFile && f.watchesWorktree():
			return ChangeStaging, true
		}
		return "", false
	}

	if !f.watchesWorktree() {
		return "", false
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}
	if f.Ignored(event.Name, isDir) {
		return "", false
	}
	return ChangeFile, true
}

// Ignored reports whether path is excluded by the ignore globs or the
// repository's own ignore rules. Paths outside the root are never ignored.
func (f *pathFilter) Ignored(path string, isDir bool) bool {
	rel, ok := relTo(f.root, path)
	if !ok || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	if matchesPrefix(f.globs, parts, isDir) {
		return true
	}
	if f.repo != nil && matchesPrefix(f.repo, parts, isDir) {
		return true
	}
	return false
}

// matchesPrefix matches path and each of its parent directories, so
// anything under an excluded directory is excluded too.
func matchesPrefix(m gitignore.Matcher, parts []string, isDir bool) bool {
	for i := 1; i <= len(parts); i++ {
		dir := isDir || i < len(parts)
		if m.Match(parts[:i], dir) {
			return true
		}
	}
	return false
}

// relTo returns path relative to base when path lies inside base.
func relTo(base, path string) (string, bool) {
	if base == "" {
		return "", false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
