// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const gitdirPrefix = "gitdir:"

// ResolveGitDir resolves the metadata directory of the repository rooted
// at root, following the gitdir redirect file that linked worktrees and
// submodules place at <root>/.git.
//
// Input normalization:
//   - "/path/to/repo" -> "/path/to/repo/.git"
//   - "/path/to/repo/.git" -> "/path/to/repo/.git"
//   - "" -> "./.git"
//
// Redirect handling:
//   - If .git is a file containing "gitdir: <path>", the path is followed
//   - Relative redirect targets are resolved against the repo root
func ResolveGitDir(root string) string {
	if root == "" {
		root = "."
	}
	root = filepath.Clean(root)

	if filepath.Base(root) == ".git" {
		return followRedirect(filepath.Dir(root), root)
	}

	return followRedirect(root, filepath.Join(root, ".git"))
}

// followRedirect returns gitPath unless it is a regular file holding a
// gitdir line.
func followRedirect(root, gitPath string) string {
	info, err := os.Stat(gitPath)
	if err != nil || info.IsDir() {
		return gitPath
	}

	content, err := os.ReadFile(gitPath) //nolint:gosec // path is the repo's own .git entry
	if err != nil {
		return gitPath
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, gitdirPrefix) {
		return gitPath
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, gitdirPrefix))
	if target == "" {
		return gitPath
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target)
}
