package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/log"
)

// Git-specific errors.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrUnknownRevision indicates a revision that does not resolve to a commit.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrPathNotFound indicates a path missing from the requested tree or index.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidSpec indicates an unsupported combination of target and base.
	ErrInvalidSpec = errors.New("invalid diff request")
)

// Compile-time check that RealExecutor implements GitExecutor.
var _ GitExecutor = (*RealExecutor)(nil)

// RealExecutor implements GitExecutor by executing actual git commands.
type RealExecutor struct {
	workDir string
}

// NewRealExecutor creates a new RealExecutor.
func NewRealExecutor(workDir string) *RealExecutor {
	return &RealExecutor{workDir: workDir}
}

// runGit executes a git command and returns an error if it fails.
func (e *RealExecutor) runGit(ctx context.Context, args ...string) error {
	_, err := e.runGitRaw(ctx, args...)
	return err
}

// runGitOutput executes a git command and returns trimmed stdout.
func (e *RealExecutor) runGitOutput(ctx context.Context, args ...string) (string, error) {
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// runGitRaw executes a git command and returns stdout untouched. Diff text
// and -z listings must not be trimmed.
func (e *RealExecutor) runGitRaw(ctx context.Context, args ...string) ([]byte, error) {
	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", args...)
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug(log.CatGit, "running git", "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("git %s: %w", args[0], ctxErr)
		}
		stderrStr := strings.TrimSpace(stderr.String())
		// Parse git-specific errors
		if stderrStr != "" {
			return nil, parseGitError(stderrStr, err)
		}
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return stdout.Bytes(), nil
}

// parseGitError converts git stderr messages to specific error types.
func parseGitError(stderr string, originalErr error) error {
	stderrLower := strings.ToLower(stderr)

	// Not a git repository
	if strings.Contains(stderrLower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}

	// fatal: path 'x' does not exist in 'HEAD'
	// fatal: path 'x' does not exist (neither on disk nor in the index)
	// fatal: path 'x' exists on disk, but not in the index
	if (strings.Contains(stderrLower, "path '") && strings.Contains(stderrLower, "does not exist")) ||
		strings.Contains(stderrLower, "exists on disk, but not in") ||
		strings.Contains(stderrLower, "is in the index, but not at stage") {
		return fmt.Errorf("%w: %s", ErrPathNotFound, stderr)
	}

	// fatal: bad revision 'x' / ambiguous argument 'x': unknown revision
	if strings.Contains(stderrLower, "unknown revision") ||
		strings.Contains(stderrLower, "bad revision") ||
		strings.Contains(stderrLower, "invalid object name") ||
		strings.Contains(stderrLower, "needed a single revision") ||
		strings.Contains(stderrLower, "bad object") {
		return fmt.Errorf("%w: %s", ErrUnknownRevision, stderr)
	}

	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}

// VerifyRevision checks that rev resolves to a commit.
func (e *RealExecutor) VerifyRevision(ctx context.Context, rev string) error {
	err := e.runGit(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotGitRepo) || errors.Is(err, ErrUnknownRevision) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnknownRevision, rev, err)
}

// ListChanges runs a name-status listing and parses it.
func (e *RealExecutor) ListChanges(ctx context.Context, args []string) ([]diff.Change, error) {
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return diff.ParseNameStatus(string(out))
}

// Diff runs a diff command and returns the raw unified diff.
func (e *RealExecutor) Diff(ctx context.Context, args []string) (string, error) {
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// UntrackedFiles returns untracked, non-ignored paths relative to the root.
func (e *RealExecutor) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := e.runGitRaw(ctx, "ls-files", "--others", "--exclude-standard", "--full-name", "-z")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, p := range strings.Split(string(out), "\x00") {
		if p != "" {
			files = append(files, p)
		}
	}
	return files, nil
}

// ReadFile reads path from a revision, the index or the worktree.
func (e *RealExecutor) ReadFile(ctx context.Context, src Source, path string) ([]byte, bool, error) {
	var object string
	switch src.Kind {
	case SourceNone:
		return nil, false, nil
	case SourceWorktree:
		root, err := e.RepoRoot(ctx)
		if err != nil {
			return nil, false, err
		}
		//nolint:gosec // G304: path comes from git's own listing
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading %s: %w", path, err)
		}
		return data, true, nil
	case SourceIndex:
		object = ":" + path
	case SourceRevision:
		object = src.Rev + ":" + path
	default:
		return nil, false, fmt.Errorf("unknown source kind %q", src.Kind)
	}

	// "<rev>:<path>" is resolved from the repository root.
	data, err := e.runGitRaw(ctx, "show", object)
	if errors.Is(err, ErrPathNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// RepoRoot returns the root directory of the git repository.
func (e *RealExecutor) RepoRoot(ctx context.Context) (string, error) {
	return e.runGitOutput(ctx, "rev-parse", "--show-toplevel")
}

// GitDir returns the absolute path of the repository's git directory.
func (e *RealExecutor) GitDir(ctx context.Context) (string, error) {
	return e.runGitOutput(ctx, "rev-parse", "--absolute-git-dir")
}

// IsGitRepo checks if the working directory is inside a git repository.
func (e *RealExecutor) IsGitRepo(ctx context.Context) bool {
	return e.runGit(ctx, "rev-parse", "--git-dir") == nil
}
