// Package git shapes diff requests into git invocations and runs them.
package git

import (
	"context"

	"github.com/zjrosen/diffnav/internal/diff"
)

// GitExecutor is the version-control collaborator. Every call runs in the
// repository the executor was created for.
// This abstraction allows for easy testing with fake implementations.
type GitExecutor interface {
	// VerifyRevision returns ErrUnknownRevision if rev does not name a commit.
	VerifyRevision(ctx context.Context, rev string) error
	// ListChanges runs a `git diff --name-status -z` style command.
	ListChanges(ctx context.Context, args []string) ([]diff.Change, error)
	// Diff runs a git diff command and returns its raw output.
	Diff(ctx context.Context, args []string) (string, error)
	// UntrackedFiles returns paths not tracked and not ignored.
	UntrackedFiles(ctx context.Context) ([]string, error)
	// ReadFile returns a file's contents from the given source. ok is false
	// when the file does not exist there.
	ReadFile(ctx context.Context, src Source, path string) (data []byte, ok bool, err error)
	// RepoRoot returns the absolute path of the worktree root.
	RepoRoot(ctx context.Context) (string, error)
}
