package loader

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/git"
)

// fakeExecutor answers from canned tables. Listing keys are the revision
// arguments joined by spaces; diff keys are the last argument (the path).
type fakeExecutor struct {
	mu sync.Mutex

	unknown   map[string]bool
	listings  map[string][]diff.Change
	listErrs  map[string]error
	diffs     map[string]string
	diffErrs  map[string]error
	untracked []string
	files     map[string]string // "<source>:<path>"
	readErrs  map[string]error

	verified  []string
	listCalls []string
	diffCalls int
}

var _ git.GitExecutor = (*fakeExecutor)(nil)

func newFake() *fakeExecutor {
	return &fakeExecutor{
		unknown:  map[string]bool{},
		listings: map[string][]diff.Change{},
		listErrs: map[string]error{},
		diffs:    map[string]string{},
		diffErrs: map[string]error{},
		files:    map[string]string{},
		readErrs: map[string]error{},
	}
}

// revKey strips the fixed flags from a listing command.
func revKey(args []string) string {
	var revs []string
	for _, a := range args {
		switch {
		case a == "diff", a == "--", strings.HasPrefix(a, "-") && a != "--cached":
			continue
		}
		revs = append(revs, a)
	}
	return strings.Join(revs, " ")
}

func (f *fakeExecutor) VerifyRevision(_ context.Context, rev string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, rev)
	if f.unknown[rev] {
		return git.ErrUnknownRevision
	}
	return nil
}

func (f *fakeExecutor) ListChanges(ctx context.Context, args []string) ([]diff.Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := revKey(args)
	f.listCalls = append(f.listCalls, key)
	if err := f.listErrs[key]; err != nil {
		return nil, err
	}
	return f.listings[key], nil
}

func (f *fakeExecutor) Diff(ctx context.Context, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffCalls++
	path := args[len(args)-1]
	if err := f.diffErrs[path]; err != nil {
		return "", err
	}
	return f.diffs[path], nil
}

func (f *fakeExecutor) UntrackedFiles(context.Context) ([]string, error) {
	return f.untracked, nil
}

func (f *fakeExecutor) ReadFile(_ context.Context, src git.Source, path string) ([]byte, bool, error) {
	if src.Kind == git.SourceNone {
		return nil, false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := src.String() + ":" + path
	if err := f.readErrs[key]; err != nil {
		return nil, false, err
	}
	if src.Kind == git.SourceRevision && f.unknown[src.Rev] {
		return nil, false, git.ErrUnknownRevision
	}
	data, ok := f.files[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(data), true, nil
}

func (f *fakeExecutor) RepoRoot(context.Context) (string, error) {
	return "/repo", nil
}

var errBoom = errors.New("boom")
