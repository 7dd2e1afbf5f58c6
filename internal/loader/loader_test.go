package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/tracing"
)

const aDiff = `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,3 +1,3 @@
 package a
-var x = 1
+var x = 2
 // end
`

const bDiff = `diff --git a/b.go b/b.go
new file mode 100644
--- /dev/null
+++ b/b.go
@@ -0,0 +1,2 @@
+package b
+var y = 1
`

func headFake() *fakeExecutor {
	f := newFake()
	f.listings["HEAD^ HEAD"] = []diff.Change{
		{Status: diff.StatusModified, Path: "a.go"},
		{Status: diff.StatusAdded, Path: "b.go"},
	}
	f.diffs["a.go"] = aDiff
	f.diffs["b.go"] = bDiff
	return f
}

func TestLoad_DefaultTarget(t *testing.T) {
	f := headFake()
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	require.Equal(t, "a.go", res.Files[0].Path)
	require.Equal(t, "b.go", res.Files[1].Path)
	require.Equal(t, diff.Stats{Files: 2, Additions: 3, Deletions: 1}, res.Stats)
	require.False(t, res.IsEmpty)
	require.Equal(t, string(git.ModeDefault), res.DiffMode)
	require.Equal(t, "HEAD", res.Target)
	require.Equal(t, "HEAD^", res.Base)
	require.Equal(t, diff.ViewUnified, res.ViewMode)

	// A derived parent is never verified.
	require.Equal(t, []string{"HEAD"}, f.verified)
}

func TestLoad_UnknownRevisionFailsFast(t *testing.T) {
	f := headFake()
	f.unknown["nope"] = true
	l := New(f)

	_, err := l.Load(context.Background(), git.Request{Target: "nope"})
	require.ErrorIs(t, err, git.ErrUnknownRevision)
	require.Empty(t, f.listCalls, "no diff may run after a failed verification")
}

func TestLoad_InvalidSpec(t *testing.T) {
	f := newFake()
	l := New(f)

	_, err := l.Load(context.Background(), git.Request{Target: "working", Base: "main"})
	require.ErrorIs(t, err, git.ErrInvalidSpec)
	require.Empty(t, f.verified, "rejected before any git call")
	require.Empty(t, f.listCalls)
	require.Zero(t, f.diffCalls)
}

func TestLoad_RootCommitFallback(t *testing.T) {
	f := newFake()
	f.listErrs["HEAD^ HEAD"] = git.ErrUnknownRevision
	f.listings[git.EmptyTree+" HEAD"] = []diff.Change{{Status: diff.StatusAdded, Path: "b.go"}}
	f.diffs["b.go"] = bDiff
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Equal(t, diff.StatusAdded, res.Files[0].Status)
	require.Equal(t, []string{"HEAD^ HEAD", git.EmptyTree + " HEAD"}, f.listCalls)
}

func TestLoad_EmptyRangeIsNoChanges(t *testing.T) {
	f := newFake()
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{Target: "abc123"})
	require.NoError(t, err)
	require.True(t, res.IsEmpty)
	require.NotNil(t, res.Files)
	require.Equal(t, []string{"abc123^ abc123"}, f.listCalls)
}

func TestLoad_EmptyCommitWithParentSkipsEmptyTree(t *testing.T) {
	f := newFake()
	f.listings["HEAD^ HEAD"] = []diff.Change{}
	f.listings[git.EmptyTree+" HEAD"] = []diff.Change{{Status: diff.StatusAdded, Path: "b.go"}}
	f.diffs["b.go"] = bDiff
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.True(t, res.IsEmpty)
	require.Empty(t, res.Files)
	require.NotContains(t, f.listCalls, git.EmptyTree+" HEAD")
	require.Zero(t, f.diffCalls)
}

func TestLoad_ExplicitBaseHasNoFallback(t *testing.T) {
	f := newFake()
	f.listErrs["v1 v2"] = errBoom
	l := New(f)

	_, err := l.Load(context.Background(), git.Request{Target: "v2", Base: "v1"})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, []string{"v1 v2"}, f.listCalls)
	require.ElementsMatch(t, []string{"v1", "v2"}, f.verified)
}

func TestLoad_IgnoreWhitespaceHidesWhitespaceOnlyFiles(t *testing.T) {
	f := newFake()
	f.listings["HEAD"] = []diff.Change{{Status: diff.StatusModified, Path: "spaces.go"}}
	f.diffs["spaces.go"] = ""
	l := New(f, WithUntracked(false))

	res, err := l.Load(context.Background(), git.Request{Target: ".", IgnoreWhitespace: true})
	require.NoError(t, err)
	require.Empty(t, res.Files)
	require.True(t, res.IsEmpty)
	require.Equal(t, diff.Stats{}, res.Stats)
}

func TestLoad_IgnoreWhitespaceKeepsRealChanges(t *testing.T) {
	f := newFake()
	f.listings["HEAD"] = []diff.Change{
		{Status: diff.StatusModified, Path: "spaces.go"},
		{Status: diff.StatusModified, Path: "a.go"},
		{Status: diff.StatusAdded, Path: "empty.txt"},
		{Status: diff.StatusModified, Path: "broken.go"},
	}
	f.diffs["a.go"] = aDiff
	f.diffErrs["broken.go"] = errBoom
	l := New(f, WithUntracked(false))

	res, err := l.Load(context.Background(), git.Request{Target: ".", IgnoreWhitespace: true})
	require.NoError(t, err)
	require.False(t, res.IsEmpty)

	var paths []string
	for _, file := range res.Files {
		paths = append(paths, file.Path)
	}
	require.Equal(t, []string{"a.go", "empty.txt", "broken.go"}, paths)
	require.Equal(t, 3, res.Stats.Files)
}

func TestLoad_WhitespaceOnlyFileKeptWithoutFlag(t *testing.T) {
	f := newFake()
	f.listings["HEAD"] = []diff.Change{{Status: diff.StatusModified, Path: "spaces.go"}}
	l := New(f, WithUntracked(false))

	res, err := l.Load(context.Background(), git.Request{Target: "."})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
}

func TestLoad_PerFileFailureMarksFile(t *testing.T) {
	f := headFake()
	f.diffErrs["a.go"] = errBoom
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	failed := res.Files[0]
	require.True(t, failed.Failed())
	require.Equal(t, "a.go", failed.Path)
	require.Equal(t, diff.StatusModified, failed.Status)
	require.Empty(t, failed.Chunks)
	require.Contains(t, failed.LoadError, "boom")

	require.False(t, res.Files[1].Failed())
	require.Equal(t, 2, res.Stats.Additions)
}

func TestLoad_MalformedDiffMarksFile(t *testing.T) {
	f := headFake()
	f.diffs["a.go"] = "@@ -99999999999999999999999 +1 @@\n+bad\n"
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.True(t, res.Files[0].Failed())
}

func TestLoad_StagedUsesCached(t *testing.T) {
	f := newFake()
	f.listings["--cached HEAD"] = []diff.Change{{Status: diff.StatusModified, Path: "a.go"}}
	f.diffs["a.go"] = aDiff
	f.untracked = []string{"new.txt"}
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{Target: "staged", IgnoreWhitespace: true})
	require.NoError(t, err)
	require.Len(t, res.Files, 1, "staged view never shows untracked files")
	require.True(t, res.IgnoreWhitespace)
	require.Equal(t, string(git.ModeStaged), res.DiffMode)
	require.Empty(t, f.verified)
}

func TestLoad_WorkingIncludesUntracked(t *testing.T) {
	f := newFake()
	f.listings[""] = []diff.Change{{Status: diff.StatusModified, Path: "a.go"}}
	f.diffs["a.go"] = aDiff
	f.untracked = []string{"notes.txt", "gone.txt", "blob.bin"}
	f.files["worktree:notes.txt"] = "one\ntwo\n"
	f.files["worktree:blob.bin"] = "\x00\x01"
	l := New(f)

	res, err := l.Load(context.Background(), git.Request{Target: "working"})
	require.NoError(t, err)
	require.Len(t, res.Files, 4)

	notes := res.Files[1]
	require.Equal(t, "notes.txt", notes.Path)
	require.Equal(t, diff.StatusAdded, notes.Status)
	require.Equal(t, 2, notes.Additions)

	gone := res.Files[2]
	require.True(t, gone.Failed())
	require.Equal(t, diff.StatusAdded, gone.Status)

	require.True(t, res.Files[3].Binary)
}

func TestLoad_UntrackedDisabled(t *testing.T) {
	f := newFake()
	f.untracked = []string{"notes.txt"}
	f.files["worktree:notes.txt"] = "x\n"
	l := New(f, WithUntracked(false))

	res, err := l.Load(context.Background(), git.Request{Target: "."})
	require.NoError(t, err)
	require.True(t, res.IsEmpty)
}

func TestLoad_ManyFilesConcurrently(t *testing.T) {
	f := newFake()
	var changes []diff.Change
	for i := range 50 {
		p := fmt.Sprintf("f%02d.go", i)
		changes = append(changes, diff.Change{Status: diff.StatusModified, Path: p})
		f.diffs[p] = aDiff
	}
	f.listings["HEAD^ HEAD"] = changes
	l := New(f, WithConcurrency(4))

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.Len(t, res.Files, 50)
	for i, file := range res.Files {
		assert.Equal(t, changes[i].Path, file.Path, "order follows the listing")
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	f := headFake()
	l := New(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, git.Request{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_CachesUntilInvalidated(t *testing.T) {
	f := headFake()
	l := New(f)
	ctx := context.Background()

	first, err := l.Load(ctx, git.Request{})
	require.NoError(t, err)
	second, err := l.Load(ctx, git.Request{})
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Len(t, f.listCalls, 1)

	// A different request is a different entry.
	_, err = l.Load(ctx, git.Request{IgnoreWhitespace: true})
	require.NoError(t, err)
	require.Len(t, f.listCalls, 2)

	l.Invalidate()
	third, err := l.Load(ctx, git.Request{})
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Len(t, f.listCalls, 3)
}

func TestLoad_CacheDisabled(t *testing.T) {
	f := headFake()
	l := New(f, WithCacheTTL(0))

	for range 2 {
		_, err := l.Load(context.Background(), git.Request{})
		require.NoError(t, err)
	}
	require.Len(t, f.listCalls, 2)
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	f := headFake()
	f.unknown["HEAD"] = true
	l := New(f)

	_, err := l.Load(context.Background(), git.Request{})
	require.Error(t, err)

	delete(f.unknown, "HEAD")
	_, err = l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
}

func TestLoad_ViewModeEcho(t *testing.T) {
	l := New(headFake(), WithViewMode(diff.ViewSplit))

	res, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)
	require.Equal(t, diff.ViewSplit, res.ViewMode)
}

func TestLoad_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := headFake()
	f.diffErrs["a.go"] = errBoom
	l := New(f, WithTracer(tp.Tracer("test")), WithCacheTTL(0))

	_, err := l.Load(context.Background(), git.Request{})
	require.NoError(t, err)

	byName := map[string]int{}
	var fileErrors int
	for _, s := range recorder.Ended() {
		byName[s.Name()]++
		if s.Name() == tracing.SpanFile && s.Status().Code == codes.Error {
			fileErrors++
		}
	}
	require.Equal(t, 1, byName[tracing.SpanLoad])
	require.Equal(t, 1, byName[tracing.SpanList])
	require.Equal(t, 2, byName[tracing.SpanFile])
	require.Equal(t, 1, fileErrors)
}

func TestKeyFor(t *testing.T) {
	a := KeyFor(git.Request{Target: "HEAD"})
	require.Equal(t, a, KeyFor(git.Request{Target: "HEAD"}))
	require.NotEqual(t, a, KeyFor(git.Request{Target: "HEAD", ContextLines: 5}))
	require.NotEqual(t, a, KeyFor(git.Request{Target: "HEAD", Base: "main"}))
	require.NotEqual(t, KeyFor(git.Request{Target: "a", Base: "b"}), KeyFor(git.Request{Target: "ab"}))
}

func TestFailedFile_KeepsRenamePath(t *testing.T) {
	f := failedFile(diff.Change{Status: diff.StatusRenamed, Path: "new.go", OldPath: "old.go"}, errors.New("x"))
	require.Equal(t, "old.go", f.OldPath)

	f = failedFile(diff.Change{Path: "p.go", OldPath: "p.go"}, errors.New("x"))
	require.Empty(t, f.OldPath)
	require.Equal(t, diff.StatusModified, f.Status)
}
