package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/pubsub"
	"github.com/zjrosen/diffnav/internal/watcher"
)

func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "refs", "heads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	return dir
}

func startWatcher(t *testing.T, dir string, mode git.Mode) (*watcher.Watcher, *watcher.Listener) {
	t.Helper()
	cfg := watcher.DefaultConfig(dir, mode)
	cfg.Debounce = 50 * time.Millisecond

	w, err := watcher.New(cfg)
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })
	require.NoError(t, w.Start(), "failed to start watcher")

	l := w.Register()
	select {
	case ev := <-l.Events:
		require.Equal(t, pubsub.ConnectedEvent, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("missing connected event")
	}
	return w, l
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := setupRepo(t)
	_, l := startWatcher(t, dir, git.ModeWorking)

	// Rapid writes should coalesce into single notification
	for i := range 10 {
		err := os.WriteFile(filepath.Join(dir, "main.go"), []byte{byte(i)}, 0o644)
		require.NoError(t, err, "failed to write file")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case ev := <-l.Events:
		assert.Equal(t, pubsub.ReloadEvent, ev.Type)
		assert.Equal(t, watcher.ChangeFile, ev.Payload.ChangeType)
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	select {
	case <-l.Events:
		t.Fatal("should have only one notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	dir := setupRepo(t)
	_, l := startWatcher(t, dir, git.ModeWorking)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "pkg"), 0o755))
	select {
	case <-l.Events:
	case <-time.After(time.Second):
		t.Fatal("expected notification for new directory")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "x.go"), []byte("package pkg"), 0o644))
	select {
	case ev := <-l.Events:
		assert.Equal(t, pubsub.ReloadEvent, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected notification for file in new directory")
	}
}

func TestWatcher_IgnoresGitignoredFiles(t *testing.T) {
	dir := setupRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))
	_, l := startWatcher(t, dir, git.ModeWorking)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))

	select {
	case <-l.Events:
		t.Fatal("should not notify for ignored files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_DefaultModeHeadChange(t *testing.T) {
	dir := setupRepo(t)
	_, l := startWatcher(t, dir, git.ModeDefault)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("x"), 0o644))
	select {
	case <-l.Events:
		t.Fatal("working tree edits do not affect the default view")
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "refs", "heads", "main"), []byte("abc\n"), 0o644))
	select {
	case ev := <-l.Events:
		assert.Equal(t, watcher.ChangeCommit, ev.Payload.ChangeType)
	case <-time.After(time.Second):
		t.Fatal("expected notification for branch ref update")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := setupRepo(t)
	w, err := watcher.New(watcher.DefaultConfig(dir, git.ModeWorking))
	require.NoError(t, err, "failed to create watcher")
	require.NoError(t, w.Start(), "failed to start watcher")

	// Stop should not hang or panic
	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/repo", git.ModeStaged)

	assert.Equal(t, "/repo", cfg.RepoRoot)
	assert.Equal(t, git.ModeStaged, cfg.Mode)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
	assert.True(t, cfg.UseGitignore)
	assert.Equal(t, watcher.DefaultIgnoreGlobs, cfg.IgnoreGlobs)
}

func TestMergeNotifications_KeepsHigherPriority(t *testing.T) {
	ev := func(c watcher.ChangeType, msg string) pubsub.Event[watcher.Notification] {
		return pubsub.Event[watcher.Notification]{
			Type:    pubsub.ReloadEvent,
			Payload: watcher.Notification{ChangeType: c, Message: msg},
		}
	}

	got := watcher.MergeNotifications(ev(watcher.ChangeCommit, "commit"), ev(watcher.ChangeFile, "file"))
	assert.Equal(t, "commit", got.Payload.Message)

	got = watcher.MergeNotifications(ev(watcher.ChangeFile, "file"), ev(watcher.ChangeStaging, "staging"))
	assert.Equal(t, "staging", got.Payload.Message)

	got = watcher.MergeNotifications(ev(watcher.ChangeFile, "first"), ev(watcher.ChangeFile, "second"))
	assert.Equal(t, "second", got.Payload.Message)
}
