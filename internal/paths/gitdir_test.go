package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveGitDir_Directory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	require.Equal(t, filepath.Join(root, ".git"), ResolveGitDir(root))
	require.Equal(t, filepath.Join(root, ".git"), ResolveGitDir(filepath.Join(root, ".git")))
}

func TestResolveGitDir_Missing(t *testing.T) {
	root := t.TempDir()
	require.Equal(t, filepath.Join(root, ".git"), ResolveGitDir(root))
}

func TestResolveGitDir_Empty(t *testing.T) {
	require.Equal(t, ".git", ResolveGitDir(""))
}

func TestResolveGitDir_AbsoluteRedirect(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "worktrees", "feature")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: "+target+"\n"), 0o644))

	require.Equal(t, target, ResolveGitDir(root))
}

func TestResolveGitDir_RelativeRedirect(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: ../main/.git/worktrees/x"), 0o644))

	want := filepath.Clean(filepath.Join(root, "../main/.git/worktrees/x"))
	require.Equal(t, want, ResolveGitDir(root))
}

func TestResolveGitDir_FileWithoutPrefix(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("garbage"), 0o644))

	require.Equal(t, filepath.Join(root, ".git"), ResolveGitDir(root))
}
