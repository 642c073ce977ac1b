package revision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.html")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestStamp(t *testing.T) {
	dir := t.TempDir()
	hash := commitFile(t, dir)

	rev, err := Stamp(dir)
	require.NoError(t, err)
	assert.Equal(t, hash, rev.Commit)
	assert.Equal(t, "master", rev.Branch)
	assert.False(t, rev.Dirty)

	t.Run("dirty worktree", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>changed</html>"), 0o644))
		rev, err := Stamp(dir)
		require.NoError(t, err)
		assert.True(t, rev.Dirty)
	})

	t.Run("subdirectory finds the repository", func(t *testing.T) {
		sub := filepath.Join(dir, "src", "components")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		rev, err := Stamp(sub)
		require.NoError(t, err)
		assert.Equal(t, hash, rev.Commit)
	})
}

func TestStamp_NotRepository(t *testing.T) {
	_, err := Stamp(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0123456", Short("0123456789abcdef"))
	assert.Equal(t, "abc", Short("abc"))
}
