package sweep

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init("", "debug", 0, 0, 0, true)
	os.Exit(m.Run())
}

func mkfile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newTestSweeper(base string, dryRun bool) (*Sweeper, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(base, WithDryRun(dryRun), WithOutput(&out, &errOut)), &out, &errOut
}

func TestRemoveSubdirRemovesEveryReports(t *testing.T) {
	base := t.TempDir()
	for _, task := range []string{"1", "2", "3"} {
		mkfile(t, filepath.Join(base, task, "reports", "report.json"), "{}")
		mkfile(t, filepath.Join(base, task, "binary"), "MZ")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(base, "4", "logs"), 0o755))
	mkfile(t, filepath.Join(base, "stray.txt"), "x")

	s, out, errOut := newTestSweeper(base, false)
	res, err := s.RemoveSubdir(context.Background(), "reports")
	require.NoError(t, err)

	assert.Equal(t, Result{Visited: 4, Matched: 3, Removed: 3}, res)
	assert.Empty(t, errOut.String())
	for _, task := range []string{"1", "2", "3"} {
		assert.NoDirExists(t, filepath.Join(base, task, "reports"))
		assert.FileExists(t, filepath.Join(base, task, "binary"))
		assert.Contains(t, out.String(), "Removed: "+filepath.Join(base, task, "reports"))
	}
	assert.DirExists(t, filepath.Join(base, "4", "logs"))
	assert.FileExists(t, filepath.Join(base, "stray.txt"))
}

func TestRemoveSubdirDryRun(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "7", "reports", "report.json"), "{}")

	s, out, _ := newTestSweeper(base, true)
	res, err := s.RemoveSubdir(context.Background(), "reports")
	require.NoError(t, err)

	assert.Equal(t, Result{Visited: 1, Matched: 1}, res)
	assert.Contains(t, out.String(), "[dry-run] Would remove: "+filepath.Join(base, "7", "reports"))
	assert.FileExists(t, filepath.Join(base, "7", "reports", "report.json"))
}

func TestRemoveSubdirIgnoresPlainFileNamedReports(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "reports"), "not a dir")

	s, out, _ := newTestSweeper(base, false)
	res, err := s.RemoveSubdir(context.Background(), "reports")
	require.NoError(t, err)
	assert.Zero(t, res.Matched)
	assert.Empty(t, out.String())
	assert.FileExists(t, filepath.Join(base, "1", "reports"))
}

func TestMissingBaseIsFatal(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing")
	s, out, _ := newTestSweeper(base, false)

	_, err := s.RemoveSubdir(context.Background(), "reports")
	require.ErrorIs(t, err, ErrBaseDirNotFound)
	_, err = s.ClearSubdirs(context.Background(), "files", "selfextracted")
	require.ErrorIs(t, err, ErrBaseDirNotFound)
	assert.Empty(t, out.String())
}

func TestBaseMustBeDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	mkfile(t, base, "x")
	s, _, _ := newTestSweeper(base, false)

	_, err := s.RemoveFile(context.Background(), "dump.pcap")
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestClearSubdirsKeepsParents(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "files", "a.bin"), "a")
	mkfile(t, filepath.Join(base, "1", "files", "nested", "b.bin"), "b")
	mkfile(t, filepath.Join(base, "1", "selfextracted", "c.bin"), "c")
	mkfile(t, filepath.Join(base, "2", "files", "d.bin"), "d")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "3", "selfextracted"), 0o755))
	mkfile(t, filepath.Join(base, "3", "reports", "report.json"), "{}")

	s, out, errOut := newTestSweeper(base, false)
	res, err := s.ClearSubdirs(context.Background(), "files", "selfextracted")
	require.NoError(t, err)
	assert.Empty(t, errOut.String())

	assert.Equal(t, 3, res.Visited)
	assert.Equal(t, 4, res.Matched)
	assert.Equal(t, 4, res.Removed)
	for _, dir := range []string{
		filepath.Join(base, "1", "files"),
		filepath.Join(base, "1", "selfextracted"),
		filepath.Join(base, "2", "files"),
		filepath.Join(base, "3", "selfextracted"),
	} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, dir)
	}
	assert.FileExists(t, filepath.Join(base, "3", "reports", "report.json"))
	assert.Contains(t, out.String(), "Cleared: "+filepath.Join(base, "1", "files"))
	assert.NotContains(t, out.String(), "Cleared: "+filepath.Join(base, "3", "selfextracted"))
}

func TestClearSubdirsDryRunListsRecursively(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "files", "a.bin"), "a")
	mkfile(t, filepath.Join(base, "1", "files", "nested", "b.bin"), "b")

	s, out, _ := newTestSweeper(base, true)
	res, err := s.ClearSubdirs(context.Background(), "files", "selfextracted")
	require.NoError(t, err)
	assert.Equal(t, Result{Visited: 1, Matched: 1}, res)

	filesDir := filepath.Join(base, "1", "files")
	expected := "[dry-run] Would delete: " + filepath.Join(filesDir, "a.bin") + "\n" +
		"[dry-run] Would delete: " + filepath.Join(filesDir, "nested") + "\n" +
		"[dry-run] Would delete: " + filepath.Join(filesDir, "nested", "b.bin") + "\n"
	assert.Equal(t, expected, out.String())
	assert.FileExists(t, filepath.Join(filesDir, "nested", "b.bin"))
}

func TestRemoveFile(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "dump.pcap"), "pcap")
	mkfile(t, filepath.Join(base, "1", "dump_sorted.pcap"), "pcap")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "2", "dump.pcap"), 0o755))

	s, _, _ := newTestSweeper(base, false)
	res, err := s.RemoveFile(context.Background(), "dump.pcap")
	require.NoError(t, err)
	assert.Equal(t, Result{Visited: 2, Matched: 1, Removed: 1}, res)
	assert.NoFileExists(t, filepath.Join(base, "1", "dump.pcap"))
	assert.FileExists(t, filepath.Join(base, "1", "dump_sorted.pcap"))
	assert.DirExists(t, filepath.Join(base, "2", "dump.pcap"))
}

func TestSymlinkedAnalysisDirIsVisited(t *testing.T) {
	base := t.TempDir()
	target := t.TempDir()
	mkfile(t, filepath.Join(target, "reports", "report.json"), "{}")
	require.NoError(t, os.Symlink(target, filepath.Join(base, "linked")))

	s, _, _ := newTestSweeper(base, false)
	dirs, err := s.AnalysisDirs()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(base, "linked")}, dirs)
}

func TestCancelledContextStopsWalk(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "reports", "report.json"), "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _, _ := newTestSweeper(base, false)
	res, err := s.RemoveSubdir(ctx, "reports")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Visited)
	assert.DirExists(t, filepath.Join(base, "1", "reports"))
}

func failOn(bad string) func(string) error {
	return func(path string) error {
		if path == bad {
			return &os.PathError{Op: "unlinkat", Path: path, Err: errors.New("device or resource busy")}
		}
		return os.RemoveAll(path)
	}
}

func TestRemoveSubdirFailureContinues(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "reports", "report.json"), "{}")
	mkfile(t, filepath.Join(base, "2", "reports", "report.json"), "{}")
	bad := filepath.Join(base, "1", "reports")

	s, out, errOut := newTestSweeper(base, false)
	s.removeAll = failOn(bad)
	res, err := s.RemoveSubdir(context.Background(), "reports")
	require.NoError(t, err)

	assert.Equal(t, Result{Visited: 2, Matched: 2, Removed: 1, Failed: 1}, res)
	assert.Contains(t, errOut.String(), "Failed to remove "+bad+": ")
	assert.NotContains(t, out.String(), "Removed: "+bad)
	assert.DirExists(t, bad)
	assert.NoDirExists(t, filepath.Join(base, "2", "reports"))
	assert.Contains(t, out.String(), "Removed: "+filepath.Join(base, "2", "reports"))
}

func TestClearSubdirsFailureContinues(t *testing.T) {
	base := t.TempDir()
	mkfile(t, filepath.Join(base, "1", "files", "locked.dll"), "MZ")
	mkfile(t, filepath.Join(base, "1", "files", "loose.bin"), "MZ")
	mkfile(t, filepath.Join(base, "2", "files", "dropped.exe"), "MZ")
	bad := filepath.Join(base, "1", "files", "locked.dll")

	s, out, errOut := newTestSweeper(base, false)
	s.removeAll = failOn(bad)
	res, err := s.ClearSubdirs(context.Background(), "files")
	require.NoError(t, err)

	assert.Equal(t, Result{Visited: 2, Matched: 2, Removed: 2, Failed: 1}, res)
	assert.Contains(t, errOut.String(), "Failed to remove "+bad+": ")
	assert.FileExists(t, bad)
	assert.NoFileExists(t, filepath.Join(base, "1", "files", "loose.bin"))
	assert.NoFileExists(t, filepath.Join(base, "2", "files", "dropped.exe"))
	assert.NotContains(t, out.String(), "Cleared: "+filepath.Join(base, "1", "files"))
	assert.Contains(t, out.String(), "Cleared: "+filepath.Join(base, "2", "files"))
}
