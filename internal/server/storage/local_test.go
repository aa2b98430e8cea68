package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(t *testing.T, dir, name string, content []byte) models.UploadedFile {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return models.UploadedFile{OriginalName: name, StagingPath: p, Size: int64(len(content))}
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"a.png":            "a.png",
		"folder/a.png":     "a.png",
		"../../etc/passwd": "passwd",
		`folder\b.jpg`:     "b.jpg",
	}
	for in, want := range cases {
		got, err := SafeName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", ".", "..", "/", "a/.."} {
		_, err := SafeName(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocalStore_RelocateMovesBytes(t *testing.T) {
	staging := t.TempDir()
	root := filepath.Join(t.TempDir(), "ClientDataUpload")

	a := stage(t, staging, "a.png", []byte("alpha"))
	b := stage(t, staging, "b.jpg", []byte{0, 1, 2, 3, 255})

	s := NewLocalStore(root)
	require.NoError(t, s.Relocate(context.Background(), 42, []models.UploadedFile{a, b}))

	got, err := os.ReadFile(filepath.Join(root, "42", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), got)

	got, err = os.ReadFile(filepath.Join(root, "42", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 255}, got)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_ZeroFilesCreatesDirectory(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)

	require.NoError(t, s.Relocate(context.Background(), 7, nil))

	st, err := os.Stat(filepath.Join(root, "7"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestLocalStore_SameNameReplaces(t *testing.T) {
	staging := t.TempDir()
	root := t.TempDir()
	s := NewLocalStore(root)

	require.NoError(t, s.Relocate(context.Background(), 1, []models.UploadedFile{stage(t, staging, "x.txt", []byte("one"))}))
	require.NoError(t, s.Relocate(context.Background(), 1, []models.UploadedFile{stage(t, staging, "x.txt", []byte("two"))}))

	got, err := os.ReadFile(filepath.Join(root, "1", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestLocalStore_MissingStagedFile(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	err := s.Relocate(context.Background(), 3, []models.UploadedFile{
		{OriginalName: "gone.png", StagingPath: filepath.Join(t.TempDir(), "missing")},
	})
	assert.ErrorContains(t, err, "relocate gone.png")
}

func TestLocalStore_CancelledContext(t *testing.T) {
	staging := t.TempDir()
	root := t.TempDir()
	f := stage(t, staging, "a.png", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLocalStore(root).Relocate(ctx, 5, []models.UploadedFile{f})
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(f.StagingPath)
	assert.NoError(t, statErr)
}

func TestLocalStore_Remove(t *testing.T) {
	staging := t.TempDir()
	root := t.TempDir()
	s := NewLocalStore(root)

	require.NoError(t, s.Relocate(context.Background(), 9, []models.UploadedFile{stage(t, staging, "a", []byte("a"))}))
	require.NoError(t, s.Remove(context.Background(), 9))

	_, err := os.Stat(s.ProjectDir(9))
	assert.True(t, os.IsNotExist(err))

	// removing a project with no files is not an error
	require.NoError(t, s.Remove(context.Background(), 10))
}

func TestWithMetrics(t *testing.T) {
	m := metrics.New(nil)
	root := t.TempDir()
	s := WithMetrics(NewLocalStore(root), "local", m)

	require.NoError(t, s.Relocate(context.Background(), 1, nil))
	require.NoError(t, s.Remove(context.Background(), 1))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOperationsTotal.WithLabelValues("local", "relocate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOperationsTotal.WithLabelValues("local", "remove", "success")))

	plain := NewLocalStore(root)
	assert.Same(t, plain, WithMetrics(plain, "local", nil))
}
