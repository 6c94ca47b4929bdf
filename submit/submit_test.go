package submit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaverPlan(t *testing.T) {
	dir := t.TempDir()
	s := Saver{Dir: dir}

	p, err := s.Plan("train.bash")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "train.bash"), p.Path)
	require.False(t, p.Renamed)
	require.False(t, p.Replaces)
	require.NoError(t, s.Commit(p, "echo 1\n"))

	// the name is taken now, so the next plan moves to --1
	p2, err := s.Plan("train.bash")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "train--1.bash"), p2.Path)
	require.True(t, p2.Renamed)
	require.NoError(t, s.Commit(p2, "echo 2\n"))

	p3, err := s.Plan("train.bash")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "train--2.bash"), p3.Path)

	data, err := os.ReadFile(p.Path)
	require.NoError(t, err)
	require.Equal(t, "echo 1\n", string(data))
}

func TestSaverSkipsSuffixGaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.bash"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job--5.bash"), []byte("b"), 0o644))

	p, err := Saver{Dir: dir}.Plan("job.bash")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "job--6.bash"), p.Path)
}

func TestSaverOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.bash"), []byte("old"), 0o644))

	s := Saver{Dir: dir, Overwrite: true}
	p, err := s.Plan("train.bash")
	require.NoError(t, err)
	require.True(t, p.Replaces)
	require.False(t, p.Renamed)
	require.NoError(t, s.Commit(p, "new"))

	data, err := os.ReadFile(p.Path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestSaverCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "deep")
	s := Saver{Dir: dir}

	p, err := s.Plan("job.bash")
	require.NoError(t, err)
	require.NoError(t, s.Commit(p, "echo hi\n"))

	data, err := os.ReadFile(filepath.Join(dir, "job.bash"))
	require.NoError(t, err)
	require.Equal(t, "echo hi\n", string(data))
}
