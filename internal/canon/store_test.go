package canon

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, content string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Architecture", "ProjectStructure.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewStore(path, filepath.Join(dir, ".arbor", "canon.lock"))
}

func TestReadLines(t *testing.T) {
	s := newStore(t, "a\nb\n")
	lines, err := s.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestReadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.md"), "")
	_, err := s.Read()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	s := newStore(t, "a\nc\n")
	err := s.Update(func(lines []string) ([]string, error) {
		return []string{lines[0], "b", lines[1]}, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(data))
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newStore(t, "keep\n")
	boom := errors.New("boom")
	err := s.Update(func(lines []string) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "keep\n", string(data))
}

func TestUpdatesSerialize(t *testing.T) {
	s := newStore(t, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(func(lines []string) ([]string, error) {
				return append(lines, "x"), nil
			}))
		}()
	}
	wg.Wait()

	lines, err := s.ReadLines()
	require.NoError(t, err)
	assert.Len(t, lines, 20)
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "nested", "tree.md"), filepath.Join(dir, ".arbor", "canon.lock"))
	require.NoError(t, s.Write([]byte("x\n")))
	data, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}
