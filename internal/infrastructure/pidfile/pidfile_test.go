package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "logrelay.pid")
	p := New(path)

	// Act
	require.NoError(t, p.Acquire())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	require.NoError(t, p.Release())
	assert.NoFileExists(t, path)
}

func TestAcquire_ReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logrelay.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))

	require.NoError(t, New(path).Acquire())
}

func TestAcquire_RejectsLiveOwner(t *testing.T) {
	// Arrange: the parent of the test binary is alive for the whole run
	path := filepath.Join(t.TempDir(), "logrelay.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o644))
	p := New(path)

	// Act
	err := p.Acquire()

	// Assert
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.NoError(t, p.Release())
	assert.FileExists(t, path, "a file owned by another process is left alone")
}

func TestRelease_MissingFile(t *testing.T) {
	assert.NoError(t, New(filepath.Join(t.TempDir(), "absent.pid")).Release())
}
