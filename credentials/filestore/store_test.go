package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-care-client/credentials"
	"github.com/jrsteele09/go-care-client/credentials/filestore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *filestore.Store {
	t.Helper()
	s, err := filestore.New(t.TempDir(), "session", zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestStore_MissingFileReadsAsEmpty(t *testing.T) {
	s := newStore(t)
	require.Equal(t, credentials.Pair{}, s.Get())
}

func TestStore_SetPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s, err := filestore.New(dir, "nurse-station", zerolog.Nop())
	require.NoError(t, err)

	s.Set("access-1", "refresh-1")

	reopened, err := filestore.New(dir, "nurse-station", zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{Access: "access-1", Refresh: "refresh-1"}, reopened.Get())

	info, err := os.Stat(filepath.Join(dir, "nurse-station.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_SetKeepsRefreshWhenNotReissued(t *testing.T) {
	s := newStore(t)
	s.Set("access-1", "refresh-1")
	s.Set("access-2", "")
	require.Equal(t, credentials.Pair{Access: "access-2", Refresh: "refresh-1"}, s.Get())
}

func TestStore_ClearRemovesFile(t *testing.T) {
	s := newStore(t)
	s.Set("access-1", "refresh-1")
	s.Clear()

	_, err := os.Stat(s.Path())
	require.True(t, os.IsNotExist(err))
	require.Equal(t, credentials.Pair{}, s.Get())

	// Clearing twice is harmless.
	s.Clear()
}

func TestStore_MalformedFileReadsAsEmpty(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))
	require.Equal(t, credentials.Pair{}, s.Get())
}

func TestNew_RejectsPathLikeSessionNames(t *testing.T) {
	for _, name := range []string{"", "  ", "../escape", "a/b", ".hidden"} {
		_, err := filestore.New(t.TempDir(), name, zerolog.Nop())
		require.Error(t, err, "session %q", name)
	}
}
