package memstore_test

import (
	"testing"

	"github.com/jrsteele09/go-care-client/credentials"
	"github.com/jrsteele09/go-care-client/credentials/memstore"
	"github.com/stretchr/testify/require"
)

func TestStore_EmptyReadsAsAbsent(t *testing.T) {
	s := memstore.New()
	pair := s.Get()
	require.False(t, pair.HasAccess())
	require.False(t, pair.HasRefresh())
}

func TestStore_SetKeepsRefreshWhenNotReissued(t *testing.T) {
	s := memstore.New()
	s.Set("access-1", "refresh-1")
	require.Equal(t, credentials.Pair{Access: "access-1", Refresh: "refresh-1"}, s.Get())

	s.Set("access-2", "")
	require.Equal(t, credentials.Pair{Access: "access-2", Refresh: "refresh-1"}, s.Get())

	s.Set("access-3", "refresh-3")
	require.Equal(t, credentials.Pair{Access: "access-3", Refresh: "refresh-3"}, s.Get())
}

func TestStore_Clear(t *testing.T) {
	s := memstore.NewWithPair(credentials.Pair{Access: "a", Refresh: "r"})
	s.Clear()
	require.Equal(t, credentials.Pair{}, s.Get())
}
