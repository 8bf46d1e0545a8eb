package app_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-care-client/credentials/filestore"
	"github.com/jrsteele09/go-care-client/credentials/memstore"
	"github.com/jrsteele09/go-care-client/internal/app"
	"github.com/jrsteele09/go-care-client/internal/config"
	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
	"github.com/jrsteele09/go-care-client/internal/fakebackend"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Setenv("CARE_STORE", config.MemoryStore)
	s, err := app.NewStore(config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, s)

	t.Setenv("CARE_STORE", config.FileStore)
	t.Setenv("FOLDER", t.TempDir())
	s, err = app.NewStore(config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, s)

	t.Setenv("CARE_STORE", "cookie")
	_, err = app.NewStore(config.New(), zerolog.Nop())
	require.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestNew_FileSessionSurvivesRestartAndRefreshes(t *testing.T) {
	b := fakebackend.New()
	t.Cleanup(b.Close)
	b.SetTimeline("1", fakebackend.Timeline{ResidentID: 1, ResidentName: "Grace"})

	t.Setenv("CARE_BASE_URL", b.URL)
	t.Setenv("CARE_STORE", config.FileStore)
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("CARE_RATE_LIMIT", "50")

	first, err := app.New(context.Background(), config.New(), zerolog.Nop())
	require.NoError(t, err)
	pair := b.IssuePair("carer-2")
	first.Client.SetTokens(pair.Access, pair.Refresh)

	b.InvalidateAccessTokens()

	second, err := app.New(context.Background(), config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, pair, second.Store.Get())

	timeline, err := second.Staff.Timeline(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "Grace", timeline.ResidentName)
	require.Equal(t, 1, b.RefreshCalls())
	require.NotEqual(t, pair.Access, first.Store.Get().Access, "the refreshed token was persisted")
}

func TestNew_RejectsBadIssuerMode(t *testing.T) {
	t.Setenv("CARE_STORE", config.MemoryStore)
	t.Setenv("CARE_ISSUER_MODE", config.OAuth2Issuer)

	_, err := app.New(context.Background(), config.New(), zerolog.Nop())
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}
