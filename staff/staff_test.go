package staff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-care-client/client"
	"github.com/jrsteele09/go-care-client/credentials/memstore"
	"github.com/jrsteele09/go-care-client/internal/fakebackend"
	"github.com/jrsteele09/go-care-client/refresh"
	"github.com/jrsteele09/go-care-client/staff"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*staff.Service, *fakebackend.Backend) {
	t.Helper()
	b := fakebackend.New()
	t.Cleanup(b.Close)

	store := memstore.NewWithPair(b.IssuePair("carer-1"))
	refresher := refresh.NewSimpleJWT(b.URL+fakebackend.RouteSimpleJWTRefresh, nil)
	c := client.New(b.URL, store, refresher, client.WithLogger(zerolog.Nop()))
	return staff.NewService(c), b
}

func TestService_Timeline(t *testing.T) {
	svc, b := setupService(t)
	b.SetTimeline("12", fakebackend.Timeline{
		ResidentID:   12,
		ResidentName: "Ada Lovelace",
		Events: []map[string]any{
			{"id": 3, "event_type": "INCIDENT", "timestamp": "2026-03-02T10:00:00Z", "severity": "LOW"},
			{"id": 8, "event_type": "DAILY_LOG", "timestamp": "2026-03-01T08:30:00Z", "mood": "Settled"},
		},
	})

	timeline, err := svc.Timeline(context.Background(), "12")
	require.NoError(t, err)
	require.Equal(t, 12, timeline.ResidentID)
	require.Equal(t, "Ada Lovelace", timeline.ResidentName)
	require.Len(t, timeline.Events, 2)

	incident := timeline.Events[0]
	require.Equal(t, 3, incident.ID)
	require.Equal(t, staff.EventIncident, incident.Type)
	require.True(t, incident.Timestamp.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
	require.Equal(t, "LOW", incident.Fields["severity"])
	require.Equal(t, staff.EventDailyLog, timeline.Events[1].Type)
}

func TestService_TimelineSurvivesExpiredAccess(t *testing.T) {
	svc, b := setupService(t)
	b.SetTimeline("12", fakebackend.Timeline{ResidentID: 12})
	b.InvalidateAccessTokens()

	_, err := svc.Timeline(context.Background(), "12")
	require.NoError(t, err)
	require.Equal(t, 1, b.RefreshCalls())
	require.Len(t, b.Requests("/api/residents/12/timeline/"), 2)
}

func TestService_TimelineUnknownResident(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Timeline(context.Background(), "404")
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, err = svc.Timeline(context.Background(), " ")
	require.ErrorIs(t, err, staff.ErrMissingID)
}

func TestService_PatchIncident(t *testing.T) {
	svc, b := setupService(t)
	b.SeedRecord("incidents", "5", map[string]any{"description": "Fell in hall", "severity": "LOW"})

	record, err := svc.PatchIncident(context.Background(), "5",
		map[string]any{"description": "Fell in the hall"},
		staff.EditIntent{ReasonType: staff.ReasonTypo, Detail: "  Fix typo  "},
	)
	require.NoError(t, err)
	require.Equal(t, "Fell in the hall", record["description"])
	require.Equal(t, "LOW", record["severity"])
	require.Equal(t, "TYPO", record["edit_reason_type"])
	require.Equal(t, "Fix typo", record["edit_reason_detail"])

	reqs := b.Requests("/api/incidents/5/")
	require.Len(t, reqs, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	require.Equal(t, map[string]any{
		"description":        "Fell in the hall",
		"edit_reason_type":   "TYPO",
		"edit_reason_detail": "Fix typo",
	}, sent)
}

func TestService_PatchWithInvalidIntentIsNeverSent(t *testing.T) {
	svc, b := setupService(t)
	b.SeedRecord("incidents", "5", map[string]any{"description": "x"})

	fields := map[string]any{"description": "y"}
	_, err := svc.PatchIncident(context.Background(), "5", fields, staff.EditIntent{ReasonType: staff.ReasonTypo, Detail: "abc"})
	require.ErrorIs(t, err, staff.ErrReasonTooShort)
	require.Empty(t, b.Requests("/api/incidents/5/"))
	require.Equal(t, map[string]any{"description": "y"}, fields, "caller's fields are not modified")
}

func TestService_PatchMAR(t *testing.T) {
	svc, b := setupService(t)
	b.SeedRecord("mar", "9", map[string]any{"outcome": "GIVEN"})

	record, err := svc.PatchMAR(context.Background(), "9",
		map[string]any{"outcome": "REFUSED"},
		staff.EditIntent{ReasonType: staff.ReasonLateEntry, Detail: "Entered after round"},
	)
	require.NoError(t, err)
	require.Equal(t, "REFUSED", record["outcome"])

	_, err = svc.PatchMAR(context.Background(), "missing",
		map[string]any{"outcome": "REFUSED"},
		staff.EditIntent{ReasonType: staff.ReasonLateEntry, Detail: "Entered after round"},
	)
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
