package staff_test

import (
	"testing"

	"github.com/jrsteele09/go-care-client/staff"
	"github.com/stretchr/testify/require"
)

func TestEditIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  staff.EditIntent
		wantErr error
	}{
		{name: "typo", intent: staff.EditIntent{ReasonType: staff.ReasonTypo, Detail: "Fix typo"}},
		{name: "late entry", intent: staff.EditIntent{ReasonType: staff.ReasonLateEntry, Detail: "Recorded after shift"}},
		{name: "exactly four characters", intent: staff.EditIntent{ReasonType: staff.ReasonClarification, Detail: "  abcd "}},
		{name: "no reason", intent: staff.EditIntent{Detail: "Fix typo"}, wantErr: staff.ErrMissingReasonType},
		{name: "unknown reason", intent: staff.EditIntent{ReasonType: "WHIM", Detail: "Fix typo"}, wantErr: staff.ErrUnknownReasonType},
		{name: "detail too short once trimmed", intent: staff.EditIntent{ReasonType: staff.ReasonTypo, Detail: "  abc   "}, wantErr: staff.ErrReasonTooShort},
		{name: "blank detail", intent: staff.EditIntent{ReasonType: staff.ReasonTypo}, wantErr: staff.ErrReasonTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseReasonType(t *testing.T) {
	rt, err := staff.ParseReasonType(" late_entry ")
	require.NoError(t, err)
	require.Equal(t, staff.ReasonLateEntry, rt)

	_, err = staff.ParseReasonType("other")
	require.ErrorIs(t, err, staff.ErrUnknownReasonType)

	for _, rt := range staff.ReasonTypes() {
		require.True(t, rt.Valid())
	}
}
