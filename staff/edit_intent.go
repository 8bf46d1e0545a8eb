package staff

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"
)

// ReasonType is the structured reason code recorded with an amendment.
type ReasonType string

const (
	ReasonTypo          ReasonType = "TYPO"          // Spelling or transcription fix
	ReasonLateEntry     ReasonType = "LATE_ENTRY"    // Information recorded after the fact
	ReasonClarification ReasonType = "CLARIFICATION" // Wording made clearer, meaning unchanged
)

const minReasonDetail = 4

// ReasonTypes lists the accepted reason codes in display order.
func ReasonTypes() []ReasonType {
	return []ReasonType{ReasonTypo, ReasonLateEntry, ReasonClarification}
}

// ParseReasonType accepts a reason code in any case.
func ParseReasonType(s string) (ReasonType, error) {
	rt := ReasonType(strings.ToUpper(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownReasonType, s)
	}
	return rt, nil
}

func (r ReasonType) Valid() bool {
	switch r {
	case ReasonTypo, ReasonLateEntry, ReasonClarification:
		return true
	}
	return false
}

// EditIntent is the reason a member of staff gives before amending a
// record. No write is issued until it validates.
type EditIntent struct {
	ReasonType ReasonType
	Detail     string
}

// Validate checks the reason code and that the trimmed detail is longer
// than three characters.
func (e EditIntent) Validate() error {
	if e.ReasonType == "" {
		return ErrMissingReasonType
	}
	if !e.ReasonType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownReasonType, e.ReasonType)
	}
	if utf8.RuneCountInString(strings.TrimSpace(e.Detail)) < minReasonDetail {
		return ErrReasonTooShort
	}
	return nil
}

// apply returns a copy of fields carrying the edit reason.
func (e EditIntent) apply(fields map[string]any) map[string]any {
	payload := maps.Clone(fields)
	if payload == nil {
		payload = make(map[string]any, 2)
	}
	payload["edit_reason_type"] = string(e.ReasonType)
	payload["edit_reason_detail"] = strings.TrimSpace(e.Detail)
	return payload
}
