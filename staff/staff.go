// Package staff holds the typed calls the care staff screens make against
// the protected records API. Every call goes through client.Client, so
// session refresh and replay apply to them unchanged.
package staff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-care-client/client"
)

// EventType tags an entry on a resident timeline.
type EventType string

const (
	EventDailyLog   EventType = "DAILY_LOG"
	EventIncident   EventType = "INCIDENT"
	EventMedication EventType = "MEDICATION"
)

// Event is one timeline entry. Fields holds the full entry as served,
// including the type specific fields.
type Event struct {
	ID        int
	Type      EventType
	Timestamp time.Time
	Fields    map[string]any
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		ID        int       `json:"id"`
		EventType EventType `json:"event_type"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = Event{ID: head.ID, Type: head.EventType, Timestamp: head.Timestamp, Fields: fields}
	return nil
}

// Timeline is a resident's combined daily logs, incidents and medication
// records, newest first.
type Timeline struct {
	ResidentID   int     `json:"resident_id"`
	ResidentName string  `json:"resident_name"`
	Events       []Event `json:"events"`
}

// Service issues staff calls on behalf of one session.
type Service struct {
	client *client.Client
}

func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// Timeline fetches GET /api/residents/{id}/timeline/.
func (s *Service) Timeline(ctx context.Context, residentID string) (*Timeline, error) {
	path, err := resourcePath("residents", residentID, "timeline")
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("[Service Timeline] resident %s: %w", residentID, err)
	}

	var timeline Timeline
	if err := resp.Decode(&timeline); err != nil {
		return nil, fmt.Errorf("[Service Timeline] resident %s: %w", residentID, err)
	}
	return &timeline, nil
}

// PatchIncident amends an incident. The intent is validated first; an
// invalid intent never reaches the network.
func (s *Service) PatchIncident(ctx context.Context, id string, fields map[string]any, intent EditIntent) (map[string]any, error) {
	return s.patch(ctx, "incidents", id, fields, intent)
}

// PatchMAR amends a medication administration record.
func (s *Service) PatchMAR(ctx context.Context, id string, fields map[string]any, intent EditIntent) (map[string]any, error) {
	return s.patch(ctx, "mar", id, fields, intent)
}

func (s *Service) patch(ctx context.Context, kind, id string, fields map[string]any, intent EditIntent) (map[string]any, error) {
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("[Service patch] %s %s: %w", kind, id, err)
	}
	path, err := resourcePath(kind, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Patch(ctx, path, intent.apply(fields))
	if err != nil {
		return nil, fmt.Errorf("[Service patch] %s %s: %w", kind, id, err)
	}

	var record map[string]any
	if err := resp.Decode(&record); err != nil {
		return nil, fmt.Errorf("[Service patch] %s %s: %w", kind, id, err)
	}
	return record, nil
}

// resourcePath builds /api/<kind>/<id>/[<sub>/] with the id escaped.
func resourcePath(kind, id string, sub ...string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	parts := append([]string{"/api", kind, url.PathEscape(id)}, sub...)
	return strings.Join(parts, "/") + "/", nil
}
