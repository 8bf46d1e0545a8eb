package fakebackend

import (
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"strings"
)

// Timeline is the body served for a resident's timeline.
type Timeline struct {
	ResidentID   int              `json:"resident_id"`
	ResidentName string           `json:"resident_name"`
	Events       []map[string]any `json:"events"`
}

var editReasonCodes = map[string]bool{"TYPO": true, "LATE_ENTRY": true, "CLARIFICATION": true}

// SetTimeline serves timeline for GET /api/residents/{id}/timeline/.
func (b *Backend) SetTimeline(id string, timeline Timeline) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timelines[id] = timeline
}

// SeedRecord stores a record of kind ("incidents" or "mar") for PATCH.
func (b *Backend) SeedRecord(kind, id string, fields map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[kind][id] = maps.Clone(fields)
}

// Record returns a copy of a stored record, or nil.
func (b *Backend) Record(kind, id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.records[kind][id])
}

func (b *Backend) simpleJWTRefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	access, newRefresh, ok := b.exchange(r.Context(), req.Refresh)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	resp := map[string]string{"access": access}
	if newRefresh != "" {
		resp["refresh"] = newRefresh
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) oauthTokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "refresh_token" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	b.mu.Lock()
	wantID, wantSecret := b.clientID, b.clientSecret
	b.mu.Unlock()
	if wantID != "" {
		id, secret, ok := r.BasicAuth()
		if !ok {
			id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
		}
		if id != wantID || secret != wantSecret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
			return
		}
	}

	access, newRefresh, ok := b.exchange(r.Context(), r.PostForm.Get("refresh_token"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "refresh token is invalid or expired",
		})
		return
	}

	resp := map[string]any{
		"access_token": access,
		"token_type":   "bearer",
		"expires_in":   int(b.accessTTL.Seconds()),
	}
	if newRefresh != "" {
		resp["refresh_token"] = newRefresh
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) discoveryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                b.URL,
		"authorization_endpoint":                b.URL + "/oauth/authorize",
		"token_endpoint":                        b.URL + RouteOAuthToken,
		"jwks_uri":                              b.URL + "/.well-known/jwks.json",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
	})
}

func (b *Backend) timelineHandler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	timeline, ok := b.timelines[r.PathValue("id")]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Resident not found."})
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

// patchRecordHandler merges a partial update into a stored record. A change
// to any field other than the edit reason needs a non-blank
// edit_reason_detail, and a supplied edit_reason_type must be a known code.
func (b *Backend) patchRecordHandler(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed JSON."})
			return
		}

		if reason, ok := patch["edit_reason_type"].(string); ok && reason != "" && !editReasonCodes[reason] {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"edit_reason_type": {"Invalid edit reason type."}})
			return
		}

		meaningful := false
		for k := range patch {
			if k != "edit_reason_type" && k != "edit_reason_detail" {
				meaningful = true
				break
			}
		}
		detail, _ := patch["edit_reason_detail"].(string)
		if meaningful && strings.TrimSpace(detail) == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"edit_reason_detail": {"An edit reason is required when updating this record."},
			})
			return
		}

		id := r.PathValue("id")
		b.mu.Lock()
		record, ok := b.records[kind][id]
		if ok {
			maps.Copy(record, patch)
			record = maps.Clone(record)
		}
		b.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (b *Backend) echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	subject, _ := r.Context().Value(subjectKey{}).(string)
	writeJSON(w, http.StatusOK, map[string]string{
		"method":  r.Method,
		"path":    r.URL.Path,
		"body":    string(body),
		"subject": subject,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	return body
}
