package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
)

const maxResponseBytes = 1 << 20

var _ Refresher = (*SimpleJWTRefresher)(nil)

// SimpleJWTRefresher posts {"refresh": token} as JSON to a
// djangorestframework-simplejwt style refresh endpoint and reads
// {"access": ..., "refresh": ...} back.
type SimpleJWTRefresher struct {
	endpoint   string
	httpClient *http.Client
}

// NewSimpleJWT creates a refresher for the given absolute endpoint URL
func NewSimpleJWT(endpoint string, httpClient *http.Client) *SimpleJWTRefresher {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &SimpleJWTRefresher{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (r *SimpleJWTRefresher) Refresh(ctx context.Context, refreshToken string) (Result, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Result{}, apperrors.ErrNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return Result{}, fmt.Errorf("[SimpleJWTRefresher Refresh] failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("[SimpleJWTRefresher Refresh] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("[SimpleJWTRefresher Refresh] request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("[SimpleJWTRefresher Refresh] failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Result{}, apperrors.Wrapf(apperrors.ErrInvalidTokenPayload, "[SimpleJWTRefresher Refresh] %v", err)
	}

	result := tr.result()
	if result.Access == "" {
		return Result{}, apperrors.Wrapf(apperrors.ErrInvalidTokenPayload, "[SimpleJWTRefresher Refresh] response has no access token")
	}
	return result, nil
}
