package fakebackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (b *Backend) signAccessLocked(subject string) string {
	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"sub":        subject,
		"token_type": "access",
		"gen":        b.generation,
		"iat":        now.Unix(),
		"exp":        now.Add(b.accessTTL).Unix(),
		"jti":        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("fakebackend: failed to sign access token: %v", err))
	}
	return signed
}

// verifyAccess checks signature, expiry and that the token predates no
// InvalidateAccessTokens call.
func (b *Backend) verifyAccess(raw string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return b.secret, nil
	}, jwt.WithTimeFunc(NowTimeFunc), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	gen, _ := claims["gen"].(float64)
	b.mu.Lock()
	current := b.generation
	b.mu.Unlock()
	if int(gen) != current {
		return "", fmt.Errorf("token revoked")
	}

	sub, _ := claims.GetSubject()
	return sub, nil
}

// exchange redeems a refresh token. newRefresh is empty unless rotation is on.
func (b *Backend) exchange(ctx context.Context, refreshToken string) (access, newRefresh string, ok bool) {
	b.mu.Lock()
	b.refreshCalls++
	hold := b.refreshHold
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return "", "", false
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rejectRefresh {
		return "", "", false
	}
	subject, found := b.refreshTokens[refreshToken]
	if !found {
		return "", "", false
	}

	access = b.signAccessLocked(subject)
	if b.rotateRefresh {
		delete(b.refreshTokens, refreshToken)
		newRefresh = b.newRefreshLocked(subject)
	}
	return access, newRefresh, true
}

type subjectKey struct{}

// recordRefresh keeps a copy of each refresh request before handling it.
func (b *Backend) recordRefresh(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.refreshRequests = append(b.refreshRequests, newRequest(r, body))
		b.mu.Unlock()

		next(w, r)
	}
}

// requireAuth validates the bearer access token, answering 401 with a JSON
// error body when it is missing or invalid.
func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)
		b.record(r, body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		forced := b.alwaysUnauthorized[r.URL.Path]
		b.mu.Unlock()

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if forced || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
				"code":   "not_authenticated",
			})
			return
		}

		subject, err := b.verifyAccess(parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subject)))
	}
}
