package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-care-client/credentials"
	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
	"github.com/jrsteele09/go-care-client/refresh"
	"github.com/rs/zerolog"
)

// outcome is what a settled refresh hands each waiting call: the access
// token to replay with, or the error to surface.
type outcome struct {
	access string
	err    error
}

// pendingCall is a failed call parked until the in-flight refresh settles.
type pendingCall struct {
	id   string
	call *Call
	done chan outcome // buffered: settle never blocks on a waiter
}

// Coordinator turns authorization failures into at most one concurrent
// credential refresh. It is idle until the first eligible failure starts a
// refresh; failures observed while the refresh is in flight join its queue
// instead of starting another. When the refresh settles the store is updated
// (or cleared), every queued call is resolved in arrival order, and the
// coordinator returns to idle, all before any new failure is considered.
type Coordinator struct {
	store          credentials.Store
	refresher      refresh.Refresher
	refreshTimeout time.Duration
	logger         zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []*pendingCall
	refreshes  int
}

// NewCoordinator creates an idle coordinator. A zero refreshTimeout leaves
// the refresh call unbounded.
func NewCoordinator(store credentials.Store, refresher refresh.Refresher, refreshTimeout time.Duration, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:          store,
		refresher:      refresher,
		refreshTimeout: refreshTimeout,
		logger:         logger.With().Str("component", "refresh_coordinator").Logger(),
	}
}

// Recover is consulted with a call's failure. It returns the access token to
// replay the call with, or the error the caller should see.
//
// Only a 401 on a call that has not been retried is eligible. If the store
// holds no refresh token the session is over: the store is cleared and the
// original failure is returned marked with ErrSessionEnded.
func (c *Coordinator) Recover(ctx context.Context, call *Call, failure error) (string, error) {
	var statusErr *StatusError
	if !errors.As(failure, &statusErr) || !statusErr.Unauthorized() {
		return "", failure
	}
	if call.Retried() {
		return "", failure
	}
	call.markRetried()

	c.mu.Lock()
	pair := c.store.Get()
	if !pair.HasRefresh() {
		c.store.Clear()
		c.mu.Unlock()
		c.logger.Warn().Str("method", call.Method).Str("path", call.Path).Msg("Unauthorized with no refresh token, session cleared")
		return "", fmt.Errorf("[Coordinator Recover] %w: %w", ErrSessionEnded, failure)
	}

	p := &pendingCall{
		id:   uuid.NewString(),
		call: call,
		done: make(chan outcome, 1),
	}
	c.queue = append(c.queue, p)
	if !c.refreshing {
		c.refreshing = true
		c.refreshes++
		c.logger.Info().Str("call_id", p.id).Str("path", call.Path).Msg("Starting credential refresh")
		go c.refresh(ctx, pair.Refresh)
	} else {
		c.logger.Debug().Str("call_id", p.id).Str("path", call.Path).Int("queued", len(c.queue)).Msg("Joined in-flight refresh")
	}
	c.mu.Unlock()

	select {
	case out := <-p.done:
		return out.access, out.err
	case <-ctx.Done():
		c.abandon(p)
		return "", ctx.Err()
	}
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns how many calls are waiting on the in-flight refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Refreshes returns how many refresh operations have been started.
func (c *Coordinator) Refreshes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshes
}

// refresh runs detached from the triggering call's cancellation: the result
// belongs to every queued call, not just the one that started it.
func (c *Coordinator) refresh(ctx context.Context, refreshToken string) {
	ctx = context.WithoutCancel(ctx)
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}

	var (
		result refresh.Result
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("[Coordinator refresh] refresher panicked: %v", r)
			}
		}()
		result, err = c.refresher.Refresh(ctx, refreshToken)
	}()

	if err == nil && strings.TrimSpace(result.Access) == "" {
		err = apperrors.Wrapf(apperrors.ErrInvalidTokenPayload, "[Coordinator refresh] empty access token")
	}
	c.settle(result, err)
}

// settle applies the refresh outcome and drains the queue in one critical
// section, so a new failure can only start a refresh once every waiter of
// this one has been resolved.
func (c *Coordinator) settle(result refresh.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out outcome
	if err != nil {
		c.store.Clear()
		out.err = &RefreshError{Err: err}
		c.logger.Err(err).Int("waiters", len(c.queue)).Msg("Credential refresh failed, session cleared")
	} else {
		c.store.Set(result.Access, result.Refresh)
		out.access = result.Access
		event := c.logger.Info().Int("waiters", len(c.queue)).Bool("refresh_rotated", result.Refresh != "")
		if claims, cerr := (credentials.Pair{Access: result.Access}).Claims(); cerr == nil && !claims.ExpiresAt.IsZero() {
			event = event.Time("access_expires_at", claims.ExpiresAt)
		}
		event.Msg("Credential refresh succeeded")
	}

	for _, p := range c.queue {
		p.done <- out
	}
	c.queue = nil
	c.refreshing = false
}

// abandon drops a waiter whose context ended; it will not be replayed.
func (c *Coordinator) abandon(p *pendingCall) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, queued := range c.queue {
		if queued == p {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			c.logger.Debug().Str("call_id", p.id).Msg("Waiting call cancelled")
			return
		}
	}
}
