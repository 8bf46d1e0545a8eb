// Package app assembles a session client from configuration.
package app

import (
	"context"
	"fmt"
	"math"

	"github.com/jrsteele09/go-care-client/client"
	"github.com/jrsteele09/go-care-client/credentials"
	"github.com/jrsteele09/go-care-client/credentials/filestore"
	"github.com/jrsteele09/go-care-client/credentials/memstore"
	"github.com/jrsteele09/go-care-client/internal/config"
	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
	"github.com/jrsteele09/go-care-client/refresh"
	"github.com/jrsteele09/go-care-client/staff"
	"github.com/rs/zerolog"
)

type App struct {
	Config config.Config
	Store  credentials.Store
	Client *client.Client
	Staff  *staff.Service
}

// New builds the credential store, refresher and client described by cfg.
// The OIDC issuer mode performs discovery, so ctx bounds that request.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	store, err := NewStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("[app New] failed to open credential store: %w", err)
	}

	refresher, err := refresh.New(ctx, cfg, refresh.NewHTTPClient())
	if err != nil {
		return nil, fmt.Errorf("[app New] failed to create refresher: %w", err)
	}

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithTimeout(cfg.GetRequestTimeout()),
		client.WithRefreshTimeout(cfg.GetRefreshTimeout()),
		client.WithUserAgent(cfg.GetUserAgent()),
	}
	if rps := cfg.GetRateLimit(); rps > 0 {
		opts = append(opts, client.WithRateLimit(rps, int(math.Ceil(rps))))
	}

	c := client.New(cfg.GetBaseURL(), store, refresher, opts...)
	return &App{
		Config: cfg,
		Store:  store,
		Client: c,
		Staff:  staff.NewService(c),
	}, nil
}

// NewStore opens the credential store selected by CARE_STORE.
func NewStore(cfg config.Config, logger zerolog.Logger) (credentials.Store, error) {
	switch kind := cfg.GetStoreKind(); kind {
	case config.MemoryStore:
		return memstore.New(), nil
	case config.FileStore:
		s, err := filestore.New(cfg.GetDataFolder(), cfg.GetSessionName(), logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("[app NewStore] store kind %q: %w", kind, apperrors.ErrUnsupported)
	}
}
