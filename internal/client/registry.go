package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/s0up4200/btmanager-go/internal/config"
)

// Factory connects to a single named downloader
type Factory func(ctx context.Context) (TorrentClient, error)

// Registry resolves downloader names to connected clients. Connections are
// made on first use and reused for the lifetime of the registry.
type Registry struct {
	factories map[string]Factory
	clients   map[string]TorrentClient
	log       zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		clients:   make(map[string]TorrentClient),
		log:       log.With().Str("component", "registry").Logger(),
	}
}

// NewRegistryFromConfig registers every downloader defined in cfg
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()

	for name, qb := range cfg.QBitClients {
		r.Register(name, func(ctx context.Context) (TorrentClient, error) {
			return NewQBitClient(ctx, name, qb.URL, qb.Username, qb.Password, qb.BasicUser, qb.BasicPass)
		})
	}

	for name, dl := range cfg.DelugeClients {
		r.Register(name, func(ctx context.Context) (TorrentClient, error) {
			return NewDelugeClient(ctx, name, dl.Host, dl.Port, dl.Username, dl.Password, dl.V1)
		})
	}

	for name, tr := range cfg.TransmissionClients {
		r.Register(name, func(ctx context.Context) (TorrentClient, error) {
			return NewTransmissionClient(name, tr.URL, tr.Username, tr.Password)
		})
	}

	return r
}

// Register adds a named downloader. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[strings.ToLower(name)] = factory
}

// Resolve returns the connected client for name
func (r *Registry) Resolve(ctx context.Context, name string) (TorrentClient, error) {
	key := strings.ToLower(name)
	if c, ok := r.clients[key]; ok {
		return c, nil
	}

	factory, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDownloader, name)
	}

	r.log.Debug().Str("downloader", name).Msg("connecting to downloader")

	c, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to downloader %s: %w", name, err)
	}

	r.log.Info().
		Str("downloader", name).
		Str("type", string(c.Type())).
		Msg("successfully connected to downloader")

	r.clients[key] = c
	return c, nil
}

// Close closes every connected client that holds a session and empties the
// cache. Errors are logged, closing continues with the next client.
func (r *Registry) Close() {
	for key, c := range r.clients {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				r.log.Warn().Err(err).Str("downloader", c.Name()).Msg("failed to close downloader")
			} else {
				r.log.Debug().Str("downloader", c.Name()).Msg("closed downloader")
			}
		}
		delete(r.clients, key)
	}
}
