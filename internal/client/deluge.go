package client

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/autobrr/go-deluge"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type delugeAPI interface {
	Connect(ctx context.Context) error
	TorrentsStatus(ctx context.Context, state deluge.TorrentState, ids []string) (map[string]*deluge.TorrentStatus, error)
}

// DelugeClient implements TorrentClient for Deluge. Only listing is supported.
type DelugeClient struct {
	name   string
	client delugeAPI
	isV2   bool
	log    zerolog.Logger
}

// NewDelugeClient creates a new Deluge client instance
func NewDelugeClient(ctx context.Context, name, host string, port uint, username, password string, forceV1 bool) (*DelugeClient, error) {
	settings := deluge.Settings{
		Hostname: host,
		Port:     port,
		Login:    username,
		Password: password,
	}

	logger := log.With().Str("downloader", name).Logger()

	// Try to connect using v2 first
	if !forceV1 {
		v2client := deluge.NewV2(settings)
		err := v2client.Connect(ctx)
		if err == nil {
			logger.Debug().Str("host", host).Msg("connected to deluge v2")
			return &DelugeClient{
				name:   name,
				client: v2client,
				isV2:   true,
				log:    logger,
			}, nil
		}
		logger.Debug().Err(err).Msg("deluge v2 connect failed, falling back to v1")
	}

	v1client := deluge.NewV1(settings)
	if err := v1client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to deluge: %w", err)
	}

	logger.Debug().Str("host", host).Msg("connected to deluge v1")
	return &DelugeClient{
		name:   name,
		client: v1client,
		isV2:   false,
		log:    logger,
	}, nil
}

func (c *DelugeClient) Name() string { return c.name }

func (c *DelugeClient) Type() Type { return TypeDeluge }

// ListTorrents returns all torrents in the Deluge session
func (c *DelugeClient) ListTorrents(ctx context.Context) ([]Torrent, error) {
	statuses, err := c.client.TorrentsStatus(ctx, deluge.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.log.Debug().
		Int("count", len(statuses)).
		Bool("v2", c.isV2).
		Msg("retrieved torrents from deluge")

	results := make([]Torrent, 0, len(statuses))
	for hash, ts := range statuses {
		if ts == nil {
			continue
		}
		results = append(results, Torrent{
			Hash:         hash,
			Name:         ts.Name,
			TrackerCount: delugeTrackerCount(ts),
			Ratio:        float64(ts.Ratio),
		})
	}

	// deluge returns an unordered map
	sort.Slice(results, func(i, j int) bool {
		return results[i].Hash < results[j].Hash
	})

	return results, nil
}

// delugeTrackerCount approximates the tracker count. Deluge only reports the
// host of the current tracker, so a torrent counts as having one tracker when
// that host is set and none otherwise.
func delugeTrackerCount(ts *deluge.TorrentStatus) int {
	if ts.TrackerHost == "" {
		return 0
	}
	return 1
}

// Close disconnects from the Deluge daemon
func (c *DelugeClient) Close() error {
	closer, ok := c.client.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("failed to close deluge connection: %w", err)
	}
	return nil
}

func (c *DelugeClient) GetTags(ctx context.Context, hash string) ([]string, error) {
	return nil, fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
}

func (c *DelugeClient) AddTag(ctx context.Context, hash string, tag string) error {
	return fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
}

func (c *DelugeClient) SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error {
	return fmt.Errorf("%s upload limit: %w", c.Type(), ErrUnsupported)
}

func (c *DelugeClient) Pause(ctx context.Context, hashes []string) error {
	return fmt.Errorf("%s pause: %w", c.Type(), ErrUnsupported)
}
