package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var transmissionFields = []string{"hashString", "name", "trackers", "uploadRatio", "labels", "uploadedEver"}

type transmissionAPI interface {
	TorrentGet(ctx context.Context, fields []string, ids []int64) ([]transmissionrpc.Torrent, error)
}

// TransmissionClient implements TorrentClient for Transmission. Only listing is supported.
type TransmissionClient struct {
	name   string
	client transmissionAPI
	log    zerolog.Logger
}

// NewTransmissionClient creates a new Transmission RPC client
func NewTransmissionClient(name, rawURL, username, password string) (*TransmissionClient, error) {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transmission url: %w", err)
	}
	if username != "" {
		endpoint.User = url.UserPassword(username, password)
	}

	tbt, err := transmissionrpc.New(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transmission client: %w", err)
	}

	log.Debug().Str("url", endpoint.Redacted()).Str("downloader", name).Msg("created transmission client")
	return &TransmissionClient{
		name:   name,
		client: tbt,
		log:    log.With().Str("downloader", name).Logger(),
	}, nil
}

func (c *TransmissionClient) Name() string { return c.name }

func (c *TransmissionClient) Type() Type { return TypeTransmission }

// ListTorrents returns all torrents known to Transmission
func (c *TransmissionClient) ListTorrents(ctx context.Context) ([]Torrent, error) {
	torrents, err := c.client.TorrentGet(ctx, transmissionFields, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.log.Debug().Int("count", len(torrents)).Msg("retrieved torrents from transmission")

	results := make([]Torrent, 0, len(torrents))
	for _, t := range torrents {
		record := Torrent{
			TrackerCount: len(t.Trackers),
			Tags:         t.Labels,
		}
		if t.HashString != nil {
			record.Hash = *t.HashString
		}
		if t.Name != nil {
			record.Name = *t.Name
		}
		if t.UploadRatio != nil && *t.UploadRatio > 0 {
			record.Ratio = *t.UploadRatio
		}
		if t.UploadedEver != nil {
			record.Uploaded = *t.UploadedEver
		}
		results = append(results, record)
	}

	return results, nil
}

func (c *TransmissionClient) GetTags(ctx context.Context, hash string) ([]string, error) {
	return nil, fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
}

func (c *TransmissionClient) AddTag(ctx context.Context, hash string, tag string) error {
	return fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
}

func (c *TransmissionClient) SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error {
	return fmt.Errorf("%s upload limit: %w", c.Type(), ErrUnsupported)
}

func (c *TransmissionClient) Pause(ctx context.Context, hashes []string) error {
	return fmt.Errorf("%s pause: %w", c.Type(), ErrUnsupported)
}
