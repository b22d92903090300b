package client

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	qbittorrent "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// per-torrent tags arrived with qBittorrent 4.2.0
var minTagsWebAPI = semver.MustParse("2.3.0")

type qbitAPI interface {
	LoginCtx(ctx context.Context) error
	GetWebAPIVersionCtx(ctx context.Context) (string, error)
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	AddTagsCtx(ctx context.Context, hashes []string, tags string) error
	SetTorrentUploadLimitCtx(ctx context.Context, hashes []string, limit int64) error
	PauseCtx(ctx context.Context, hashes []string) error
}

// QBitClient implements TorrentClient interface for qBittorrent
type QBitClient struct {
	name          string
	client        qbitAPI
	tagsSupported bool
	log           zerolog.Logger
}

// NewQBitClient creates a new qBittorrent client and logs in
func NewQBitClient(ctx context.Context, name, url, username, password, basicUser, basicPass string) (*QBitClient, error) {
	qbConfig := qbittorrent.Config{
		Host:      url,
		Username:  username,
		Password:  password,
		BasicUser: basicUser,
		BasicPass: basicPass,
	}

	c, err := newQBitClient(ctx, name, qbittorrent.NewClient(qbConfig))
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to connect to qbittorrent")
		return nil, err
	}

	log.Debug().Str("url", url).Str("downloader", name).Msg("connected to qbittorrent")
	return c, nil
}

func newQBitClient(ctx context.Context, name string, api qbitAPI) (*QBitClient, error) {
	if err := api.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("failed to login to qbittorrent: %w", err)
	}

	c := &QBitClient{
		name:          name,
		client:        api,
		tagsSupported: true,
		log:           log.With().Str("downloader", name).Logger(),
	}

	raw, err := api.GetWebAPIVersionCtx(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to get webapi version, assuming tag support")
		return c, nil
	}

	ver, err := semver.NewVersion(raw)
	if err != nil {
		c.log.Warn().Err(err).Str("version", raw).Msg("invalid webapi version format")
		return c, nil
	}

	if ver.LessThan(minTagsWebAPI) {
		c.log.Warn().
			Str("webapiVersion", ver.String()).
			Str("required", minTagsWebAPI.String()).
			Msg("qbittorrent is too old for tags, tagging disabled")
		c.tagsSupported = false
	}

	return c, nil
}

func (c *QBitClient) Name() string { return c.name }

func (c *QBitClient) Type() Type { return TypeQBittorrent }

// ListTorrents returns all torrents known to qBittorrent in the order the API reports them
func (c *QBitClient) ListTorrents(ctx context.Context) ([]Torrent, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.log.Debug().Int("count", len(torrents)).Msg("retrieved torrents from qbittorrent")

	results := make([]Torrent, 0, len(torrents))
	for _, t := range torrents {
		results = append(results, Torrent{
			Hash:         t.Hash,
			Name:         t.Name,
			TrackerCount: int(t.TrackersCount),
			Ratio:        t.Ratio,
			Tags:         ParseTags(t.Tags),
			Size:         t.Size,
			Uploaded:     t.Uploaded,
		})
	}

	return results, nil
}

// GetTags re-reads the tags of a single torrent
func (c *QBitClient) GetTags(ctx context.Context, hash string) ([]string, error) {
	if !c.tagsSupported {
		return nil, fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
	}

	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{
		Hashes: []string{hash},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent: %w", err)
	}

	if len(torrents) == 0 {
		return nil, fmt.Errorf("torrent %s not found", hash)
	}

	return ParseTags(torrents[0].Tags), nil
}

// AddTag tags a single torrent
func (c *QBitClient) AddTag(ctx context.Context, hash string, tag string) error {
	if !c.tagsSupported {
		return fmt.Errorf("%s tags: %w", c.Type(), ErrUnsupported)
	}

	if err := c.client.AddTagsCtx(ctx, []string{hash}, tag); err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

// SetUploadLimit sets the upload limit in bytes per second, qBittorrent treats negative values as unlimited
func (c *QBitClient) SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error {
	if err := c.client.SetTorrentUploadLimitCtx(ctx, hashes, bytesPerSecond); err != nil {
		return fmt.Errorf("failed to set upload limit: %w", err)
	}
	return nil
}

// Pause stops the given torrents
func (c *QBitClient) Pause(ctx context.Context, hashes []string) error {
	if err := c.client.PauseCtx(ctx, hashes); err != nil {
		return fmt.Errorf("failed to pause torrents: %w", err)
	}
	return nil
}
