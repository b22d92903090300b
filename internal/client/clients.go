// Package client provides interfaces and implementations for different torrent clients
package client

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// Type identifies the kind of downloader behind a TorrentClient
type Type string

const (
	TypeQBittorrent  Type = "qbittorrent"
	TypeTransmission Type = "transmission"
	TypeDeluge       Type = "deluge"
)

var (
	// ErrUnsupported is returned by operations a backend type cannot perform.
	ErrUnsupported = errors.New("operation not supported by downloader type")

	// ErrUnknownDownloader is returned when a downloader name is not configured.
	ErrUnknownDownloader = errors.New("unknown downloader")
)

// Torrent is the normalized view of a torrent as reported by a backend
type Torrent struct {
	Hash         string
	Name         string
	TrackerCount int
	Ratio        float64
	Tags         []string

	// informational only
	Size     int64
	Uploaded int64
}

// TorrentClient defines the interface that all torrent clients must implement
type TorrentClient interface {
	// Name returns the configured name of the downloader
	Name() string

	// Type returns the backend type
	Type() Type

	// ListTorrents returns every torrent currently known to the downloader
	ListTorrents(ctx context.Context) ([]Torrent, error)

	// GetTags returns the current tags of a single torrent
	GetTags(ctx context.Context, hash string) ([]string, error)

	// AddTag attaches a tag to a single torrent
	AddTag(ctx context.Context, hash string, tag string) error

	// SetUploadLimit sets the per-torrent upload limit in bytes per second
	SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error

	// Pause stops seeding the given torrents
	Pause(ctx context.Context, hashes []string) error
}

// ParseTags splits a comma separated tag string, dropping whitespace and empty entries
func ParseTags(raw string) []string {
	if raw == "" {
		return nil
	}

	var tags []string
	for _, tag := range strings.Split(stripSpace(raw), ",") {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasTag reports whether name is present in tags, ignoring case and whitespace
func HasTag(tags []string, name string) bool {
	want := normalizeTag(name)
	if want == "" {
		return false
	}
	for _, tag := range tags {
		if normalizeTag(tag) == want {
			return true
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.ToLower(stripSpace(tag))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
