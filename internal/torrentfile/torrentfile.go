// Package torrentfile reads .torrent metainfo files so they can be classified
// without a running downloader.
package torrentfile

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/zeebo/bencode"
)

// ErrNoInfo is returned for metainfo without an info dictionary
var ErrNoInfo = errors.New("metainfo has no info dictionary")

type metainfo struct {
	Announce     string             `bencode:"announce"`
	AnnounceList [][]string         `bencode:"announce-list"`
	Info         bencode.RawMessage `bencode:"info"`
}

type infoDict struct {
	Name    string `bencode:"name"`
	Length  int64  `bencode:"length"`
	Private int    `bencode:"private"`
	Files   []struct {
		Length int64    `bencode:"length"`
		Path   []string `bencode:"path"`
	} `bencode:"files"`
}

// Meta is the subset of a metainfo file needed for classification
type Meta struct {
	Name     string
	InfoHash string
	Trackers []string
	Size     int64
	Files    int
	Private  bool
}

// Read loads and parses the .torrent file at path
func Read(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes bencoded metainfo
func Parse(data []byte) (*Meta, error) {
	var mi metainfo
	if err := bencode.DecodeBytes(data, &mi); err != nil {
		return nil, fmt.Errorf("failed to decode torrent: %w", err)
	}
	if len(mi.Info) == 0 {
		return nil, ErrNoInfo
	}

	var info infoDict
	if err := bencode.DecodeBytes(mi.Info, &info); err != nil {
		return nil, fmt.Errorf("failed to decode torrent info: %w", err)
	}

	sum := sha1.Sum(mi.Info)
	m := &Meta{
		Name:     info.Name,
		InfoHash: hex.EncodeToString(sum[:]),
		Trackers: trackers(mi),
		Private:  info.Private == 1,
		Files:    1,
	}

	if info.Length > 0 || len(info.Files) == 0 {
		m.Size = info.Length
	} else {
		m.Files = len(info.Files)
		for _, f := range info.Files {
			m.Size += f.Length
		}
	}

	return m, nil
}

// trackers returns the unique announce URLs in tier order
func trackers(mi metainfo) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, tier := range mi.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	add(mi.Announce)
	return out
}

// TrackerCount is the number of distinct announce URLs
func (m *Meta) TrackerCount() int {
	return len(m.Trackers)
}

// IsBT reports whether the torrent has no tracker at all
func (m *Meta) IsBT() bool {
	return m.TrackerCount() == 0
}

// HumanSize formats Size for display
func (m *Meta) HumanSize() string {
	return units.HumanSize(float64(m.Size))
}
