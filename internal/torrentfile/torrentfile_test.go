package torrentfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

type testFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type testInfo struct {
	Name        string     `bencode:"name"`
	PieceLength int64      `bencode:"piece length"`
	Pieces      string     `bencode:"pieces"`
	Length      int64      `bencode:"length,omitempty"`
	Private     int        `bencode:"private,omitempty"`
	Files       []testFile `bencode:"files,omitempty"`
}

type testTorrent struct {
	Announce     string     `bencode:"announce,omitempty"`
	AnnounceList [][]string `bencode:"announce-list,omitempty"`
	Info         testInfo   `bencode:"info"`
}

func encode(t *testing.T, tt testTorrent) []byte {
	t.Helper()
	if tt.Info.PieceLength == 0 {
		tt.Info.PieceLength = 16384
		tt.Info.Pieces = "01234567890123456789"
	}
	data, err := bencode.EncodeBytes(tt)
	require.NoError(t, err)
	return data
}

func TestParseTrackerless(t *testing.T) {
	data := encode(t, testTorrent{Info: testInfo{Name: "ubuntu.iso", Length: 4 << 30}})

	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "ubuntu.iso", m.Name)
	assert.Equal(t, int64(4<<30), m.Size)
	assert.Equal(t, 1, m.Files)
	assert.Zero(t, m.TrackerCount())
	assert.True(t, m.IsBT())
	assert.Len(t, m.InfoHash, 40)
}

func TestParseCountsUniqueTrackers(t *testing.T) {
	data := encode(t, testTorrent{
		Announce: "http://tracker.example/announce",
		AnnounceList: [][]string{
			{"http://tracker.example/announce", "udp://backup.example:6969"},
			{"udp://backup.example:6969", " "},
		},
		Info: testInfo{Name: "private", Length: 1, Private: 1},
	})

	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://tracker.example/announce", "udp://backup.example:6969"}, m.Trackers)
	assert.Equal(t, 2, m.TrackerCount())
	assert.False(t, m.IsBT())
	assert.True(t, m.Private)
}

func TestParseMultiFile(t *testing.T) {
	data := encode(t, testTorrent{Info: testInfo{
		Name: "album",
		Files: []testFile{
			{Length: 100, Path: []string{"01.flac"}},
			{Length: 250, Path: []string{"02.flac"}},
		},
	}})

	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, int64(350), m.Size)
	assert.Equal(t, 2, m.Files)
	assert.Equal(t, "350B", m.HumanSize())
}

func TestParseInfoHashIgnoresTrackers(t *testing.T) {
	info := testInfo{Name: "same", Length: 42}

	a, err := Parse(encode(t, testTorrent{Info: info}))
	require.NoError(t, err)
	b, err := Parse(encode(t, testTorrent{Announce: "http://tracker.example/announce", Info: info}))
	require.NoError(t, err)

	assert.Equal(t, a.InfoHash, b.InfoHash)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("not bencode"))
	assert.Error(t, err)

	data, err := bencode.EncodeBytes(map[string]string{"announce": "http://tracker.example/announce"})
	require.NoError(t, err)
	_, err = Parse(data)
	assert.ErrorIs(t, err, ErrNoInfo)
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dht.torrent")
	require.NoError(t, os.WriteFile(path, encode(t, testTorrent{Info: testInfo{Name: "dht", Length: 10}}), 0644))

	m, err := Read(path)
	require.NoError(t, err)
	assert.True(t, m.IsBT())

	_, err = Read(filepath.Join(t.TempDir(), "missing.torrent"))
	assert.Error(t, err)
}
