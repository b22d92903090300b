package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/btmanager-go/internal/config"
)

func TestParseTags(t *testing.T) {
	cases := map[string][]string{
		"":                  nil,
		"BT":                {"BT"},
		"BT, movies":        {"BT", "movies"},
		" a , ,b ,":         {"a", "b"},
		"long tag,, other ": {"longtag", "other"},
	}

	for input, want := range cases {
		assert.Equal(t, want, ParseTags(input), "ParseTags(%q)", input)
	}
}

func TestHasTag(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		tag  string
		want bool
	}{
		{name: "exact", tags: []string{"BT"}, tag: "BT", want: true},
		{name: "case insensitive", tags: []string{"bt"}, tag: "BT", want: true},
		{name: "whitespace insensitive", tags: []string{" B T "}, tag: "bt", want: true},
		{name: "absent", tags: []string{"movies", "tv"}, tag: "BT", want: false},
		{name: "empty tags", tags: nil, tag: "BT", want: false},
		{name: "empty name", tags: []string{""}, tag: " ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTag(tt.tags, tt.tag))
		})
	}
}

type stubClient struct {
	name string
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Type() Type { return TypeQBittorrent }

func (s *stubClient) ListTorrents(ctx context.Context) ([]Torrent, error) {
	return nil, nil
}

func (s *stubClient) GetTags(ctx context.Context, hash string) ([]string, error) {
	return nil, nil
}

func (s *stubClient) AddTag(ctx context.Context, hash string, tag string) error {
	return nil
}

func (s *stubClient) SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error {
	return nil
}

func (s *stubClient) Pause(ctx context.Context, hashes []string) error {
	return nil
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	connects := 0
	r.Register("QB1", func(ctx context.Context) (TorrentClient, error) {
		connects++
		return &stubClient{name: "qb1"}, nil
	})
	r.Register("broken", func(ctx context.Context) (TorrentClient, error) {
		return nil, errors.New("connection refused")
	})

	c, err := r.Resolve(context.Background(), "qb1")
	require.NoError(t, err)
	assert.Equal(t, "qb1", c.Name())

	_, err = r.Resolve(context.Background(), "QB1")
	require.NoError(t, err)
	assert.Equal(t, 1, connects, "client should be reused")

	_, err = r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownDownloader)

	_, err = r.Resolve(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		QBitClients: map[string]config.QBitConfig{
			"qb1": {URL: "http://localhost:8080"},
		},
		TransmissionClients: map[string]config.TransmissionConfig{
			"tr1": {URL: "http://localhost:9091/transmission/rpc"},
		},
		DelugeClients: map[string]config.DelugeConfig{
			"de1": {Host: "localhost", Port: 58846},
		},
	}

	r := NewRegistryFromConfig(cfg)
	assert.Len(t, r.factories, 3)

	// transmission does not connect on creation
	c, err := r.Resolve(context.Background(), "tr1")
	require.NoError(t, err)
	assert.Equal(t, TypeTransmission, c.Type())
	assert.Equal(t, "tr1", c.Name())
}

type closingClient struct {
	stubClient
	closed   int
	closeErr error
}

func (c *closingClient) Close() error {
	c.closed++
	return c.closeErr
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry()

	de := &closingClient{stubClient: stubClient{name: "de1"}}
	broken := &closingClient{stubClient: stubClient{name: "de2"}, closeErr: errors.New("already closed")}
	connects := 0
	r.Register("de1", func(ctx context.Context) (TorrentClient, error) {
		connects++
		return de, nil
	})
	r.Register("de2", func(ctx context.Context) (TorrentClient, error) {
		return broken, nil
	})
	r.Register("qb1", func(ctx context.Context) (TorrentClient, error) {
		return &stubClient{name: "qb1"}, nil
	})

	for _, name := range []string{"de1", "de2", "qb1"} {
		_, err := r.Resolve(context.Background(), name)
		require.NoError(t, err)
	}

	r.Close()

	assert.Equal(t, 1, de.closed)
	assert.Equal(t, 1, broken.closed, "a failing close does not stop the others")
	assert.Empty(t, r.clients)

	// a closed registry reconnects on the next resolve
	_, err := r.Resolve(context.Background(), "de1")
	require.NoError(t, err)
	assert.Equal(t, 2, connects)

	r.Close()
	assert.Equal(t, 2, de.closed)
}
