package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/s0up4200/btmanager-go/internal/client"
)

// fakeClient records every backend call in order
type fakeClient struct {
	name     string
	typ      client.Type
	torrents []client.Torrent
	listErr  error

	tags      map[string][]string
	addTagErr error
	limitErr  error
	pauseErr  error

	calls []string
}

func newFakeClient(name string, torrents ...client.Torrent) *fakeClient {
	f := &fakeClient{
		name:     name,
		typ:      client.TypeQBittorrent,
		torrents: torrents,
		tags:     make(map[string][]string),
	}
	for _, t := range torrents {
		f.tags[t.Hash] = append([]string(nil), t.Tags...)
	}
	return f
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Type() client.Type { return f.typ }

func (f *fakeClient) unsupported() bool { return f.typ != client.TypeQBittorrent }

func (f *fakeClient) ListTorrents(ctx context.Context) ([]client.Torrent, error) {
	f.calls = append(f.calls, "list")
	return f.torrents, f.listErr
}

func (f *fakeClient) GetTags(ctx context.Context, hash string) ([]string, error) {
	if f.unsupported() {
		return nil, fmt.Errorf("%s tags: %w", f.typ, client.ErrUnsupported)
	}
	return f.tags[hash], nil
}

func (f *fakeClient) AddTag(ctx context.Context, hash string, tag string) error {
	if f.unsupported() {
		return fmt.Errorf("%s tags: %w", f.typ, client.ErrUnsupported)
	}
	f.calls = append(f.calls, fmt.Sprintf("addTag %s %s", hash, tag))
	if f.addTagErr != nil {
		return f.addTagErr
	}
	f.tags[hash] = append(f.tags[hash], tag)
	return nil
}

func (f *fakeClient) SetUploadLimit(ctx context.Context, hashes []string, bytesPerSecond int64) error {
	if f.unsupported() {
		return fmt.Errorf("%s upload limit: %w", f.typ, client.ErrUnsupported)
	}
	f.calls = append(f.calls, fmt.Sprintf("setUploadLimit %v %d", hashes, bytesPerSecond))
	return f.limitErr
}

func (f *fakeClient) Pause(ctx context.Context, hashes []string) error {
	if f.unsupported() {
		return fmt.Errorf("%s pause: %w", f.typ, client.ErrUnsupported)
	}
	f.calls = append(f.calls, fmt.Sprintf("pause %v", hashes))
	return f.pauseErr
}

// mutations returns the recorded calls without list calls
func (f *fakeClient) mutations() []string {
	var out []string
	for _, c := range f.calls {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}

type fakeResolver map[string]*fakeClient

func (r fakeResolver) Resolve(ctx context.Context, name string) (client.TorrentClient, error) {
	c, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrUnknownDownloader, name)
	}
	return c, nil
}

var errBackend = errors.New("service unavailable")
