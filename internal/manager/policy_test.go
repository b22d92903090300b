package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/config"
)

func TestIsBtTorrent(t *testing.T) {
	for _, count := range []int{0, 1, 3, 50} {
		got := IsBtTorrent(client.Torrent{TrackerCount: count})
		assert.Equal(t, count == 0, got, "trackerCount=%d", count)
	}
}

func TestEvaluate(t *testing.T) {
	full := Policy{Enabled: true, TagName: "BT", RatioLimit: 2.0, UploadSpeedLimitKBs: 50}

	tests := []struct {
		name    string
		torrent client.Torrent
		policy  Policy
		want    []Action
	}{
		{
			name:    "all policies apply in order",
			torrent: client.Torrent{Hash: "abc", Ratio: 2.5},
			policy:  full,
			want: []Action{
				{Kind: ActionTag, Tag: "BT"},
				{Kind: ActionSetUploadLimit, LimitKBs: 50},
				{Kind: ActionPause},
			},
		},
		{
			name:    "torrent with trackers yields nothing",
			torrent: client.Torrent{Hash: "abc", TrackerCount: 3, Ratio: 10},
			policy:  full,
			want:    nil,
		},
		{
			name:    "already tagged",
			torrent: client.Torrent{Hash: "abc", Tags: []string{" bt "}},
			policy:  full,
			want:    []Action{{Kind: ActionSetUploadLimit, LimitKBs: 50}},
		},
		{
			name:    "empty tag name never tags",
			torrent: client.Torrent{Hash: "abc"},
			policy:  Policy{UploadSpeedLimitKBs: 0, RatioLimit: 0},
			want:    nil,
		},
		{
			name:    "unlimited sentinel is applied",
			torrent: client.Torrent{Hash: "abc", Tags: []string{"BT"}},
			policy:  Policy{TagName: "BT", UploadSpeedLimitKBs: -1},
			want:    []Action{{Kind: ActionSetUploadLimit, LimitKBs: -1}},
		},
		{
			name:    "ratio exactly at limit pauses",
			torrent: client.Torrent{Hash: "abc", Tags: []string{"BT"}, Ratio: 1.0},
			policy:  Policy{TagName: "BT", RatioLimit: 1.0},
			want:    []Action{{Kind: ActionPause}},
		},
		{
			name:    "ratio below limit does not pause",
			torrent: client.Torrent{Hash: "abc", Tags: []string{"BT"}, Ratio: 0.999},
			policy:  Policy{TagName: "BT", RatioLimit: 1.0},
			want:    nil,
		},
		{
			name:    "zero ratio limit disables pause",
			torrent: client.Torrent{Hash: "abc", Tags: []string{"BT"}, Ratio: 100},
			policy:  Policy{TagName: "BT"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.torrent, tt.policy))
		})
	}
}

func TestEvaluateEmptyTagNameNeverTags(t *testing.T) {
	policy := Policy{TagName: "", RatioLimit: 1, UploadSpeedLimitKBs: 10}
	torrents := []client.Torrent{
		{Hash: "a"},
		{Hash: "b", Tags: []string{"BT"}},
		{Hash: "c", Ratio: 5},
		{Hash: "d", TrackerCount: 2},
	}

	for _, torrent := range torrents {
		for _, action := range Evaluate(torrent, policy) {
			assert.NotEqual(t, ActionTag, action.Kind, "torrent %s", torrent.Hash)
		}
	}
}

func TestNewPolicyCopiesDownloaders(t *testing.T) {
	cfg := &config.Config{
		Enabled:             true,
		TagName:             "BT",
		Downloaders:         []string{"qb1", "qb2"},
		RatioLimit:          1.5,
		UploadSpeedLimitKBs: 100,
	}

	p := NewPolicy(cfg)
	cfg.Downloaders[0] = "changed"

	assert.Equal(t, []string{"qb1", "qb2"}, p.Downloaders)
	assert.Equal(t, 1.5, p.RatioLimit)
	assert.Equal(t, 100.0, p.UploadSpeedLimitKBs)
}

func TestUploadLimitBytes(t *testing.T) {
	cases := map[float64]int64{
		-1:    -1024,
		100:   102400,
		50:    51200,
		0.5:   512,
		1.001: 1025,
	}
	for kbs, want := range cases {
		assert.Equal(t, want, UploadLimitBytes(kbs), "kbs=%v", kbs)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, `tag "BT"`, Action{Kind: ActionTag, Tag: "BT"}.String())
	assert.Equal(t, "limit 50 KB/s", Action{Kind: ActionSetUploadLimit, LimitKBs: 50}.String())
	assert.Equal(t, "limit unlimited", Action{Kind: ActionSetUploadLimit, LimitKBs: -1}.String())
	assert.Equal(t, "pause", Action{Kind: ActionPause}.String())
}
