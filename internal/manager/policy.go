package manager

import (
	"fmt"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/config"
)

// Policy is the run configuration. It is built once at the start of a run
// and never changed while the run is in progress.
type Policy struct {
	Enabled             bool
	TagName             string
	Downloaders         []string
	RatioLimit          float64
	UploadSpeedLimitKBs float64
}

// NewPolicy copies the policy settings out of cfg
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		Enabled:             cfg.Enabled,
		TagName:             cfg.TagName,
		Downloaders:         append([]string(nil), cfg.Downloaders...),
		RatioLimit:          cfg.RatioLimit,
		UploadSpeedLimitKBs: cfg.UploadSpeedLimitKBs,
	}
}

// ActionKind enumerates the policy actions
type ActionKind string

const (
	ActionTag            ActionKind = "tag"
	ActionSetUploadLimit ActionKind = "limit"
	ActionPause          ActionKind = "pause"
)

// Action is a single policy decision for a torrent
type Action struct {
	Kind ActionKind
	// Tag is set for ActionTag
	Tag string
	// LimitKBs is set for ActionSetUploadLimit
	LimitKBs float64
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTag:
		return fmt.Sprintf("tag %q", a.Tag)
	case ActionSetUploadLimit:
		if a.LimitKBs < 0 {
			return "limit unlimited"
		}
		return fmt.Sprintf("limit %g KB/s", a.LimitKBs)
	default:
		return string(a.Kind)
	}
}

// IsBtTorrent reports whether t is a BT torrent, i.e. it has no trackers at all.
// A tracker list that failed to load looks the same as an empty one.
func IsBtTorrent(t client.Torrent) bool {
	return t.TrackerCount == 0
}

// Evaluate returns the actions p requires for t, in the order they must be
// applied: tag, upload limit, pause. Torrents that are not BT get none.
func Evaluate(t client.Torrent, p Policy) []Action {
	if !IsBtTorrent(t) {
		return nil
	}

	var actions []Action

	if p.TagName != "" && !client.HasTag(t.Tags, p.TagName) {
		actions = append(actions, Action{Kind: ActionTag, Tag: p.TagName})
	}

	// negative limits mean unlimited and are applied too
	if p.UploadSpeedLimitKBs != 0 {
		actions = append(actions, Action{Kind: ActionSetUploadLimit, LimitKBs: p.UploadSpeedLimitKBs})
	}

	if p.RatioLimit > 0 && t.Ratio >= p.RatioLimit {
		actions = append(actions, Action{Kind: ActionPause})
	}

	return actions
}
