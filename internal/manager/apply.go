package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/metrics"
)

// Outcome describes what happened to a single action
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeFailed      Outcome = "failed"
)

// Result is the outcome of applying one action to one torrent
type Result struct {
	Action  Action
	Outcome Outcome
	Err     error
}

// Applier executes policy actions against a downloader, one torrent at a time
type Applier struct {
	log zerolog.Logger
}

func NewApplier(logger zerolog.Logger) *Applier {
	return &Applier{log: logger}
}

// Apply runs actions in order. A failing action is logged and does not stop
// the remaining ones.
func (a *Applier) Apply(ctx context.Context, c client.TorrentClient, t client.Torrent, actions []Action) []Result {
	results := make([]Result, 0, len(actions))

	logger := a.log.With().
		Str("downloader", c.Name()).
		Str("hash", t.Hash).
		Str("torrent", t.Name).
		Logger()

	for _, action := range actions {
		var (
			outcome Outcome
			err     error
		)

		switch action.Kind {
		case ActionTag:
			outcome, err = a.tag(ctx, c, t, action.Tag, logger)
		case ActionSetUploadLimit:
			outcome, err = a.limit(ctx, c, t, action.LimitKBs, logger)
		case ActionPause:
			outcome, err = a.pause(ctx, c, t, logger)
		default:
			outcome, err = OutcomeFailed, fmt.Errorf("unknown action %q", action.Kind)
		}

		if err != nil {
			if errors.Is(err, client.ErrUnsupported) {
				outcome = OutcomeUnsupported
				logger.Warn().
					Str("type", string(c.Type())).
					Str("action", string(action.Kind)).
					Msg("downloader type does not support action, skipping")
			} else {
				outcome = OutcomeFailed
				logger.Error().
					Err(err).
					Str("action", string(action.Kind)).
					Msg("failed to apply action")
			}
		}

		metrics.RecordAction(c.Name(), string(action.Kind), string(outcome))
		results = append(results, Result{Action: action, Outcome: outcome, Err: err})
	}

	return results
}

// tag re-reads the torrent tags first so a tag added since the snapshot is not sent again
func (a *Applier) tag(ctx context.Context, c client.TorrentClient, t client.Torrent, tag string, logger zerolog.Logger) (Outcome, error) {
	current, err := c.GetTags(ctx, t.Hash)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to read tags: %w", err)
	}

	if client.HasTag(current, tag) {
		logger.Debug().Str("tag", tag).Msg("torrent already tagged")
		return OutcomeSkipped, nil
	}

	if err := c.AddTag(ctx, t.Hash, tag); err != nil {
		return OutcomeFailed, err
	}

	logger.Info().Str("tag", tag).Msg("added tag to torrent")
	return OutcomeApplied, nil
}

func (a *Applier) limit(ctx context.Context, c client.TorrentClient, t client.Torrent, kbs float64, logger zerolog.Logger) (Outcome, error) {
	bytesPerSecond := UploadLimitBytes(kbs)

	if err := c.SetUploadLimit(ctx, []string{t.Hash}, bytesPerSecond); err != nil {
		return OutcomeFailed, err
	}

	limit := "unlimited"
	if bytesPerSecond > 0 {
		limit = units.BytesSize(float64(bytesPerSecond)) + "/s"
	}
	logger.Info().
		Str("limit", limit).
		Int64("bytesPerSecond", bytesPerSecond).
		Msg("set torrent upload limit")
	return OutcomeApplied, nil
}

func (a *Applier) pause(ctx context.Context, c client.TorrentClient, t client.Torrent, logger zerolog.Logger) (Outcome, error) {
	if err := c.Pause(ctx, []string{t.Hash}); err != nil {
		return OutcomeFailed, err
	}

	logger.Info().Float64("ratio", t.Ratio).Msg("torrent reached ratio limit, paused")
	return OutcomeApplied, nil
}

// UploadLimitBytes converts KB/s to bytes per second, truncating toward zero
func UploadLimitBytes(kbs float64) int64 {
	return int64(kbs * 1024)
}
