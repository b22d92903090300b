// Package manager classifies torrents and enforces the BT policies on them.
package manager

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/metrics"
)

// Resolver looks up a connected downloader by name
type Resolver interface {
	Resolve(ctx context.Context, name string) (client.TorrentClient, error)
}

// Summary counts what happened during a run
type Summary struct {
	RunID                string
	DownloadersProcessed int
	DownloadersSkipped   int
	TorrentsSeen         int
	BtTorrents           int
	Tagged               int
	Limited              int
	Paused               int
	AlreadyTagged        int
	Unsupported          int
	Failed               int
}

type Manager struct {
	policy   Policy
	resolver Resolver
	applier  *Applier
	log      zerolog.Logger
}

// New creates a manager for a single policy snapshot
func New(policy Policy, resolver Resolver, logger zerolog.Logger) *Manager {
	return &Manager{
		policy:   policy,
		resolver: resolver,
		applier:  NewApplier(logger),
		log:      logger,
	}
}

// Run processes every configured downloader in order. Errors are logged and
// never abort the run.
func (m *Manager) Run(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	logger := m.log.With().Str("runID", summary.RunID).Logger()

	if reason, ok := m.precondition(); !ok {
		logger.Info().Msg(reason)
		metrics.RecordRun("skipped", time.Since(start))
		return summary
	}

	logger.Info().
		Strs("downloaders", m.policy.Downloaders).
		Str("tag", m.policy.TagName).
		Float64("ratioLimit", m.policy.RatioLimit).
		Float64("uploadSpeedLimitKBs", m.policy.UploadSpeedLimitKBs).
		Msg("starting run")

	for i, name := range m.policy.Downloaders {
		logger.Debug().
			Str("downloader", name).
			Int("index", i+1).
			Int("total", len(m.policy.Downloaders)).
			Msg("processing downloader")

		if m.processDownloader(ctx, name, &summary, logger) {
			summary.DownloadersProcessed++
		} else {
			summary.DownloadersSkipped++
		}
	}

	metrics.RecordRun("completed", time.Since(start))

	logger.Info().
		Int("downloadersProcessed", summary.DownloadersProcessed).
		Int("downloadersSkipped", summary.DownloadersSkipped).
		Int("torrents", summary.TorrentsSeen).
		Int("btTorrents", summary.BtTorrents).
		Int("tagged", summary.Tagged).
		Int("limited", summary.Limited).
		Int("paused", summary.Paused).
		Int("unsupported", summary.Unsupported).
		Int("failed", summary.Failed).
		Dur("took", time.Since(start)).
		Msg("run finished")

	return summary
}

// precondition reports why a run should not start
func (m *Manager) precondition() (string, bool) {
	switch {
	case !m.policy.Enabled:
		return "btmanager is disabled, skipping run", false
	case m.policy.TagName == "":
		return "no tag name configured, skipping run", false
	case len(m.policy.Downloaders) == 0:
		return "no downloaders configured, skipping run", false
	}
	return "", true
}

// processDownloader returns false when the downloader was skipped
func (m *Manager) processDownloader(ctx context.Context, name string, summary *Summary, logger zerolog.Logger) bool {
	c, err := m.resolver.Resolve(ctx, name)
	if err != nil {
		logger.Warn().Err(err).Str("downloader", name).Msg("could not resolve downloader, skipping")
		metrics.RecordDownloaderError(name, "resolve")
		return false
	}

	torrents, err := c.ListTorrents(ctx)
	if err != nil {
		logger.Error().Err(err).Str("downloader", name).Msg("failed to get torrents, skipping")
		metrics.RecordDownloaderError(name, "fetch")
		return false
	}

	if len(torrents) == 0 {
		logger.Info().Str("downloader", name).Msg("no torrents in downloader")
		return false
	}

	bt := 0
	for _, t := range torrents {
		summary.TorrentsSeen++

		if !IsBtTorrent(t) {
			continue
		}
		bt++
		summary.BtTorrents++

		logger.Debug().
			Str("downloader", name).
			Str("hash", t.Hash).
			Str("torrent", t.Name).
			Float64("ratio", t.Ratio).
			Msg("torrent is a BT torrent")

		actions := Evaluate(t, m.policy)
		if len(actions) == 0 {
			continue
		}

		for _, r := range m.applier.Apply(ctx, c, t, actions) {
			summary.add(r)
		}
	}

	metrics.RecordTorrents(name, bt, len(torrents)-bt)
	return true
}

func (s *Summary) add(r Result) {
	switch r.Outcome {
	case OutcomeApplied:
		switch r.Action.Kind {
		case ActionTag:
			s.Tagged++
		case ActionSetUploadLimit:
			s.Limited++
		case ActionPause:
			s.Paused++
		}
	case OutcomeSkipped:
		s.AlreadyTagged++
	case OutcomeUnsupported:
		s.Unsupported++
	case OutcomeFailed:
		s.Failed++
	}
}
