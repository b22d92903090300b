package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/config"
	"github.com/s0up4200/btmanager-go/internal/manager"
	"github.com/s0up4200/btmanager-go/internal/metrics"
	"github.com/s0up4200/btmanager-go/internal/scheduler"
	"github.com/s0up4200/btmanager-go/pkg/version"
)

// runOnce reloads the config at path and performs a single policy run
// against freshly connected downloaders.
func runOnce(ctx context.Context, path string) (manager.Summary, error) {
	cfg, _, err := config.Load(path)
	if err != nil {
		return manager.Summary{}, fmt.Errorf("failed to reload config: %w", err)
	}

	return runPolicy(ctx, cfg, client.NewRegistryFromConfig(cfg)), nil
}

// runPolicy runs the policy against registry and closes its sessions afterwards
func runPolicy(ctx context.Context, cfg *config.Config, registry *client.Registry) manager.Summary {
	defer registry.Close()
	return manager.New(manager.NewPolicy(cfg), registry, log.Logger).Run(ctx)
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.Enabled {
		log.Info().Str("path", path).Msg("btmanager is disabled, not starting service")
		return nil
	}

	sched, err := scheduler.New(cfg.Schedule, cfg.LockFile, func(ctx context.Context) error {
		_, err := runOnce(ctx, path)
		return err
	}, log.Logger)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", version.Version).
		Str("schedule", cfg.Schedule).
		Strs("downloaders", cfg.Downloaders).
		Msg("starting btmanager service")

	g, ctx := errgroup.WithContext(cmd.Context())

	if cfg.MetricsAddr != "" {
		srv := newMetricsServer(cfg.MetricsAddr)
		g.Go(func() error {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if runNow || cfg.StartImmediately {
		g.Go(func() error {
			log.Info().Msg("performing initial run")
			sched.RunAndLog(ctx)
			return nil
		})
	}

	g.Go(func() error {
		return sched.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		return err
	}

	log.Info().Msg("service stopped")
	return nil
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	var summary manager.Summary
	sched, err := scheduler.New(cfg.Schedule, cfg.LockFile, func(ctx context.Context) error {
		s, err := runOnce(ctx, path)
		summary = s
		return err
	}, log.Logger)
	if err != nil {
		return err
	}

	if err := sched.RunNow(cmd.Context()); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			log.Error().Str("lock", cfg.LockFile).Msg("another run is in progress")
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Downloaders", "Skipped", "Torrents", "BT", "Tagged", "Limited", "Paused", "Unsupported", "Failed"},
		[][]string{{
			fmt.Sprint(summary.DownloadersProcessed),
			fmt.Sprint(summary.DownloadersSkipped),
			fmt.Sprint(summary.TorrentsSeen),
			fmt.Sprint(summary.BtTorrents),
			fmt.Sprint(summary.Tagged),
			fmt.Sprint(summary.Limited),
			fmt.Sprint(summary.Paused),
			fmt.Sprint(summary.Unsupported),
			fmt.Sprint(summary.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}
