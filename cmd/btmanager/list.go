package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/s0up4200/btmanager-go/internal/client"
	"github.com/s0up4200/btmanager-go/internal/manager"
	"github.com/s0up4200/btmanager-go/internal/torrentfile"
)

const maxNameWidth = 48

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	policy := manager.NewPolicy(cfg)
	names := policy.Downloaders
	if len(args) == 1 {
		names = args
	}
	if len(names) == 0 {
		log.Info().Msg("no downloaders configured")
		return nil
	}

	registry := client.NewRegistryFromConfig(cfg)
	defer registry.Close()

	var rows [][]string
	for _, name := range names {
		c, err := registry.Resolve(cmd.Context(), name)
		if err != nil {
			log.Warn().Err(err).Str("downloader", name).Msg("could not resolve downloader, skipping")
			continue
		}

		torrents, err := c.ListTorrents(cmd.Context())
		if err != nil {
			log.Error().Err(err).Str("downloader", name).Msg("failed to get torrents, skipping")
			continue
		}

		for _, t := range torrents {
			rows = append(rows, listRow(c, t, policy))
		}
	}

	if len(rows) == 0 {
		log.Info().Msg("no torrents found")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Downloader", "Name", "Hash", "Size", "Trackers", "Ratio", "Class", "Tags", "Pending"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

func listRow(c client.TorrentClient, t client.Torrent, policy manager.Policy) []string {
	class := "tracked"
	var pending []string
	if manager.IsBtTorrent(t) {
		class = "BT"
		for _, a := range manager.Evaluate(t, policy) {
			pending = append(pending, a.String())
		}
	}

	return []string{
		c.Name(),
		truncate(t.Name, maxNameWidth),
		shortHash(t.Hash),
		units.HumanSize(float64(t.Size)),
		fmt.Sprint(t.TrackerCount),
		fmt.Sprintf("%.2f", t.Ratio),
		class,
		strings.Join(t.Tags, ","),
		strings.Join(pending, ", "),
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	var rows [][]string
	var failed []string
	for _, path := range args {
		m, err := torrentfile.Read(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to inspect torrent")
			failed = append(failed, path)
			continue
		}

		class := "tracked"
		if m.IsBT() {
			class = "BT"
		}
		rows = append(rows, []string{
			truncate(m.Name, maxNameWidth),
			shortHash(m.InfoHash),
			m.HumanSize(),
			fmt.Sprint(m.Files),
			fmt.Sprint(m.TrackerCount()),
			fmt.Sprint(m.Private),
			class,
		})
	}

	if len(rows) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Name", "Info Hash", "Size", "Files", "Trackers", "Private", "Class"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
	}

	if len(failed) > 0 {
		return errors.New("failed to inspect " + strings.Join(failed, ", "))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
