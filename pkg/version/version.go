// Package version holds build information and checks GitHub for newer releases.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	runtime "runtime/debug"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// Set through -ldflags, filled from the embedded build info otherwise
var (
	Version string
	Commit  string
	Date    string
)

// githubAPI is the base URL for release lookups
var githubAPI = "https://api.github.com"

func init() {
	info, ok := runtime.ReadBuildInfo()
	if !ok {
		info = &runtime.BuildInfo{}
	}

	if Version == "" {
		Version = "dev"
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = v
		}
	}
	if Commit == "" {
		Commit = buildSetting(info, "vcs.revision", "none")
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
	}
	if Date == "" {
		Date = buildSetting(info, "vcs.time", "unknown")
	}
}

func buildSetting(info *runtime.BuildInfo, key, fallback string) string {
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return fallback
}

// Release is the subset of a GitHub release used for update checks
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Version returns the tag without its leading v
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// UpdateAvailable reports whether latest is a newer release than current.
// Versions that do not parse as semver are compared as plain strings.
func UpdateAvailable(current, latest string) bool {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return strings.TrimPrefix(current, "v") != strings.TrimPrefix(latest, "v")
	}
	lat, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	return lat.GreaterThan(cur)
}

// LatestRelease fetches the latest published release of org/repo
func LatestRelease(ctx context.Context, org, repo string) (*Release, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", githubAPI, org, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", repo, Version))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api request failed: %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse github response: %w", err)
	}
	return &release, nil
}

// CheckForUpdates logs the build info and whether a newer release exists.
// Lookup failures are logged, never returned.
func CheckForUpdates(ctx context.Context, org, repo string) error {
	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("buildDate", Date).
		Msg("btmanager version info")

	release, err := LatestRelease(ctx, org, repo)
	if err != nil {
		log.Warn().Err(err).Msg("could not check for updates")
		return nil
	}

	switch {
	case Version == "dev":
		log.Info().
			Str("latestRelease", release.Version()).
			Time("publishedAt", release.PublishedAt).
			Msg("running development version")
	case UpdateAvailable(Version, release.Version()):
		log.Info().
			Str("current", Version).
			Str("latest", release.Version()).
			Time("publishedAt", release.PublishedAt).
			Str("updateUrl", release.HTMLURL).
			Msg("update available")
	default:
		log.Info().
			Time("publishedAt", release.PublishedAt).
			Msg("you are running the latest version")
	}

	return nil
}
