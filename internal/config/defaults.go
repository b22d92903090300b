package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const header = `# BT Manager Configuration
#
# Torrents without any tracker (DHT/PEX/magnet only) are treated as BT torrents.
# For every BT torrent in the listed downloaders:
# - tagName: tag added to the torrent (the run is skipped when empty)
# - uploadSpeedLimitKBs: upload cap in KB/s, 0 disables, -1 removes the limit
# - ratioLimit: pause once the share ratio reaches this value, 0 disables
#
# schedule is a standard 5-field cron expression.
#
# For qBittorrent:
# - URL format: http(s)://hostname:port
# - Optional HTTP basic auth credentials
#
# Transmission and Deluge torrents are listed and classified only, no changes
# are made to them.

`

// Default returns the config written by the init command
func Default() Config {
	return Config{
		Enabled:     false,
		TagName:     DefaultTagName,
		Downloaders: []string{"qbit-local"},
		Schedule:    DefaultSchedule,
		QBitClients: map[string]QBitConfig{
			"qbit-local": {
				URL:      "http://localhost:8080",
				Username: "admin",
				Password: "adminadmin",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Render marshals cfg to YAML with the explanatory header
func Render(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(header), data...), nil
}
