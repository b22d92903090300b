package config

import "strings"

const (
	DefaultTagName  = "BT"
	DefaultSchedule = "0 0 * * 0"
)

type Config struct {
	Enabled          bool     `yaml:"enabled" mapstructure:"enabled"`
	TagName          string   `yaml:"tagName" mapstructure:"tagName"`
	Downloaders      []string `yaml:"downloaders" mapstructure:"downloaders"`
	StartImmediately bool     `yaml:"startImmediately" mapstructure:"startImmediately"`
	// RatioLimit pauses BT torrents whose share ratio reaches it. 0 disables.
	RatioLimit float64 `yaml:"ratioLimit" mapstructure:"ratioLimit"`
	// UploadSpeedLimitKBs caps BT torrent uploads in KB/s. 0 disables, -1 means unlimited.
	UploadSpeedLimitKBs float64 `yaml:"uploadSpeedLimitKBs" mapstructure:"uploadSpeedLimitKBs"`
	Schedule            string  `yaml:"schedule" mapstructure:"schedule"`

	QBitClients         map[string]QBitConfig         `yaml:"qbittorrent,omitempty" mapstructure:"qbittorrent"`
	DelugeClients       map[string]DelugeConfig       `yaml:"deluge,omitempty" mapstructure:"deluge"`
	TransmissionClients map[string]TransmissionConfig `yaml:"transmission,omitempty" mapstructure:"transmission"`

	Logging     LoggingConfig `yaml:"logging" mapstructure:"logging"`
	MetricsAddr string        `yaml:"metricsAddr,omitempty" mapstructure:"metricsAddr"`
	LockFile    string        `yaml:"lockFile,omitempty" mapstructure:"lockFile"`
}

type QBitConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
	BasicUser string `yaml:"basicUser,omitempty" mapstructure:"basicUser"`
	BasicPass string `yaml:"basicPass,omitempty" mapstructure:"basicPass"`
}

type DelugeConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     uint   `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	// V1 skips the v2 handshake for Deluge 1.x daemons
	V1 bool `yaml:"v1,omitempty" mapstructure:"v1"`
}

type TransmissionConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HasDownloader reports whether name is defined under any backend type.
// Names are case-insensitive since viper lowercases map keys.
func (c *Config) HasDownloader(name string) bool {
	name = strings.ToLower(name)
	if _, ok := c.QBitClients[name]; ok {
		return true
	}
	if _, ok := c.DelugeClients[name]; ok {
		return true
	}
	_, ok := c.TransmissionClients[name]
	return ok
}
