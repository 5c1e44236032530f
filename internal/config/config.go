package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NotifyChannel selects how players are warned before a restart.
type NotifyChannel string

const (
	// NotifyScreen sends server commands through a screen session.
	NotifyScreen NotifyChannel = "screen"
	// NotifyRcon sends server commands through the RCON port.
	NotifyRcon NotifyChannel = "rcon"
)

// Config holds settings shared by the paper-updater binaries.
type Config struct {
	// APIBaseURL is the base URL of the build distribution API,
	// e.g. https://api.papermc.io/v2/projects/paper.
	APIBaseURL string `yaml:"api_base_url"`
	// GameVersion is the pinned game version whose builds are tracked.
	GameVersion string `yaml:"game_version"`
	// InstallPath is the location of the installed server jar.
	InstallPath string `yaml:"install_path"`
	// BackupPath is where the displaced jar is kept after an update.
	BackupPath string `yaml:"backup_path"`
	// ServiceName is the systemd unit restarted after an update.
	ServiceName string `yaml:"service_name"`
	// UseSudo prefixes the restart command with sudo.
	UseSudo bool `yaml:"use_sudo"`
	// Channel picks the player notification transport.
	Channel NotifyChannel `yaml:"notify_channel"`
	// ScreenSession is the screen session name hosting the server console.
	ScreenSession string `yaml:"screen_session"`
	// RconAddress is the RCON endpoint (host:port) when Channel is "rcon".
	RconAddress string `yaml:"rcon_address"`
	// RconPassword authenticates the RCON session.
	RconPassword string `yaml:"rcon_password"`
	// GracePeriod is how long players get between the warning and the restart.
	GracePeriod time.Duration `yaml:"grace_period"`
	// Timeout bounds individual HTTP requests against the distribution API.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "paper-updater.yaml"

	// DefaultInstallFilename is the default installed jar slot.
	DefaultInstallFilename = "paper.jar"

	// DefaultBackupFilename is the default previous-backup jar slot.
	DefaultBackupFilename = "paper-previous.jar"

	// DefaultServiceName is the default systemd unit name.
	DefaultServiceName = "paper"

	// DefaultScreenSession is the default screen session name.
	DefaultScreenSession = "paper"

	// DefaultGracePeriod is the warning-to-restart delay players are promised.
	DefaultGracePeriod = 15 * time.Second

	// DefaultTimeout is the default duration for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAPIBaseRequired is returned when the distribution API base URL is missing.
	errAPIBaseRequired = errors.New("api base URL must be provided")
	// errGameVersionRequired is returned when the pinned game version is missing.
	errGameVersionRequired = errors.New("game version must be provided")
	// errRconAddressRequired is returned when the rcon channel lacks an address.
	errRconAddressRequired = errors.New("rcon address must be provided for the rcon channel")
	// errUnknownChannel is returned for notify channels other than screen and rcon.
	errUnknownChannel = errors.New("unknown notify channel")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file may carry the RCON password.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, applies defaults, and verifies formats.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.APIBaseURL == "" {
		return errAPIBaseRequired
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api base URL: %w", err)
	}

	if cfg.GameVersion == "" {
		return errGameVersionRequired
	}

	if cfg.InstallPath == "" {
		cfg.InstallPath = DefaultInstallFilename
	}

	if cfg.BackupPath == "" {
		cfg.BackupPath = DefaultBackupFilename
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Channel {
	case NotifyScreen, "":
		cfg.Channel = NotifyScreen
		if cfg.ScreenSession == "" {
			cfg.ScreenSession = DefaultScreenSession
		}
	case NotifyRcon:
		if cfg.RconAddress == "" {
			return errRconAddressRequired
		}

		if _, err := net.ResolveTCPAddr("tcp", cfg.RconAddress); err != nil {
			return fmt.Errorf("invalid rcon address: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", errUnknownChannel, cfg.Channel)
	}

	return nil
}
