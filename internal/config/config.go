package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	SourceMPRIS = "mpris"
	SourceMPD   = "mpd"

	ProviderLRCLIB  = "lrclib"
	ProviderNetease = "netease"
	ProviderLocal   = "local"

	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultMPDAddr      = "localhost:6600"
	DefaultLrclibGetURL = "https://lrclib.net/api/get"
	DefaultNeteaseURL   = "https://music.163.com"
	DefaultTickInterval = 50 * time.Millisecond
	DefaultPollInterval = time.Second
	DefaultHTTPTimeout  = 10 * time.Second

	configDirName  = "lyroverlay"
	configFileName = "config.toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Source       string
	MprisService string
	MPDAddr      string
	MPDPassword  string

	LrclibURL  string
	NeteaseURL string
	LyricsDir  string
	Providers  []string

	TickInterval     time.Duration
	PollInterval     time.Duration
	HTTPTimeout      time.Duration
	SyncOffsetMillis int64

	CacheDir string
	NoCache  bool
	LogFile  string
	Debug    bool
}

// fileConfig mirrors config.toml. Durations are Go duration strings.
type fileConfig struct {
	Source       string   `toml:"source"`
	MprisService string   `toml:"mpris_service"`
	MPDAddr      string   `toml:"mpd_addr"`
	MPDPassword  string   `toml:"mpd_password"`
	LrclibURL    string   `toml:"lrclib_url"`
	NeteaseURL   string   `toml:"netease_url"`
	LyricsDir    string   `toml:"lyrics_dir"`
	Providers    []string `toml:"providers"`
	TickInterval string   `toml:"tick_interval"`
	PollInterval string   `toml:"poll_interval"`
	HTTPTimeout  string   `toml:"http_timeout"`
	SyncOffsetMS *int64   `toml:"sync_offset_ms"`
	CacheDir     string   `toml:"cache_dir"`
	NoCache      *bool    `toml:"no_cache"`
	LogFile      string   `toml:"log_file"`
	Debug        *bool    `toml:"debug"`
}

func Default() Config {
	return Config{
		Source:       SourceMPRIS,
		MprisService: DefaultMprisService,
		MPDAddr:      DefaultMPDAddr,
		LrclibURL:    DefaultLrclibGetURL,
		NeteaseURL:   DefaultNeteaseURL,
		Providers:    []string{ProviderLocal, ProviderLRCLIB, ProviderNetease},
		TickInterval: DefaultTickInterval,
		PollInterval: DefaultPollInterval,
		HTTPTimeout:  DefaultHTTPTimeout,
	}
}

// Load builds the configuration from defaults, then the TOML file, then
// the environment (a .env file in the working directory included). An
// empty path means the default location, which may be absent.
func Load(path string) (Config, error) {
	loadDotEnv()

	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.applyFile(path, explicit); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// DefaultPath is $XDG_CONFIG_HOME/lyroverlay/config.toml, falling back to
// ~/.config/lyroverlay/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", configDirName, configFileName)
}

func loadDotEnv(files ...string) {
	// a missing .env is the normal case
	_ = godotenv.Load(files...)
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Source, raw.Source)
	setString(&c.MprisService, raw.MprisService)
	setString(&c.MPDAddr, raw.MPDAddr)
	setString(&c.MPDPassword, raw.MPDPassword)
	setString(&c.LrclibURL, raw.LrclibURL)
	setString(&c.NeteaseURL, raw.NeteaseURL)
	setString(&c.LyricsDir, expandHome(raw.LyricsDir))
	setString(&c.CacheDir, expandHome(raw.CacheDir))
	setString(&c.LogFile, expandHome(raw.LogFile))
	if len(raw.Providers) > 0 {
		c.Providers = normalizeProviders(raw.Providers)
	}

	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"tick_interval", raw.TickInterval, &c.TickInterval},
		{"poll_interval", raw.PollInterval, &c.PollInterval},
		{"http_timeout", raw.HTTPTimeout, &c.HTTPTimeout},
	} {
		if err := setDuration(d.dst, d.raw); err != nil {
			return fmt.Errorf("parse config %s: %s: %w", path, d.key, err)
		}
	}

	if raw.SyncOffsetMS != nil {
		c.SyncOffsetMillis = *raw.SyncOffsetMS
	}
	if raw.NoCache != nil {
		c.NoCache = *raw.NoCache
	}
	if raw.Debug != nil {
		c.Debug = *raw.Debug
	}

	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Source, os.Getenv("PLAYER_SOURCE"))
	setString(&c.MprisService, os.Getenv("MPRIS_SERVICE"))
	setString(&c.MPDAddr, os.Getenv("MPD_ADDR"))
	setString(&c.MPDPassword, os.Getenv("MPD_PASSWORD"))
	setString(&c.LrclibURL, os.Getenv("LRCLIB_GET_URL"))
	setString(&c.NeteaseURL, os.Getenv("NETEASE_URL"))
	setString(&c.LyricsDir, expandHome(os.Getenv("LYRICS_DIR")))
	setString(&c.CacheDir, expandHome(os.Getenv("LYRICS_CACHE_DIR")))
	setString(&c.LogFile, expandHome(os.Getenv("LOG_FILE")))

	if providers := os.Getenv("LYRIC_PROVIDERS"); providers != "" {
		c.Providers = normalizeProviders(strings.Split(providers, ","))
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"TICK_INTERVAL", &c.TickInterval},
		{"POLL_INTERVAL", &c.PollInterval},
		{"HTTP_TIMEOUT", &c.HTTPTimeout},
	} {
		if err := setDuration(d.dst, os.Getenv(d.key)); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	// SYNC_OFFSET is in seconds, SYNC_OFFSET_MS wins when both are set
	if raw := os.Getenv("SYNC_OFFSET"); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("SYNC_OFFSET: %w", err)
		}
		c.SyncOffsetMillis = int64(seconds * 1000)
	}
	if raw := os.Getenv("SYNC_OFFSET_MS"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("SYNC_OFFSET_MS: %w", err)
		}
		c.SyncOffsetMillis = ms
	}

	if raw := os.Getenv("NO_CACHE"); raw != "" {
		c.NoCache = parseBool(raw)
	}
	if raw := os.Getenv("DEBUG"); raw != "" {
		c.Debug = parseBool(raw)
	}

	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Source {
	case SourceMPRIS:
		if c.MprisService == "" {
			return fmt.Errorf("%w: mpris_service is empty", ErrInvalidConfig)
		}
	case SourceMPD:
		if c.MPDAddr == "" {
			return fmt.Errorf("%w: mpd_addr is empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q (want %s or %s)", ErrInvalidConfig, c.Source, SourceMPRIS, SourceMPD)
	}

	if len(c.Providers) == 0 {
		return fmt.Errorf("%w: no lyric providers", ErrInvalidConfig)
	}
	for _, p := range c.Providers {
		if !slices.Contains(KnownProviders(), p) {
			return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, p)
		}
	}

	if c.TickInterval <= 0 || c.PollInterval <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: intervals and timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

// SetProviders replaces the provider order, ignoring case, blanks and
// duplicates.
func (c *Config) SetProviders(names []string) {
	c.Providers = normalizeProviders(names)
}

func KnownProviders() []string {
	return []string{ProviderLRCLIB, ProviderNetease, ProviderLocal}
}

func normalizeProviders(names []string) []string {
	var out []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
