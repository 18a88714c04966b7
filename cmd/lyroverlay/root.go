package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/config"
)

var (
	// global flags
	configPath   string
	source       string
	mprisService string
	mpdAddr      string
	lrclibURL    string
	neteaseURL   string
	lyricsDir    string
	providers    []string
	tickInterval string
	pollInterval string
	httpTimeout  string
	syncOffset   float64
	cacheDir     string
	noCache      bool
	logFile      string
	debug        bool
	hideHeader   bool
)

var rootCmd = &cobra.Command{
	Use:   "lyroverlay",
	Short: "synchronized lyric overlay for linux music players",
	Long: `lyroverlay follows the track playing in an mpris player or mpd, looks up
time-stamped lyrics and shows the line being sung, kept in step with playback.

when run without a subcommand, it starts the overlay.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/lyroverlay/config.toml)")
	flags.StringVar(&source, "source", "", "player source: mpris or mpd")
	flags.StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	flags.StringVar(&mpdAddr, "mpd-addr", "", "mpd address (host:port)")
	flags.StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	flags.StringVar(&neteaseURL, "netease-url", "", "custom netease api base url")
	flags.StringVar(&lyricsDir, "lyrics-dir", "", "directory of local .lrc files")
	flags.StringSliceVar(&providers, "providers", nil, "lyric providers in lookup order (local,lrclib,netease)")
	flags.StringVar(&tickInterval, "tick-interval", "", "render tick interval (e.g., 50ms)")
	flags.StringVar(&pollInterval, "poll-interval", "", "player poll interval (e.g., 1s)")
	flags.StringVar(&httpTimeout, "http-timeout", "", "timeout for provider requests (e.g., 10s)")
	flags.Float64VarP(&syncOffset, "sync-offset", "s", 0, "initial sync offset in seconds (positive shows lyrics earlier)")
	flags.StringVar(&cacheDir, "cache-dir", "", "lyrics cache directory")
	flags.BoolVar(&noCache, "no-cache", false, "disable cache reads (always fetch fresh)")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&hideHeader, "hide-header", "H", false, "hide header section")
}

// loadConfig reads defaults, the config file and the environment, then
// applies the flags the user actually set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = source
	}
	if flags.Changed("mpris-service") {
		cfg.MprisService = mprisService
	}
	if flags.Changed("mpd-addr") {
		cfg.MPDAddr = mpdAddr
	}
	if flags.Changed("lrclib-url") {
		cfg.LrclibURL = lrclibURL
	}
	if flags.Changed("netease-url") {
		cfg.NeteaseURL = neteaseURL
	}
	if flags.Changed("lyrics-dir") {
		cfg.LyricsDir = lyricsDir
	}
	if flags.Changed("providers") {
		cfg.SetProviders(providers)
	}
	if flags.Changed("sync-offset") {
		cfg.SyncOffsetMillis = int64(math.Round(syncOffset * 1000))
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = noCache
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"tick-interval", tickInterval, &cfg.TickInterval},
		{"poll-interval", pollInterval, &cfg.PollInterval},
		{"http-timeout", httpTimeout, &cfg.HTTPTimeout},
	}
	for _, d := range durations {
		if !flags.Changed(d.name) {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return cfg, cfg.Validate()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
