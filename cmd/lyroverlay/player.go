package main

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/player"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "player utilities",
	Long:  `discover mpris players and inspect what the configured player is doing.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	Long:  `list all mpris-compatible music players currently running on the system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		players, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}

		if len(players) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(players))
		for _, service := range players {
			if identity := getPlayerIdentity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}

		fmt.Println("\nuse --mpris-service flag to specify which player to use")

		return nil
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show currently playing track",
	Long:  `display the track and position reported by the configured player source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		src, closeSource, err := openSource(cfg, logging.Discard())
		if err != nil {
			return err
		}
		defer closeSource()
		defer src.Stop()

		info, sample, err := src.Snapshot()
		if errors.Is(err, player.ErrNoTrack) {
			fmt.Println("no track currently playing")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src.Name(), err)
		}

		fmt.Printf("source:   %s\n", src.Name())
		fmt.Printf("title:    %s\n", info.Title)
		fmt.Printf("artist:   %s\n", info.Artist)
		if info.Album != "" {
			fmt.Printf("album:    %s\n", info.Album)
		}
		if info.DurationMillis > 0 {
			fmt.Printf("duration: %s\n", formatDuration(info.DurationMillis))
		}
		if info.ArtworkURL != "" {
			fmt.Printf("artwork:  %s\n", info.ArtworkURL)
		}
		if sample.Playing {
			fmt.Printf("state:    playing\n")
		} else {
			fmt.Printf("state:    paused\n")
		}
		fmt.Printf("position: %s\n", formatDuration(sample.PositionMillis))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerCurrentCmd)
}

func getPlayerIdentity(bus *dbus.Conn, serviceName string) string {
	obj := bus.Object(serviceName, "/org/mpris/MediaPlayer2")
	variant, err := obj.GetProperty("org.mpris.MediaPlayer2.Identity")
	if err != nil {
		return ""
	}

	identity, ok := variant.Value().(string)
	if !ok {
		return ""
	}

	return identity
}

// formatDuration renders milliseconds as m:ss.
func formatDuration(ms int64) string {
	if ms < 0 {
		return "0:00"
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
