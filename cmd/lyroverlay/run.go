package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/session"
	"karolbroda.com/lyroverlay/internal/terminal"
	"karolbroda.com/lyroverlay/internal/ui"
)

var plainOutput bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the lyric overlay",
	Long: `starts the overlay: follows the player, looks up lyrics and shows the current line.
with --plain (or when stdout is not a terminal) each new line is printed instead.`,
	RunE: runOverlay,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&plainOutput, "plain", false, "print lines to stdout instead of drawing the overlay")
	rootCmd.Flags().BoolVar(&plainOutput, "plain", false, "print lines to stdout instead of drawing the overlay")
}

func runOverlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	plain := plainOutput || !terminal.DetectCapabilities(os.Stdout).Interactive

	logger, closeLog, err := openLogger(cfg, !plain)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := openCache(cfg, logger)
	provider, err := buildProvider(ctx, cfg, store, true, logger)
	if err != nil {
		return err
	}

	src, closeSource, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	sess := session.New(src, provider, session.Options{
		OffsetMillis: cfg.SyncOffsetMillis,
		Logger:       logger,
	})

	var runErr error
	done := make(chan struct{})

	if plain {
		go func() {
			defer close(done)
			runErr = sess.Run(ctx)
			cancel()
		}()

		err := ui.RunPlain(ctx, sess.Controller(), cfg.TickInterval, os.Stdout)
		cancel()
		<-done
		if runErr != nil {
			return runErr
		}
		return err
	}

	defer terminal.Reset(os.Stdout)

	p := tea.NewProgram(
		ui.NewModel(ui.ModelConfig{
			Controller:   sess.Controller(),
			TickInterval: cfg.TickInterval,
			HideHeader:   hideHeader,
			Retry:        sess.Retry,
		}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	go func() {
		defer close(done)
		runErr = sess.Run(ctx)
		p.Quit()
	}()

	_, err = p.Run()
	cancel()
	<-done

	if runErr != nil {
		return runErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running bubble tea: %w", err)
	}
	return nil
}
