package lookup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/track"
)

const lrcExt = ".lrc"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Local serves .lrc files from a directory. Files are matched by name,
// either "Artist - Title.lrc" or "Title.lrc", case and spacing ignored.
type Local struct {
	dir    string
	logger *log.Logger

	mu    sync.RWMutex
	index map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewLocal(dir string, logger *log.Logger) (*Local, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("lyrics directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lyrics directory %s is not a directory", dir)
	}

	l := &Local{
		dir:    dir,
		logger: logging.OrDiscard(logger),
		index:  make(map[string]string),
	}
	if err := l.Reindex(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Local) Name() string { return "local" }

// Len reports how many index keys are known.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.index)
}

func indexKey(s string) string {
	return strings.ToLower(normalizeString(s))
}

// Reindex rescans the directory from scratch.
func (l *Local) Reindex() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read lyrics directory: %w", err)
	}

	index := make(map[string]string)
	titleOnly := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), lrcExt) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		index[indexKey(stem)] = path

		if _, title, ok := strings.Cut(stem, " - "); ok {
			key := indexKey(title)
			if _, exists := titleOnly[key]; !exists {
				titleOnly[key] = path
			}
		}
	}
	for key, path := range titleOnly {
		if _, exists := index[key]; !exists {
			index[key] = path
		}
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()

	logging.Debugf(l.logger, "indexed %d local lyric keys in %s", len(index), l.dir)
	return nil
}

func (l *Local) find(info track.Info) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	candidates := []string{
		info.Artist + " - " + info.Title,
		stripVersionInfo(info.Artist) + " - " + stripVersionInfo(info.Title),
		info.Title,
		stripVersionInfo(info.Title),
	}
	for _, candidate := range candidates {
		if path, ok := l.index[indexKey(candidate)]; ok {
			return path, true
		}
	}
	return "", false
}

func (l *Local) Lookup(ctx context.Context, info track.Info) (*Result, error) {
	if err := validTrack(info); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := l.find(info)
	if !ok {
		return nil, fmt.Errorf("local: %s - %s: %w", info.Artist, info.Title, ErrNotFound)
	}

	content, err := readTextFile(path)
	if err != nil {
		return nil, err
	}

	return &Result{
		Provider:   l.Name(),
		TrackID:    path,
		TrackName:  info.Title,
		ArtistName: info.Artist,
		Synced:     content,
	}, nil
}

// Watch re-indexes the directory whenever an .lrc file appears, changes or
// goes away, until ctx is done or Close is called.
func (l *Local) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	l.mu.Lock()
	l.watcher = watcher
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				watcher.Close()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), lrcExt) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logging.Debugf(l.logger, "lyrics directory event: %s on %s", event.Op, event.Name)
				if err := l.Reindex(); err != nil {
					l.logger.Printf("warning: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Printf("warning: lyrics directory watcher: %v", err)
			}
		}
	}()

	return nil
}

// Close stops the watcher started by Watch.
func (l *Local) Close() error {
	l.mu.Lock()
	watcher, done := l.watcher, l.done
	l.watcher = nil
	l.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

// readTextFile returns the file as UTF-8. A BOM is stripped and anything
// that is not valid UTF-8 is decoded as GBK.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if bytes.HasPrefix(data, utf8BOM) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s as GBK: %w", filepath.Base(path), err)
	}
	return string(decoded), nil
}
