// Package watch reports changes to tag files on disk.
package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Watch is given a non-positive debounce
const DefaultDebounce = 250 * time.Millisecond

// ErrNothingToWatch is returned when none of the paths has an existing parent directory
var ErrNothingToWatch = errors.New("no watchable directories")

// Watch calls onChange with the tag files that were created, written, removed
// or renamed, once events have been quiet for the debounce interval. Paths
// are reported as given. Parent directories are watched rather than the files,
// so a tag file that is replaced or appears later is still noticed.
//
// Watcher errors are logged and watching continues. After an event queue
// overflow every path is reported, since changes may have been lost. Watch
// returns nil when ctx is done.
func Watch(ctx context.Context, paths []string, debounce time.Duration, onChange func(changed []string), logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		abs = filepath.Clean(abs)
		targets[abs] = p

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}
	if len(dirs) == 0 {
		return ErrNothingToWatch
	}

	return run(ctx, watcher.Events, watcher.Errors, targets, debounce, onChange, logger)
}

// run is the event loop of Watch. targets maps cleaned absolute paths to the
// paths reported to onChange.
func run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, targets map[string]string,
	debounce time.Duration, onChange func([]string), logger *log.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	pending := false
	pendingPaths := map[string]bool{}

	resetDebounce := func(path string) {
		pendingPaths[path] = true
		if pending {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(debounce)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			original, tracked := targets[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			resetDebounce(original)
		case <-timer.C:
			if pending {
				pending = false
				changed := make([]string, 0, len(pendingPaths))
				for path := range pendingPaths {
					changed = append(changed, path)
				}
				sort.Strings(changed)
				pendingPaths = map[string]bool{}
				onChange(changed)
			}
		case watchErr, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Printf("Tag file watcher error: %v", watchErr)
			if errors.Is(watchErr, fsnotify.ErrEventOverflow) {
				for _, original := range targets {
					resetDebounce(original)
				}
			}
		}
	}
}
