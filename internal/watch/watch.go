// Package watch notifies when feed files in the data directory change, so
// the dataset can be reloaded without restarting the server.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// defaultSettleDuration is the quiet period after the last write before an
// update is emitted. Feed files arrive by copy or download, which surfaces
// as a burst of write events; one update per burst is wanted.
const defaultSettleDuration = 2 * time.Second

// DirWatcher watches one directory for changes to files with the given
// suffixes and coalesces bursts of events into single updates.
type DirWatcher struct {
	dir      string
	suffixes []string
	watcher  *fsnotify.Watcher
	updates  chan struct{}
	settle   time.Duration
}

// NewDirWatcher registers a watcher on dir for files ending in one of the
// suffixes. Suffixes without a leading dot have one prepended.
func NewDirWatcher(dir string, suffixes []string) (*DirWatcher, error) {
	if len(suffixes) < 1 {
		return nil, fmt.Errorf("at least one file suffix needed")
	}

	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dir %q not found: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	dw := &DirWatcher{
		dir:     dir,
		updates: make(chan struct{}),
		settle:  defaultSettleDuration,
	}
	for _, suffix := range suffixes {
		if len(suffix) > 0 && suffix[0] != '.' {
			suffix = "." + suffix
		}
		dw.suffixes = append(dw.suffixes, strings.ToLower(suffix))
	}

	dw.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := dw.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("fsnotify add error for dir %q: %w", dir, err)
	}
	return dw, nil
}

// Watch blocks, forwarding coalesced change notifications to Updates until
// the context is cancelled. Run it in a goroutine.
func (dw *DirWatcher) Watch(ctx context.Context) error {

	// eventChan buffers raw per-file events for coalescing.
	eventChan := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)

	// Receive fsnotify events and filter to relevant files.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-dw.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-dw.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				// Feed files are replaced by copy or rename as well as
				// written in place.
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) {
					continue
				}
				if dw.relevant(filepath.Base(e.Name)) {
					select {
					case eventChan <- struct{}{}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
	})

	// Coalesce bursts: emit one update once no event has arrived for the
	// settle duration.
	g.Go(func() error {
		pending := false
		timer := time.NewTicker(dw.settle)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-eventChan:
				if !ok {
					return nil
				}
				pending = true
				timer.Reset(dw.settle)
			case <-timer.C:
				if pending {
					select {
					case dw.updates <- struct{}{}:
					case <-ctx.Done():
						return ctx.Err()
					}
					pending = false
				}
			}
		}
	})

	err := g.Wait()
	close(eventChan)
	close(dw.updates)
	_ = dw.watcher.Close()
	return err
}

// Updates returns the channel signalling that the directory contents
// changed and settled.
func (dw *DirWatcher) Updates() <-chan struct{} {
	return dw.updates
}

// relevant reports whether a basename is a watched feed file. Dot files and
// editor temp files are ignored.
func (dw *DirWatcher) relevant(basename string) bool {
	if len(basename) == 0 || basename[0] == '.' {
		return false
	}
	lower := strings.ToLower(basename)
	for _, suffix := range dw.suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
