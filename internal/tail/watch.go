// Package tail follows a growing log file, turning filesystem change
// notifications into batches of newly completed display lines.
package tail

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Notice is the watcher's latest knowledge of the file: its current
// length, or Gone when it was removed or became unreachable.
type Notice struct {
	Size int64
	Gone bool
}

// Watcher owns the OS watch handle on its own goroutine and does one
// thing only: publish the latest file length (or "gone") into a
// single-slot channel read by exactly one consumer.
//
// Rapid successive writes coalesce to the most recent length, so a
// slow reader never queues up stale notices; it only sees a bigger
// jump. A watch failure is logged and the channel simply goes quiet.
type Watcher struct {
	path string
	fw   *fsnotify.Watcher
	ch   chan Notice
	log  *zap.Logger
}

// Watch starts watching path and immediately publishes its current
// size, so content already present streams without waiting for the
// next write.
func Watch(path string, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{path: path, fw: fw, ch: make(chan Notice, 1), log: log}

	info, err := os.Stat(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	w.publish(Notice{Size: info.Size()})

	go w.run()
	return w, nil
}

// Notices returns the single-slot notice channel.
func (w *Watcher) Notices() <-chan Notice {
	return w.ch
}

// Close releases the underlying watch handle. The run loop exits and
// no further notices are published.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.publish(Notice{Gone: true})
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(w.path)
			if err != nil {
				w.publish(Notice{Gone: true})
				return
			}
			w.publish(Notice{Size: info.Size()})
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Soft failure: the tail stalls rather than crashing the
			// session.
			w.log.Warn("file watch error, tail stalled",
				zap.String("path", w.path), zap.Error(err))
			return
		}
	}
}

// publish overwrites the slot with the latest notice.
func (w *Watcher) publish(n Notice) {
	for {
		select {
		case w.ch <- n:
			return
		default:
			select {
			case <-w.ch:
			default:
			}
		}
	}
}
