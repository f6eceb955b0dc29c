package sink

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// dirWatch reports removals and renames of files in one directory.
// The directory is watched rather than the file so the watch survives the
// active file being replaced.
type dirWatch struct {
	watcher *fsnotify.Watcher
	onGone  func(path string)
	onError func(error)
	cancel  context.CancelFunc
	done    chan struct{}
}

// newDirWatch starts watching dir
func newDirWatch(dir string, onGone func(path string), onError func(error)) (*dirWatch, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmtErrorf("failed to create watcher: %w", err)
	}

	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmtErrorf("failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &dirWatch{
		watcher: fsWatcher,
		onGone:  onGone,
		onError: onError,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// stop ends the event loop without waiting for it
func (w *dirWatch) stop() {
	w.cancel()
}

// close stops the watch and waits for the event loop to exit.
// Must not be called from onGone.
func (w *dirWatch) close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *dirWatch) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.onGone(filepath.Clean(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(fmtErrorf("watch error: %w", err))
			}
		}
	}
}
