package dump

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// Event is a change to a dumped page.
type Event struct {
	Path      string
	Operation string
}

// Watcher reports changes to the page files of a dump directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	logger  util.LoggerInterface

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWatcher(dir string, logger util.LoggerInterface) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: watcher,
		events:  make(chan Event, 100),
		logger:  util.OrNop(logger),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != pageExt || event.Op == fsnotify.Chmod {
				continue
			}
			select {
			case w.events <- Event{Path: event.Name, Operation: event.Op.String()}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("dump watch error", util.F("error", err.Error()))
		}
	}
}

// Events is closed after Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and waits for event delivery to end, even when
// nobody is reading Events.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
