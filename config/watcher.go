package config

import (
	"context"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

const (
	configFileName = "config.toml"
	namedLogger    = "cfgwatcher"
)

// Watcher is looking for updates in the configuration file.
type Watcher struct {
	log  *logging.Logger
	cfg  Config
	path string

	// to be used as an atomic
	hasChanged int32

	mu             sync.Mutex
	listeners      map[int]func(Config)
	nextListenerID int
}

// NewFromFile instantiates a new watcher from the configuration file.
func NewFromFile(ctx context.Context, log *logging.Logger, path string) (*Watcher, error) {
	watcherlog := log.Named(namedLogger)
	// set this logger to debug level as we want to be notified for any
	// configuration changes at any time
	watcherlog.SetLevel(logging.DebugLevel)
	w := &Watcher{
		log:       watcherlog,
		cfg:       NewDefaultConfig(),
		path:      path,
		listeners: map[int]func(Config){},
	}

	if err := w.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.path); err != nil {
		return nil, err
	}

	w.log.Info("config watcher started successfully",
		logging.String("config", w.path))

	go w.watch(ctx, watcher)

	return w, nil
}

// OnTimeUpdate flushes pending configuration changes to the listeners.
// Registered with the protocol clock so updates land between blocks,
// never in the middle of one.
func (w *Watcher) OnTimeUpdate(_ context.Context, _ time.Time) {
	if atomic.LoadInt32(&w.hasChanged) == 0 {
		// no changes we can return straight away
		return
	}
	// reset the atomic
	atomic.StoreInt32(&w.hasChanged, 0)

	cfg := w.Get()
	w.mu.Lock()
	ids := make([]int, 0, len(w.listeners))
	for id := range w.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Config), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.listeners[id])
	}
	w.mu.Unlock()

	for _, f := range fns {
		f(cfg)
	}
}

// Get returns the last loaded version of the configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	conf := w.cfg
	w.mu.Unlock()
	return conf
}

// OnConfigUpdate registers functions to be called when the
// configuration is updated.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.OnConfigUpdateWithID(fns...)
}

// OnConfigUpdateWithID registers functions to be called when the
// configuration is updated, returning their listener ids so they can be
// unregistered later.
func (w *Watcher) OnConfigUpdateWithID(fns ...func(Config)) []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]int, 0, len(fns))
	for _, f := range fns {
		w.nextListenerID++
		w.listeners[w.nextListenerID] = f
		ids = append(ids, w.nextListenerID)
	}
	return ids
}

// Unregister removes update listeners by id.
func (w *Watcher) Unregister(ids []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		delete(w.listeners, id)
	}
}

func (w *Watcher) load() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(buf), &w.cfg); err != nil {
		return err
	}
	return nil
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event := <-watcher.Events:
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Rename == fsnotify.Rename {
				if event.Op&fsnotify.Rename == fsnotify.Rename {
					// vi and friends do not send a write event, they create a
					// temporary file, delete the original, then rename the
					// temp file into place. If we reload as soon as we get
					// the event, the file is not always there yet.
					time.Sleep(50 * time.Millisecond)
				}
				w.log.Info("configuration updated", logging.String("event", event.Name))
				if err := w.load(); err != nil {
					w.log.Error("unable to load configuration", logging.Error(err))
					continue
				}
				// set hasChanged to 1 to trigger the config update on the
				// next time tick
				atomic.StoreInt32(&w.hasChanged, 1)
			}
		case err := <-watcher.Errors:
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			w.log.Info("config watcher stopped")
			return
		}
	}
}
