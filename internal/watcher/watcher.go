// Package watcher provides file system watching with debouncing for live
// diff reload.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/paths"
	"github.com/zjrosen/diffnav/internal/pubsub"
)

// ChangeType classifies what triggered a reload.
type ChangeType string

const (
	ChangeFile    ChangeType = "file"
	ChangeStaging ChangeType = "staging"
	ChangeCommit  ChangeType = "commit"
)

// priority orders change types when one debounce window sees several.
func (c ChangeType) priority() int {
	switch c {
	case ChangeCommit:
		return 3
	case ChangeStaging:
		return 2
	case ChangeFile:
		return 1
	}
	return 0
}

// Notification is the payload delivered to listeners.
type Notification struct {
	Type       pubsub.EventType `json:"type"`
	DiffMode   git.Mode         `json:"diffMode"`
	ChangeType ChangeType       `json:"changeType,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Message    string           `json:"message,omitempty"`
}

// MergeNotifications keeps the more significant of two queued
// notifications of the same type. Ties keep the later one.
func MergeNotifications(prev, next pubsub.Event[Notification]) pubsub.Event[Notification] {
	if prev.Payload.ChangeType.priority() > next.Payload.ChangeType.priority() {
		return prev
	}
	return next
}

// Listener is one registered subscriber.
type Listener struct {
	ID     string
	Events <-chan pubsub.Event[Notification]
	cancel context.CancelFunc
}

// Config holds watcher configuration.
type Config struct {
	RepoRoot string
	// GitDir defaults to the resolved metadata directory of RepoRoot.
	GitDir       string
	Mode         git.Mode
	Debounce     time.Duration
	IgnoreGlobs  []string
	UseGitignore bool
	// OnInvalidate runs before every reload broadcast.
	OnInvalidate func()
}

// DefaultConfig returns sensible defaults for watching root in mode.
func DefaultConfig(root string, mode git.Mode) Config {
	return Config{
		RepoRoot:     root,
		Mode:         mode,
		Debounce:     300 * time.Millisecond,
		IgnoreGlobs:  DefaultIgnoreGlobs,
		UseGitignore: true,
	}
}

// Watcher monitors repository files and broadcasts debounced reloads.
type Watcher struct {
	cfg      Config
	filter   *pathFilter
	broker   *pubsub.Broker[Notification]
	debounce time.Duration

	fsWatcher *fsnotify.Watcher
	events    <-chan fsnotify.Event
	errs      <-chan error
	watched   []string

	done     chan struct{}
	loopDone chan struct{}

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	listeners map[string]*Listener
}

// New creates a watcher. Watching is disabled for fixed revision pairs,
// which can never change.
func New(cfg Config) (*Watcher, error) {
	if cfg.RepoRoot == "" {
		return nil, errors.New("watcher: repo root is required")
	}
	if cfg.GitDir == "" {
		cfg.GitDir = paths.ResolveGitDir(cfg.RepoRoot)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig(cfg.RepoRoot, cfg.Mode).Debounce
	}

	w := &Watcher{
		cfg:       cfg,
		filter:    newPathFilter(cfg, cfg.GitDir),
		broker:    pubsub.NewBroker[Notification](),
		debounce:  cfg.Debounce,
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
		listeners: make(map[string]*Listener),
	}

	if !w.Enabled() {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsWatcher = fsw
	w.events = fsw.Events
	w.errs = fsw.Errors
	return w, nil
}

// Enabled reports whether the mode can see changes at all.
func (w *Watcher) Enabled() bool {
	return w.cfg.Mode != git.ModeSpecific
}

// Broker returns the broker reload notifications are published on.
func (w *Watcher) Broker() *pubsub.Broker[Notification] {
	return w.broker
}

// Start subscribes to the mode's paths and begins the event loop. A path
// that cannot be watched is logged and skipped.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return errors.New("watcher: already stopped")
	default:
	}
	if w.started {
		return nil
	}

	if !w.Enabled() {
		log.Info(log.CatWatcher, "Live reload disabled for fixed revisions", "mode", string(w.cfg.Mode))
		return nil
	}

	for _, p := range w.initialPaths() {
		w.add(p)
	}
	if len(w.watched) == 0 {
		log.Warn(log.CatWatcher, "No paths could be watched, live reload disabled", "root", w.cfg.RepoRoot)
	}

	w.started = true
	go w.loop()
	log.Info(log.CatWatcher, "Watcher started", "mode", string(w.cfg.Mode), "paths", len(w.watched))
	return nil
}

// initialPaths lists the directories to subscribe to for the mode.
func (w *Watcher) initialPaths() []string {
	gitDir := w.cfg.GitDir
	dirs := []string{gitDir}
	if ref := w.filter.branchRef; ref != "" {
		dirs = append(dirs, filepath.Dir(filepath.Join(gitDir, ref)))
	}

	if !w.filter.watchesWorktree() {
		return dirs
	}

	err := filepath.WalkDir(w.cfg.RepoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug(log.CatWatcher, "Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == gitDir || w.filter.Ignored(path, true) {
			return filepath.SkipDir
		}
		if filepath.Base(path) == ".git" && path != w.cfg.RepoRoot {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		log.Warn(log.CatWatcher, "Failed to walk working directory", "root", w.cfg.RepoRoot, "error", err)
	}
	return dirs
}

func (w *Watcher) add(path string) {
	if err := w.fsWatcher.Add(path); err != nil {
		log.Warn(log.CatWatcher, "Failed to watch path", "path", path, "error", err)
		return
	}
	w.watched = append(w.watched, path)
}

// Stop shuts the watcher down. It is safe to call more than once and
// before Start.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()

		close(w.done)
		if started {
			<-w.loopDone
		}

		if w.fsWatcher != nil {
			for _, p := range w.watched {
				if rmErr := w.fsWatcher.Remove(p); rmErr != nil {
					log.Debug(log.CatWatcher, "Failed to unwatch path", "path", p, "error", rmErr)
				}
			}
			err = w.fsWatcher.Close()
		}

		w.mu.Lock()
		for id, l := range w.listeners {
			l.cancel()
			delete(w.listeners, id)
		}
		w.mu.Unlock()
		w.broker.Close()
		log.Info(log.CatWatcher, "Watcher stopped")
	})
	return err
}

// Register adds a listener. Its first event is a connected greeting.
func (w *Watcher) Register() *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	greeting := Notification{
		Type:      pubsub.ConnectedEvent,
		DiffMode:  w.cfg.Mode,
		Timestamp: time.Now(),
		Message:   "watching for changes",
	}
	if !w.Enabled() {
		greeting.Message = "live reload disabled"
	}

	l := &Listener{
		ID:     uuid.NewString(),
		Events: w.broker.Subscribe(ctx, pubsub.WithInitial(pubsub.ConnectedEvent, greeting)),
		cancel: cancel,
	}

	w.mu.Lock()
	w.listeners[l.ID] = l
	w.mu.Unlock()
	log.Debug(log.CatWatcher, "Listener registered", "id", l.ID)
	return l
}

// Unregister removes a listener and closes its channel.
func (w *Watcher) Unregister(l *Listener) {
	if l == nil {
		return
	}
	w.mu.Lock()
	_, ok := w.listeners[l.ID]
	delete(w.listeners, l.ID)
	w.mu.Unlock()
	if ok {
		w.broker.Unsubscribe(l.Events)
		l.cancel()
		log.Debug(log.CatWatcher, "Listener unregistered", "id", l.ID)
	}
}

// ListenerCount returns the number of registered listeners.
func (w *Watcher) ListenerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

func (w *Watcher) loop() {
	defer close(w.loopDone)

	var timer *time.Timer
	var pending ChangeType

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.events:
			if !ok {
				return
			}
			change, relevant := w.handle(event)
			if !relevant {
				continue
			}
			if change.priority() > pending.priority() {
				pending = change
			}

			// Reset debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.fire(pending)
			pending = ""
			timer = nil

		case err, ok := <-w.errs:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "File watcher error", err)
		}
	}
}

// handle classifies an event and keeps the watch set and ignore rules
// current.
func (w *Watcher) handle(event fsnotify.Event) (ChangeType, bool) {
	change, relevant := w.filter.classify(event)
	if !relevant {
		return "", false
	}

	switch {
	case change == ChangeCommit && filepath.Base(event.Name) == headFile:
		w.filter.refreshBranchRef()
	case change == ChangeFile && filepath.Base(event.Name) == gitignoreFile && w.cfg.UseGitignore:
		w.filter.reloadGitignore()
	case change == ChangeFile && event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(event.Name)
		}
	}

	log.Debug(log.CatWatcher, "Relevant change", "path", event.Name, "op", event.Op.String(), "type", string(change))
	return change, true
}

// fire invalidates cached results, then tells every listener to reload.
func (w *Watcher) fire(change ChangeType) {
	if w.cfg.OnInvalidate != nil {
		w.cfg.OnInvalidate()
	}
	w.broker.Publish(pubsub.ReloadEvent, Notification{
		Type:       pubsub.ReloadEvent,
		DiffMode:   w.cfg.Mode,
		ChangeType: change,
		Timestamp:  time.Now(),
		Message:    "changes detected",
	})
	log.Debug(log.CatWatcher, "Reload broadcast", "type", string(change), "listeners", w.broker.SubscriberCount())
}
