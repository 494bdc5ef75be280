package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType is the kind of change seen on a template file.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

type ChangeEvent struct {
	Type EventType
	Path string
}

// FileFilter reports whether a path is of interest.
type FileFilter func(path string) bool

// ChangeHandler receives one debounced batch, at most one event per path.
type ChangeHandler func(events []ChangeEvent) error

// TemplateWatcher watches a views tree and hands batches of template changes
// to its handlers once the tree has been quiet for the debounce delay.
type TemplateWatcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	mu        sync.RWMutex
}

func New(delay time.Duration) (*TemplateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &TemplateWatcher{
		fs:        w,
		debouncer: NewDebouncer(delay),
	}, nil
}

func (tw *TemplateWatcher) AddFilter(filter FileFilter) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.filters = append(tw.filters, filter)
}

func (tw *TemplateWatcher) AddHandler(handler ChangeHandler) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.handlers = append(tw.handlers, handler)
}

// AddRecursive watches root and every directory below it.
func (tw *TemplateWatcher) AddRecursive(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return tw.fs.Add(path)
	})
}

// Run blocks until ctx is cancelled.
func (tw *TemplateWatcher) Run(ctx context.Context) error {
	go tw.debouncer.Run(ctx)
	go tw.dispatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return tw.Close()
		case event, ok := <-tw.fs.Events:
			if !ok {
				return nil
			}
			tw.handle(event)
		case err, ok := <-tw.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("Template watcher error", "error", err)
		}
	}
}

func (tw *TemplateWatcher) Close() error {
	tw.debouncer.Stop()
	return tw.fs.Close()
}

func (tw *TemplateWatcher) handle(event fsnotify.Event) {
	// New directories are picked up so templates created inside them are seen.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if isDir(event.Name) {
			if err := tw.AddRecursive(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	tw.mu.RLock()
	filters := tw.filters
	tw.mu.RUnlock()
	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	tw.debouncer.Add(ChangeEvent{Type: eventType(event.Op), Path: event.Name})
}

func (tw *TemplateWatcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-tw.debouncer.Output():
			tw.mu.RLock()
			handlers := tw.handlers
			tw.mu.RUnlock()
			for _, handler := range handlers {
				if err := handler(events); err != nil {
					slog.Error("Template change handler failed", "error", err)
				}
			}
		}
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventTypeCreated
	case op&fsnotify.Write == fsnotify.Write:
		return EventTypeModified
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventTypeDeleted
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ExtensionFilter keeps paths ending in ext (".blade.php").
func ExtensionFilter(ext string) FileFilter {
	return func(path string) bool {
		return strings.HasSuffix(path, ext)
	}
}

// NoHiddenFilter drops editor swap files and dotfiles.
func NoHiddenFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}

// Debouncer groups rapid events and emits them once the input goes quiet.
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mu      sync.Mutex
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, 100),
		output: make(chan []ChangeEvent, 10),
	}
}

func (d *Debouncer) Output() <-chan []ChangeEvent { return d.output }

// Add queues an event without blocking. Events are dropped when the queue is full.
func (d *Debouncer) Add(event ChangeEvent) {
	select {
	case d.events <- event:
	default:
	}
}

func (d *Debouncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Last event per path wins.
	latest := make(map[string]ChangeEvent, len(d.pending))
	for _, event := range d.pending {
		latest[event.Path] = event
	}
	events := make([]ChangeEvent, 0, len(latest))
	for _, event := range latest {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	select {
	case d.output <- events:
	default:
	}
	d.pending = d.pending[:0]
}
