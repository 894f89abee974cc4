package watcher

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// FileWatcher reports changes to event logs inside one data directory.
// Bursts of writes within the debounce interval collapse into one event.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	match    func(path string) bool
	debounce time.Duration
	events   chan model.FileEvent
	done     chan struct{}
}

// NewFileWatcher watches dir for changes to files accepted by match.
// The directory, not the file, is watched so that logs rewritten via
// rename keep being observed.
func NewFileWatcher(dir string, match func(path string) bool, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		match:    match,
		debounce: debounce,
		events:   make(chan model.FileEvent, 100),
		done:     make(chan struct{}),
	}
	go fw.processEvents()
	return fw, nil
}

// MatchFile accepts only the file at path.
func MatchFile(path string) func(string) bool {
	want := filepath.Clean(path)
	return func(p string) bool {
		return filepath.Clean(p) == want
	}
}

// MatchExt accepts files with extension ext, e.g. ".jsonl".
func MatchExt(ext string) func(string) bool {
	return func(p string) bool {
		return filepath.Ext(p) == ext
	}
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	var pending *model.FileEvent
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || !fw.match(event.Name) {
				continue
			}
			pending = &model.FileEvent{Path: event.Name, Operation: event.Op.String()}
			if fw.debounce <= 0 {
				fw.emit(*pending)
				pending = nil
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if pending != nil {
				fw.emit(*pending)
				pending = nil
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) emit(e model.FileEvent) {
	select {
	case fw.events <- e:
	default:
		util.LogDebugf("Dropping file event for %s, consumer is behind", e.Path)
	}
}

func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
