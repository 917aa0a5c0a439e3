package prefabs

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

type FileKind int

const (
	SceneFile FileKind = iota + 1
	ScriptFile
)

func (k FileKind) String() string {
	switch k {
	case SceneFile:
		return "scene"
	case ScriptFile:
		return "script"
	}
	return "unknown"
}

// Change is one scene or script file that was written, created or
// renamed.
type Change struct {
	Path string
	Kind FileKind
}

// Watcher reports changed scene and script files. Changes arrive in
// batches once the directory has been quiet for a moment, so an editor
// saving several files triggers one reload.
type Watcher struct {
	fs      *fsnotify.Watcher
	quiet   time.Duration
	Changes chan []Change
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs, which must exist. Subdirectories are not
// followed.
func NewWatcher(dirs ...string) (*Watcher, error) {
	return newWatcher(debounce, dirs...)
}

func newWatcher(quiet time.Duration, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:      fw,
		quiet:   quiet,
		Changes: make(chan []Change, 4),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Changes and Errors are closed once the
// background loop has exited; a batch still waiting for quiet is dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Changes)
		close(w.Errors)
		close(w.done)
	}()

	pending := make(map[string]FileKind)
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kind, ok := fileKind(event.Name)
			if !ok {
				continue
			}
			pending[event.Name] = kind
			timer.Reset(w.quiet)
			fire = timer.C
		case <-fire:
			fire = nil
			batch := drainChanges(pending)
			select {
			case w.Changes <- batch:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// drainChanges empties pending into a batch sorted by path.
func drainChanges(pending map[string]FileKind) []Change {
	batch := make([]Change, 0, len(pending))
	for path, kind := range pending {
		batch = append(batch, Change{Path: path, Kind: kind})
	}
	clear(pending)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}

func fileKind(path string) (FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SceneFile, true
	case ".tengo":
		return ScriptFile, true
	}
	return 0, false
}
