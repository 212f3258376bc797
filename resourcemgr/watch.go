package resourcemgr

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/automation/worker"
	"github.com/fsnotify/fsnotify"
	"github.com/kestrel-render/kestrel/resource"
)

// WatchDirectory watches dir for resource files dropped by an external
// producer and registers their contents without polling, per SPEC_FULL.md
// §4.F. Decoding runs on the worker pool; the returned watcher's Close
// method stops the watch.
func (m *Manager) WatchDirectory(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("resourcemgr: watch %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resourcemgr: watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				path := ev.Name
				m.pool.SubmitTask(worker.Task{
					Fn: func() {
						m.loadResourceFile(path)
					},
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher, nil
}

func (m *Manager) loadResourceFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	resources, err := resource.ReadFile(data)
	if err != nil {
		return
	}
	for _, res := range resources {
		m.Register(res)
	}
}
