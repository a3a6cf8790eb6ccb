package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/providers/file"
)

// fsnotifyFileProvider backs ConfigTypeFile. It embeds koanf's file.Provider
// for Read/ReadBytes and adds an fsnotify-driven Watch, so a single local
// agentcore.yaml edited on disk (no consul/etcd/zookeeper available) still
// hot-reloads rather than silently never firing OnChange.
type fsnotifyFileProvider struct {
	*file.File
	path string
}

func newFsnotifyFileProvider(path string) *fsnotifyFileProvider {
	return &fsnotifyFileProvider{File: file.Provider(path), path: path}
}

// Watch satisfies the Watcher interface. It watches the config file's
// parent directory rather than the file itself, since editors commonly
// replace a file via rename-into-place, which would orphan a watch placed
// directly on the old inode.
func (p *fsnotifyFileProvider) Watch(cb func(event interface{}, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	target := filepath.Clean(p.path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					cb(event, nil)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				cb(nil, werr)
			}
		}
	}()

	return nil
}
