package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vidgfx/engine/assets/loaders"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

const logCategory = "Assets"

// ErrAssetNotFound is returned when no indexed asset has the requested name.
var ErrAssetNotFound = errors.New("asset not found")

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

/**
 * @brief Indexes the shader bytecode and images under a directory tree. The
 * library implements metadata.ShaderLoader so it can be handed directly to
 * Context.Initialize and Context.ReloadShaders.
 *
 * The index is safe for concurrent use. Watch runs its own goroutine that only
 * touches the index; the owner decides when to reload.
 */
type Library struct {
	root string
	log  core.LogSink

	assets map[string]AssetInfo
	mutex  sync.RWMutex

	shaders loaders.ShaderLoader
	images  loaders.ImageLoader

	watcher  *fsnotify.Watcher
	changes  chan string
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

/** @brief Creates a library and indexes everything under root. */
func NewLibrary(root string, log core.LogSink) (*Library, error) {
	if log == nil {
		log = core.NopLogger
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrValidation, root)
	}

	l := &Library{
		root:   root,
		log:    log,
		assets: make(map[string]AssetInfo),
	}
	if err := l.walk(root, nil); err != nil {
		return nil, err
	}
	core.LogNotice(log, logCategory, "Indexed %d assets under %s", len(l.assets), root)
	return l, nil
}

func (l *Library) Root() string {
	return l.root
}

/** @brief Reads the bytecode of the shader permutation with the given name. */
func (l *Library) Load(name string) ([]byte, error) {
	path, err := l.lookup(name, AssetTypeShader)
	if err != nil {
		return nil, err
	}
	return l.shaders.Load(path)
}

/** @brief Decodes the image with the given file name. */
func (l *Library) LoadImage(name string, params metadata.ImageResourceParams) (*image.NRGBA, error) {
	path, err := l.lookup(name, AssetTypeImage)
	if err != nil {
		return nil, err
	}
	return l.images.Load(path, params)
}

func (l *Library) lookup(name string, assetType AssetType) (string, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	asset, exists := l.assets[name]
	if !exists || asset.Type != assetType {
		return "", fmt.Errorf("%w: %s %q", ErrAssetNotFound, assetType, name)
	}
	asset.LastLoaded = time.Now()
	l.assets[name] = asset
	return asset.Path, nil
}

/** @brief Returns the indexed names of the given type in lexical order. */
func (l *Library) Names(assetType AssetType) []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	names := make([]string, 0, len(l.assets))
	for name, info := range l.assets {
		if info.Type == assetType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (l *Library) Info(name string) (AssetInfo, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	info, ok := l.assets[name]
	return info, ok
}

/**
 * @brief Starts watching the tree. The returned channel receives the name of
 * every asset that is created, modified or removed, and is closed by Close.
 */
func (l *Library) Watch() (<-chan string, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.isClosed {
		return nil, errors.New("asset library already closed")
	}
	if l.watcher != nil {
		return l.changes, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	l.watcher = watcher
	l.changes = make(chan string, 64)
	l.done = make(chan struct{})

	if err := l.walk(l.root, watcher); err != nil {
		watcher.Close()
		l.watcher = nil
		return nil, err
	}

	l.wg.Add(1)
	go l.start()
	return l.changes, nil
}

/** @brief Stops the watcher, if any. Safe to call more than once. */
func (l *Library) Close() error {
	l.mutex.Lock()
	if l.isClosed {
		l.mutex.Unlock()
		return nil
	}
	l.isClosed = true
	watcher := l.watcher
	l.mutex.Unlock()

	if watcher == nil {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	err := watcher.Close()
	close(l.changes)
	return err
}

func (l *Library) start() {
	defer l.wg.Done()
	for {
		select {
		case e, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Create) {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					l.mutex.Lock()
					err := l.walk(e.Name, l.watcher)
					l.mutex.Unlock()
					if err != nil {
						core.LogWarning(l.log, logCategory, "Failed to watch %s: %s", e.Name, err)
					}
					continue
				}
			}

			var name string
			switch {
			case e.Has(fsnotify.Create), e.Has(fsnotify.Write):
				name = l.handleFileEvent(e.Name)
			case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
				// a removed directory cannot be stat'ed, so its watch is
				// dropped by fsnotify itself
				name = l.removeAsset(e.Name)
			}
			if name == "" {
				continue
			}
			select {
			case l.changes <- name:
			case <-l.done:
				return
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarning(l.log, logCategory, "Asset watcher error: %s", err)

		case <-l.done:
			return
		}
	}
}

// walk indexes every asset below path and, when watcher is set, adds each
// directory to it. The caller holds the lock when the library is shared.
func (l *Library) walk(path string, watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if watcher != nil {
				return watcher.Add(walkPath)
			}
			return nil
		}
		l.index(walkPath)
		return nil
	})
}

func (l *Library) index(path string) string {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return ""
	}
	name := assetName(path, assetType)
	if prev, exists := l.assets[name]; exists && prev.Path != path {
		core.LogWarning(l.log, logCategory, "Asset %s at %s shadows %s", name, path, prev.Path)
	}
	l.assets[name] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return name
}

// Handle the creation or modification of a file
func (l *Library) handleFileEvent(path string) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.index(path)
}

// Remove the asset from the index if it was deleted
func (l *Library) removeAsset(path string) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return ""
	}
	name := assetName(path, assetType)
	if info, exists := l.assets[name]; !exists || info.Path != path {
		return ""
	}
	delete(l.assets, name)
	return name
}
