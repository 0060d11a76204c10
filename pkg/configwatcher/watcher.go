package configwatcher

import (
	"path/filepath"
	"sync"
	"time"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg interface{})

// debounceInterval is how long writes must settle before a reload fires.
var debounceInterval = 1 * time.Second

// WatchConfig blocks watching the config file and calls reloader after each
// settled burst of writes. A watcher failure disables hot reload but never
// takes the server down.
func WatchConfig(configPath string, cfg interface{}, reloader ConfigReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("config watcher unavailable, hot reload disabled", zap.Error(err))
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("config watcher unavailable, hot reload disabled", zap.Error(err))
		return
	}
	if err := watcher.Add(absPath); err != nil {
		logger.Log.Error("config watcher unavailable, hot reload disabled", zap.Error(err))
		return
	}

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// Debounce bursts of write events. The channel may already
				// be drained, so never block on it.
				mu.Lock()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceInterval)
				mu.Unlock()
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(configPath))
			if err != nil {
				logger.Log.Error("failed to reload config", zap.Error(err))
				continue
			}
			reloader(newCfg)
			logger.Log.Info("config reloaded", zap.String("path", absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("config watcher error", zap.Error(err))
		}
	}
}
