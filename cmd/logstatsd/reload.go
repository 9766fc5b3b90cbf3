package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/cloudbox/logstats/scheduler"
	"github.com/cloudbox/logstats/stats"
)

// configWatcher watches a single config file for writes and, on each one,
// reloads it and pushes the new Options into the registry and scheduler.
type configWatcher struct {
	path      string
	registry  *stats.Registry
	scheduler *scheduler.PeriodicScheduler
	log       zerolog.Logger
	watcher   *fsnotify.Watcher
}

func newConfigWatcher(path string, registry *stats.Registry, sched *scheduler.PeriodicScheduler, log zerolog.Logger) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}

	return &configWatcher{
		path:      path,
		registry:  registry,
		scheduler: sched,
		log:       log,
		watcher:   watcher,
	}, nil
}

func (c *configWatcher) run() {
	defer func() { _ = c.watcher.Close() }()

	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}

			c.log.Trace().Interface("event", event).Msg("Config FS Event")

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				c.reinit()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				// Editors that replace-via-rename drop the original inode;
				// re-add the watch on the new file at the same path.
				if err := c.watcher.Add(c.path); err != nil {
					c.log.Error().Err(err).Msg("Config Rewatch Failed")
					continue
				}
				c.reinit()
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Error().Err(err).Msg("Config FS Events Failed")
		}
	}
}

func (c *configWatcher) reinit() {
	cfg := loadConfig(c.path)
	c.registry.Reinit(cfg.Stats)
	c.scheduler.Reinit()

	c.log.Info().
		Int("level", cfg.Stats.Level).
		Stringer("log_freq", cfg.Stats.LogFreq).
		Stringer("lifetime", cfg.Stats.Lifetime).
		Msg("Config Reloaded")
}
