package main

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/cloudbox/logstats/stats"
)

type config struct {
	Host []string `yaml:"host"`
	Port int      `yaml:"port"`

	// Stats carries the registry's level/log-freq/lifetime, reloaded on a
	// config-file write (see reload.go).
	Stats stats.Options `yaml:"stats"`

	WatchdogInterval time.Duration `yaml:"watchdog-interval"`
}

// loadConfig reads and decodes the YAML config file at path, applying
// defaults first.
func loadConfig(path string) config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Config Open Failed")
	}
	defer file.Close()

	cfg := config{
		Host:             []string{""},
		Port:             defaultPort,
		Stats:            stats.DefaultOptions(),
		WatchdogInterval: 30 * time.Second,
	}

	decoder := yaml.NewDecoder(file)
	decoder.SetStrict(true)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatal().Err(err).Msg("Config Decode Failed")
	}

	return cfg
}
