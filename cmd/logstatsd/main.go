package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cloudbox/logstats/internal/audit"
	"github.com/cloudbox/logstats/publish"
	"github.com/cloudbox/logstats/scheduler"
	"github.com/cloudbox/logstats/stats"
)

const (
	logMaxSizeMB  = 5
	logMaxAgeDays = 14
	logMaxBackups = 5

	defaultPort   = 3090
	serverTimeout = 30 * time.Second
)

// ready is set to true once every subsystem has started, and is what the
// health endpoint uses to distinguish "starting up" from "running".
var ready atomic.Bool

var (
	// release variables, set by the linker at build time.
	Version   string
	Timestamp string
	GitCommit string

	cli struct {
		globals

		Config    string `type:"path" default:"${config_file}" env:"LOGSTATS_CONFIG" help:"Config file path"`
		Database  string `type:"path" default:"${database_file}" env:"LOGSTATS_DATABASE" help:"Audit database file path"`
		Log       string `type:"path" default:"${log_file}" env:"LOGSTATS_LOG" help:"Log file path"`
		Verbosity int    `type:"counter" default:"0" short:"v" env:"LOGSTATS_VERBOSITY" help:"Log level verbosity"`
		LogLevel  string `default:"" env:"LOGSTATS_LOG_LEVEL" help:"Log level (trace,debug,info,warn,error,fatal)"`
	}
)

type globals struct {
	Version versionFlag `name:"version" help:"Print version information and quit"`
}

type versionFlag string

func (versionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (versionFlag) IsBool() bool                       { return true }
func (versionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error { //nolint:unparam // satisfies kong.Hook interface
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("logstatsd"),
		kong.Description("Process-wide statistics registry daemon"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Summary: true,
			Compact: true,
		}),
		kong.Vars{
			"version":       fmt.Sprintf("%s (%s@%s)", Version, GitCommit, Timestamp),
			"config_file":   filepath.Join(defaultConfigDirectory(), "config.yml"),
			"log_file":      filepath.Join(defaultConfigDirectory(), "activity.log"),
			"database_file": filepath.Join(defaultConfigDirectory(), "logstats.db"),
		},
	)

	if err := ctx.Validate(); err != nil {
		fmt.Println("Failed parsing cli:", err)
		os.Exit(1)
	}

	setupLogger()

	cfg := loadConfig(cli.Config)

	registry := stats.New(cfg.Stats)

	auditCtx := context.Background()
	store, err := audit.Open(auditCtx, cli.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Audit Store Init Failed")
	}

	sink := publish.NewZerologSink(log.Logger)
	pub := publish.New(registry, sink, publish.WithAuditRecorder(store))

	sched := scheduler.New(registry, func() {
		if err := pub.PublishAndPrune(); err != nil {
			log.Error().Err(err).Msg("Scheduled Publish Failed")
		}
	}, log.Logger)
	sched.Start()

	watcher, err := newConfigWatcher(cli.Config, registry, sched, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("Config Watcher Init Failed")
	} else {
		go watcher.run()
	}

	router := getRouter(registry, pub)
	startHTTPServers(cfg, router)

	log.Info().
		Str("version", fmt.Sprintf("%s (%s@%s)", Version, GitCommit, Timestamp)).
		Msg("Logstats Initialised")

	notifyReady(registry, sched, store)

	go watchdogLoop(registry, pub, cfg.WatchdogInterval)

	select {}
}

// startHTTPServers starts one goroutine per host address that serves the
// router. Calls log.Fatal if any server fails to start.
func startHTTPServers(cfg config, router http.Handler) {
	for _, hostAddr := range cfg.Host {
		go func(host string) {
			addr := host
			if !strings.Contains(addr, ":") {
				addr = fmt.Sprintf("%s:%d", host, cfg.Port)
			}

			log.Info().Str("addr", addr).Msg("Server Starting")
			server := &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  serverTimeout,
				WriteTimeout: serverTimeout,
			}
			if listenErr := server.ListenAndServe(); listenErr != nil {
				log.Fatal().Str("addr", addr).Err(listenErr).Msg("Server Start Failed")
			}
		}(hostAddr)
	}
}

// notifyReady marks the process as ready (sd_notify + ready flag) and
// installs a signal handler that stops the scheduler first and then tears
// the registry and audit store down in parallel before exiting — the two
// are independent of each other once the scheduler has stopped feeding the
// registry, so there's no reason to serialize their teardown.
func notifyReady(registry *stats.Registry, sched *scheduler.PeriodicScheduler, store *audit.Store) {
	ready.Store(true)

	sdOK, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn().Err(err).Msg("sd_notify Failed")
	} else if sdOK {
		log.Info().Msg("sd_notify Ready Sent")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutdown Signal")

		sched.Stop()

		var eg errgroup.Group
		eg.Go(registry.Close)
		eg.Go(store.Close)
		if err := eg.Wait(); err != nil {
			log.Error().Err(err).Msg("Shutdown Failed")
		}

		os.Exit(0) //nolint:revive // signal handler must exit the process
	}()
}

// watchdogLoop sends a periodic sd_notify STATUS string carrying the
// current cluster count and the most recent pass's pruned count. It does
// not send WATCHDOG=1 keep-alive pings.
func watchdogLoop(registry *stats.Registry, pub *publish.Publisher, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		registry.Lock()
		count := registry.Len()
		registry.Unlock()

		dropped := pub.LastDropped()
		status := fmt.Sprintf("STATUS=clusters:%d dropped-last-pass:%d", count, dropped)
		_, _ = daemon.SdNotify(false, status)

		log.Debug().Int("clusters", count).Int64("dropped_last_pass", dropped).Msg("Watchdog")
	}
}

// setupLogger configures the global zerolog logger from the CLI flags.
func setupLogger() {
	logger := log.Output(io.MultiWriter(zerolog.ConsoleWriter{
		TimeFormat: time.Stamp,
		Out:        os.Stderr,
	}, &lumberjack.Logger{
		Filename:   cli.Log,
		MaxSize:    logMaxSizeMB,
		MaxAge:     logMaxAgeDays,
		MaxBackups: logMaxBackups,
	}))

	if cli.LogLevel != "" {
		level, err := zerolog.ParseLevel(cli.LogLevel)
		if err != nil {
			log.Logger = logger.Level(zerolog.InfoLevel)
			log.Fatal().Str("level", cli.LogLevel).Msg("Invalid Log Level")
		}

		log.Logger = logger.Level(level)
		return
	}

	switch {
	case cli.Verbosity == 1:
		log.Logger = logger.Level(zerolog.DebugLevel)
	case cli.Verbosity > 1:
		log.Logger = logger.Level(zerolog.TraceLevel)
	default:
		log.Logger = logger.Level(zerolog.InfoLevel)
	}
}

func defaultConfigDirectory() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "logstatsd")
}
