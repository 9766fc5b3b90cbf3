// Package scheduler drives a periodic publish-and-prune pass on a timer
// whose frequency tracks a stats.Registry's current Options, rearming
// itself after every tick and whenever Reinit changes the frequency. A
// frequency change tears the cron job down with cron.Remove and re-adds it
// rather than mutating a running schedule in place.
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cloudbox/logstats/stats"
)

// PeriodicScheduler runs a publish-and-prune pass at stats.Options'
// effective frequency, skipping a tick if the previous one is still
// running (via cron.SkipIfStillRunning) and never firing once the
// registry has been closed.
type PeriodicScheduler struct {
	registry *stats.Registry
	run      func()
	log      zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	armed   bool
}

// New builds a scheduler over registry that invokes run on every tick.
// Start must be called to actually begin firing.
func New(registry *stats.Registry, run func(), log zerolog.Logger) *PeriodicScheduler {
	return &PeriodicScheduler{
		registry: registry,
		run:      run,
		log:      log,
		cron:     cron.New(),
	}
}

// Start arms the schedule at the registry's current effective frequency
// and starts the underlying cron.Cron.
func (s *PeriodicScheduler) Start() {
	s.mu.Lock()
	s.rearmLocked()
	s.mu.Unlock()

	s.cron.Start()
}

// Reinit tears down and re-adds the job at the (possibly changed)
// effective frequency, so a configuration reload takes effect immediately
// rather than waiting for the current interval to elapse.
func (s *PeriodicScheduler) Reinit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rearmLocked()
}

// Stop removes the scheduled job and blocks until any in-flight tick
// completes.
func (s *PeriodicScheduler) Stop() {
	s.mu.Lock()
	if s.armed {
		s.cron.Remove(s.entryID)
		s.armed = false
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

func (s *PeriodicScheduler) rearmLocked() {
	if s.armed {
		s.cron.Remove(s.entryID)
		s.armed = false
	}

	freq := s.registry.Options().EffectiveFreq()
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(s.tick))
	s.entryID = s.cron.Schedule(cron.Every(freq), job)
	s.armed = true

	s.log.Debug().Dur("freq", freq).Msg("Publish Pass Rearmed")
}

// tick runs one pass and then rearms at the (possibly just-changed)
// effective frequency. Rearming on every tick, rather than trusting
// cron.Every's fixed interval for the lifetime of the job, is what lets a
// Reinit that arrives between ticks take effect on the very next one.
func (s *PeriodicScheduler) tick() {
	if s.registry.Closed() {
		return
	}

	s.run()

	s.mu.Lock()
	s.rearmLocked()
	s.mu.Unlock()
}
