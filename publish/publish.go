// Package publish implements the Publisher/Pruner: the single locked walk
// of a stats.Registry that formats a snapshot event and removes dynamic
// clusters that have gone idle, in the same pass.
//
// This plays the role a scan-queue processor plays in a media-scan daemon —
// the thing that periodically drains state accumulated elsewhere and hands
// it to the outside world. Where processor.Processor drained a scan queue
// into media-server targets, Publisher drains the counter registry into an
// EventSink.
package publish

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/cloudbox/logstats/stats"
)

// Tag is one formatted counter value, ready to hand to an EventSink.
type Tag struct {
	Name  string
	Value string
}

// EventSink is the out-of-scope logging facility from the registry's point
// of view — the Publisher only ever talks to it
// through this interface. Two kinds of event record are ever emitted:
// LogStatistics, once per pass when publishing is enabled, and
// PruningFinished, once per pass when at least one cluster was pruned.
type EventSink interface {
	// LogStatistics is called with one tag per live counter across every
	// cluster in the registry. Called at most once per pass, and only
	// when Options.LogFreq > 0.
	LogStatistics(tags []Tag)

	// PruningFinished is called once per pass, only when droppedCount > 0.
	// oldestTimestamp is the stamp of the oldest cluster pruned in this
	// pass, or 0 if none carried a Stamp counter (which cannot happen —
	// pruning requires a Stamp bit — but is still defined as 0 for safety).
	PruningFinished(droppedCount int, oldestTimestamp int64)
}

// AuditRecorder is the optional best-effort sink for pruning history. A
// failure to record never affects publishing or pruning — see
// Publisher.PublishAndPrune.
type AuditRecorder interface {
	RecordPrune(at time.Time, droppedCount int, oldestTimestamp int64) error
}

// now is a package-level func so tests can override the wall-clock time
// a pass sees.
var now = time.Now

// Publisher walks a stats.Registry under its lock, formats a snapshot for
// EventSink, and prunes expired dynamic clusters in the same pass.
type Publisher struct {
	registry *stats.Registry
	sink     EventSink
	audit    AuditRecorder

	// sem serializes overlapping PublishAndPrune calls: the scheduler
	// drives this on a timer, but an administrative HTTP endpoint can also
	// trigger a pass at any moment. A weight-1 semaphore lets one caller
	// run while a concurrent second caller gets ErrBusy instead of
	// queueing behind a publish pass that's already walking the registry.
	sem *semaphore.Weighted

	lastDropped atomic.Int64
}

// Option configures a Publisher at construction time.
type Option func(*Publisher)

// WithAuditRecorder attaches a best-effort recorder of pruning history.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(p *Publisher) { p.audit = rec }
}

// New builds a Publisher over registry, emitting to sink.
func New(registry *stats.Registry, sink EventSink, opts ...Option) *Publisher {
	p := &Publisher{
		registry: registry,
		sink:     sink,
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ErrBusy is returned by PublishAndPrune when another pass is already in
// flight.
var ErrBusy = errBusy{}

type errBusy struct{}

func (errBusy) Error() string { return "publish: a pass is already in progress" }

// PublishAndPrune performs one publish-and-prune pass: snapshot wall-clock
// time, walk every cluster under the registry lock formatting a tag per
// live counter and deciding expiration, release the lock, then hand the
// collected tags and any pruning notice to the EventSink.
func (p *Publisher) PublishAndPrune() error {
	if !p.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer p.sem.Release(1)

	if p.registry.Closed() {
		return stats.ErrShutdown
	}

	pass := now()
	opts := p.registry.Options()
	doPublish := opts.LogFreq > 0

	var tags []Tag
	var droppedCount int
	var oldestTimestamp int64

	p.registry.Lock()
	p.registry.ForeachClusterRemove(func(cl *stats.Cluster) bool {
		var stamp int64
		hasStamp := false

		cl.Foreach(func(kind stats.CounterKind, cell *stats.CounterCell) {
			value := cell.Load()
			if doPublish {
				tags = append(tags, Tag{Name: stats.TagName(kind), Value: stats.FormatValue(cl.Key(), value)})
			}
			if kind == stats.CounterStamp {
				stamp = value
				hasStamp = true
			}
		})

		return decideExpiration(cl, pass, opts.Lifetime, hasStamp, stamp, &droppedCount, &oldestTimestamp)
	})
	p.registry.Unlock()

	if doPublish {
		p.sink.LogStatistics(tags)
	}

	p.lastDropped.Store(int64(droppedCount))

	if droppedCount > 0 {
		p.sink.PruningFinished(droppedCount, oldestTimestamp)

		if p.audit != nil {
			// Best-effort: the audit ledger records pruning *history* for
			// operator diagnosis, never counter state, and its failure
			// must never surface as a publish failure.
			_ = p.audit.RecordPrune(pass, droppedCount, oldestTimestamp)
		}
	}

	return nil
}

// LastDropped returns the number of clusters pruned by the most recently
// completed pass, for status reporting (e.g. a systemd watchdog string).
func (p *Publisher) LastDropped() int64 {
	return p.lastDropped.Load()
}

// decideExpiration applies the pruning decision tree for a single
// cluster and, if it decides to drop, folds the cluster's stamp into the
// running dropped-count/oldest-timestamp totals.
func decideExpiration(cl *stats.Cluster, pass time.Time, lifetime time.Duration, hasStamp bool, stamp int64, droppedCount *int, oldestTimestamp *int64) bool {
	if !cl.Dynamic() {
		return false
	}
	if cl.RefCount() > 0 {
		return false
	}
	if !hasStamp {
		return false
	}
	if stamp > pass.Unix()-int64(lifetime.Seconds()) {
		return false
	}

	*droppedCount++
	if *oldestTimestamp == 0 || stamp < *oldestTimestamp {
		*oldestTimestamp = stamp
	}
	return true
}
