// Package stats implements the process-wide counter registry used by the
// log-processing daemon to track per-component metrics: how many records a
// source, destination, filter or router has processed, dropped, stored or
// suppressed, plus scalar timestamps for the last time something happened.
//
// Counters are identified by a (ComponentKind, id, instance) triple and
// grouped into a Cluster that shares a reference count and a live-counter
// bitmask. The Registry de-duplicates clusters by key, gates registration by
// a configured verbosity level, and lets a Publisher walk the live set on a
// schedule to emit a snapshot and prune clusters that have gone idle.
//
// Once a producer holds a *CellHandle, incrementing or reading it never
// touches the registry lock — that is the whole point of the design. The
// lock only guards structural changes: registering, unregistering, and
// iterating.
package stats

import "time"

// ComponentKind identifies the kind of log-processing component a counter
// belongs to. The low six bits hold one of the enumerated source kinds
// below; bits 6 and 7 carry the IsSource/IsDestination direction flags.
// Direction is part of the packed integer (and therefore part of equality
// and hashing) but is not itself an enumerated source kind.
type ComponentKind int32

// componentMask isolates the enumerated source kind from the direction
// flags packed into the high bits of a ComponentKind.
const componentMask ComponentKind = 0x3f

// Direction flags, packed into the high bits of ComponentKind. They are
// orthogonal to the source enum and, in legitimate use, mutually exclusive.
const (
	IsSource      ComponentKind = 1 << 6
	IsDestination ComponentKind = 1 << 7
)

// The enumerated component kinds. This is a closed list mirroring the
// source/destination/meta components a log-processing daemon can attach
// counters to.
const (
	ComponentNone ComponentKind = iota
	ComponentFile
	ComponentPipe
	ComponentTCP
	ComponentUDP
	ComponentTCP6
	ComponentUDP6
	ComponentUnixStream
	ComponentUnixDgram
	ComponentSyslog
	ComponentNetwork
	ComponentInternal
	ComponentLogstore
	ComponentProgram
	ComponentSQL
	ComponentSunStreams
	ComponentUserTTY
	ComponentGroup
	ComponentCenter
	ComponentHost
	ComponentGlobal
	ComponentMongoDB
	ComponentClass
	ComponentRuleID
	ComponentTag
	ComponentSeverity
	ComponentFacility
	ComponentSender
	ComponentSMTP
	ComponentAMQP
	ComponentSTOMP
	ComponentRedis
	ComponentSNMP
)

// Source returns the enumerated source kind with any direction flags
// stripped, the inverse of combining a kind with IsSource/IsDestination.
func (k ComponentKind) Source() ComponentKind {
	return k & componentMask
}

// CounterKind is the closed set of counter types a Cluster can hold.
type CounterKind int

const (
	CounterDropped CounterKind = iota
	CounterProcessed
	CounterStored
	CounterSuppressed
	CounterStamp
	counterKindCount
)

// Key identifies a Cluster. id and instance are never treated as absent —
// Go strings have no null, so the "normalize null to empty" rule from the
// original C implementation is automatically satisfied by the type system.
type Key struct {
	Source   ComponentKind
	ID       string
	Instance string
}

// Options holds the registry's tunable knobs. The zero value is not valid
// for Lifetime/LogFreq; use DefaultOptions for the documented defaults.
type Options struct {
	// Level gates registration: a registration declared at a level above
	// Level is silently refused and no cluster is created.
	Level int `yaml:"level"`

	// LogFreq is the cadence at which the Publisher/Pruner runs. Zero
	// disables publishing (an event record is not emitted) but does not
	// disable pruning.
	LogFreq time.Duration `yaml:"log-freq"`

	// Lifetime is the idle horizon after which a dynamic cluster with no
	// outstanding registrations becomes eligible for pruning.
	Lifetime time.Duration `yaml:"lifetime"`
}

// DefaultOptions returns the documented defaults: level 0, a ten-minute
// publish cadence and a ten-minute dynamic-counter lifetime.
func DefaultOptions() Options {
	return Options{
		Level:    0,
		LogFreq:  600 * time.Second,
		Lifetime: 600 * time.Second,
	}
}

// Allows reports whether a registration declared at the given level would
// be allowed to materialize under these options. Exposed standalone, not
// just folded into the register calls, so callers can skip building
// registration arguments entirely when gated.
func (o Options) Allows(level int) bool {
	return o.Level >= level
}

// EffectiveFreq returns the cadence the PeriodicScheduler should run at:
// LogFreq if set, otherwise half the Lifetime (floored at one second).
func (o Options) EffectiveFreq() time.Duration {
	if o.LogFreq > 0 {
		return o.LogFreq
	}
	if o.Lifetime < 2*time.Second {
		return time.Second
	}
	return o.Lifetime / 2
}
