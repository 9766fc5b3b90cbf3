package stats

import (
	"sync"
	"sync/atomic"
)

// Registry is the process-wide, de-duplicating, reference-counted store of
// Clusters. A single non-reentrant mutex serializes every structural
// operation: registration, unregistration, lookup, and iteration. Once a
// producer holds a *CellHandle returned from a registration, it never
// touches this lock again until it unregisters.
//
// The lock is exposed (Lock/Unlock) so a caller that needs to perform many
// registrations — a component coming up with a dozen related counters —
// can batch them under a single acquisition instead of paying the lock
// once per counter.
//
// There is no process-global singleton: construct one Registry with New at
// daemon startup, Close it at teardown, and pass a reference to every
// producer.
type Registry struct {
	mu       sync.Mutex
	held     atomic.Bool
	closed   atomic.Bool
	clusters map[Key]*Cluster
	opts     atomic.Pointer[Options]
}

// New allocates a Registry with the given options.
func New(opts Options) *Registry {
	r := &Registry{
		clusters: make(map[Key]*Cluster),
	}
	r.opts.Store(&opts)
	return r
}

// Lock acquires the registry lock. Every structural operation below
// requires the caller to be holding it.
func (r *Registry) Lock() {
	r.mu.Lock()
	r.held.Store(true)
}

// Unlock releases the registry lock.
func (r *Registry) Unlock() {
	r.held.Store(false)
	r.mu.Unlock()
}

func (r *Registry) requireLocked() {
	if !r.held.Load() {
		violate("registry lock not held")
	}
}

// Options returns a snapshot of the registry's current options. Safe to
// call without holding the lock.
func (r *Registry) Options() Options {
	return *r.opts.Load()
}

// Reinit atomically swaps the registry's options. It does not restart any
// scheduler; callers that also own a PeriodicScheduler should call its
// Reinit too (see the scheduler package) so the new LogFreq/Lifetime takes
// effect on the next tick.
func (r *Registry) Reinit(opts Options) {
	r.opts.Store(&opts)
}

// Closed reports whether Close has been called. The scheduler checks this
// before invoking a scheduled publish pass so it never fires against a torn
// down registry.
func (r *Registry) Closed() bool {
	return r.closed.Load()
}

// Close tears down the registry, discarding every cluster. It does not
// itself stop a PeriodicScheduler driving this registry — callers own that
// ordering (stop the scheduler first, then Close).
func (r *Registry) Close() error {
	r.Lock()
	defer r.Unlock()
	r.closed.Store(true)
	r.clusters = make(map[Key]*Cluster)
	return nil
}

// addOrReviveLocked implements the shared lookup-or-create step used by
// both RegisterCounter and RegisterDynamicCounter: on miss, create a
// cluster with refCnt=1; on hit, increment refCnt and report whether the
// cluster had been sitting at refCnt==0 (i.e. orphaned but not yet pruned).
func (r *Registry) addOrReviveLocked(key Key) (cluster *Cluster, isNew bool) {
	cl, ok := r.clusters[key]
	if !ok {
		cl = &Cluster{key: key, refCnt: 1}
		r.clusters[key] = cl
		return cl, true
	}

	revived := cl.refCnt == 0
	cl.refCnt++
	return cl, revived
}

// RegisterCounter registers (creating if necessary) a counter of kind for
// the given key, gated by level against the registry's current Options. It
// returns nil if the registration is gated, and panics with
// ErrContractViolation if the lock isn't held or kind is out of range.
func (r *Registry) RegisterCounter(level int, key Key, kind CounterKind) *CellHandle {
	r.requireLocked()
	if kind < 0 || kind >= counterKindCount {
		violate("register_counter: counter kind out of range")
	}
	if !r.Options().Allows(level) {
		return nil
	}

	cl, _ := r.addOrReviveLocked(key)
	cl.liveMask |= 1 << uint(kind)
	return &CellHandle{cluster: cl, kind: kind}
}

// RegisterDynamicCounter is RegisterCounter's dynamic-lifecycle sibling: it
// marks the cluster dynamic (eligible for pruning), and returns the
// Cluster handle alongside the cell so further kinds can be attached via
// RegisterAssociatedCounter without a second lookup. new is true if a
// cluster was created or if it existed with refCnt==0.
//
// It is a contract violation for an existing, non-dynamic cluster to be
// re-registered as dynamic — that means two producers disagree about
// whether this key's lifecycle is bounded or unbounded.
func (r *Registry) RegisterDynamicCounter(level int, key Key, kind CounterKind) (cluster *Cluster, handle *CellHandle, isNew bool) {
	r.requireLocked()
	if kind < 0 || kind >= counterKindCount {
		violate("register_dynamic_counter: counter kind out of range")
	}
	if !r.Options().Allows(level) {
		return nil, nil, false
	}

	cl, isNew := r.addOrReviveLocked(key)
	if !isNew && !cl.dynamic {
		violate("register_dynamic_counter: cluster already exists as static")
	}

	cl.dynamic = true
	cl.liveMask |= 1 << uint(kind)
	return cl, &CellHandle{cluster: cl, kind: kind}, isNew
}

// RegisterAssociatedCounter attaches an additional counter kind to a
// cluster already obtained from RegisterDynamicCounter, without a second
// key lookup. It increments refCnt and panics if cluster is not dynamic.
// A nil cluster is tolerated and yields a nil handle, matching the
// level-gated-registration contract upstream.
func (r *Registry) RegisterAssociatedCounter(cluster *Cluster, kind CounterKind) *CellHandle {
	r.requireLocked()
	if cluster == nil {
		return nil
	}
	if kind < 0 || kind >= counterKindCount {
		violate("register_associated_counter: counter kind out of range")
	}
	if !cluster.dynamic {
		violate("register_associated_counter: cluster is not dynamic")
	}

	cluster.liveMask |= 1 << uint(kind)
	cluster.refCnt++
	return &CellHandle{cluster: cluster, kind: kind}
}

// UnregisterCounter releases a registration obtained from RegisterCounter
// or RegisterDynamicCounter, looking the cluster up by key. A nil handle is
// a tolerated no-op — this is what lets every producer call it
// unconditionally after a possibly-gated registration. It never destroys
// the cluster; only the Publisher/Pruner does that.
func (r *Registry) UnregisterCounter(key Key, kind CounterKind, handle *CellHandle) {
	r.requireLocked()
	if handle == nil {
		return
	}

	cl, ok := r.clusters[key]
	if !ok {
		violate("unregister_counter: no cluster for key")
	}
	if !cl.HasCounter(kind) || handle.cluster != cl || handle.kind != kind {
		violate("unregister_counter: handle does not match cluster/kind")
	}

	cl.refCnt--
}

// UnregisterDynamicCounter is UnregisterCounter's direct-handle sibling: it
// skips the key lookup in favor of the Cluster handle already in hand. A
// nil cluster or nil handle is a tolerated no-op.
func (r *Registry) UnregisterDynamicCounter(cluster *Cluster, kind CounterKind, handle *CellHandle) {
	r.requireLocked()
	if cluster == nil || handle == nil {
		return
	}
	if !cluster.HasCounter(kind) || handle.cluster != cluster || handle.kind != kind {
		violate("unregister_dynamic_counter: handle does not match cluster/kind")
	}

	cluster.refCnt--
}

// RegisterAndIncrementDynamicCounter is the convenience path for
// single-shot classification events (class, rule_id, tag, severity,
// facility, sender, ...): it registers Processed, increments it, and if
// timestamp is non-negative also registers and sets Stamp. All handles are
// released before return, so the caller is left holding nothing — this
// call is entirely self-contained. Counts as a no-op if the registration is
// level-gated.
func (r *Registry) RegisterAndIncrementDynamicCounter(level int, key Key, timestamp int64) {
	r.requireLocked()

	cluster, processed, _ := r.RegisterDynamicCounter(level, key, CounterProcessed)
	if processed == nil {
		return
	}
	processed.Inc()

	if timestamp >= 0 {
		stamp := r.RegisterAssociatedCounter(cluster, CounterStamp)
		stamp.Set(timestamp)
		r.UnregisterDynamicCounter(cluster, CounterStamp, stamp)
	}

	r.UnregisterDynamicCounter(cluster, CounterProcessed, processed)
}

// ForeachCluster visits every cluster in the registry in unspecified but
// stable order. visit returns true to continue iterating, false to stop
// early. No mutation of the cluster set is allowed to happen during the
// walk — that's what the lock is for.
func (r *Registry) ForeachCluster(visit func(*Cluster) bool) {
	r.requireLocked()
	for _, cl := range r.clusters {
		if !visit(cl) {
			return
		}
	}
}

// ForeachClusterRemove visits every cluster and removes the ones for which
// predicate returns true, in a single pass.
func (r *Registry) ForeachClusterRemove(predicate func(*Cluster) bool) {
	r.requireLocked()
	for key, cl := range r.clusters {
		if predicate(cl) {
			delete(r.clusters, key)
		}
	}
}

// ForeachCounter visits every (cluster, kind, cell) triple across every
// cluster in the registry — the fully-expanded iteration hook the
// control-socket collaborator (out of scope here) or any other
// reporting consumer uses to produce its own formatted output while
// holding the registry lock.
func (r *Registry) ForeachCounter(visit func(*Cluster, CounterKind, *CounterCell)) {
	r.requireLocked()
	for _, cl := range r.clusters {
		cl.Foreach(func(kind CounterKind, cell *CounterCell) {
			visit(cl, kind, cell)
		})
	}
}

// Len returns the number of clusters currently in the registry. Requires
// the lock held, like every other structural read.
func (r *Registry) Len() int {
	r.requireLocked()
	return len(r.clusters)
}
