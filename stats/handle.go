package stats

// CellHandle is a borrowed reference to a single CounterCell inside a
// Cluster. Registry.RegisterCounter and friends return one; producers
// mutate the cell through it without ever touching the registry lock.
//
// Handles are weak borrows with no destructor semantics: a handle remains
// valid only as long as the registration that produced it is outstanding,
// and it must never be dereferenced after being passed to an Unregister
// call. Clusters are heap-allocated once and never moved for the lifetime
// of the process (they're only ever reached through a pointer stored in the
// Registry's map and in outstanding handles), so a *CellHandle is safe to
// hold across arbitrary structural changes elsewhere in the registry: an
// owning reference into an arena where clusters never move, trading a
// pruned cluster's memory staying live slightly longer (until its last
// handle is dropped) for a hot path with no extra indirection.
//
// All methods are nil-receiver safe: a handle returned for a level-gated
// registration is nil, and every producer is expected to call Inc/Add/Set
// on it unconditionally as a no-op. The registry never hands out sentinel
// handles; this is what makes that safe.
type CellHandle struct {
	cluster *Cluster
	kind    CounterKind
}

func (h *CellHandle) cell() *CounterCell {
	if h == nil {
		return nil
	}
	return h.cluster.cellAt(h.kind)
}

// Inc increments the underlying cell by one. A no-op on a nil handle.
func (h *CellHandle) Inc() {
	if c := h.cell(); c != nil {
		c.Inc()
	}
}

// Dec decrements the underlying cell by one. A no-op on a nil handle.
func (h *CellHandle) Dec() {
	if c := h.cell(); c != nil {
		c.Dec()
	}
}

// Add adds delta to the underlying cell. A no-op on a nil handle.
func (h *CellHandle) Add(delta int64) {
	if c := h.cell(); c != nil {
		c.Add(delta)
	}
}

// Set stores value into the underlying cell. A no-op on a nil handle.
func (h *CellHandle) Set(value int64) {
	if c := h.cell(); c != nil {
		c.Set(value)
	}
}

// Load returns the underlying cell's value, or 0 for a nil handle.
func (h *CellHandle) Load() int64 {
	if c := h.cell(); c != nil {
		return c.Load()
	}
	return 0
}

// Valid reports whether the handle refers to a real cell. Producers that
// need to distinguish "gated" from "registered but zero" (most don't) can
// check this instead of comparing to nil directly.
func (h *CellHandle) Valid() bool {
	return h != nil
}
