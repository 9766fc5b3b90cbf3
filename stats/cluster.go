package stats

// Cluster groups up to counterKindCount CounterCells that share a key, a
// reference count and a live-counter bitmask. A Cluster is not itself
// thread-safe as an object: every structural field (refCnt, liveMask,
// dynamic) is only ever touched while the owning Registry's lock is held.
// The cells themselves are safe for lock-free concurrent use per CounterCell.
type Cluster struct {
	key      Key
	cells    [counterKindCount]CounterCell
	liveMask uint32
	refCnt   int64
	dynamic  bool
}

// Key returns the cluster's identifying key.
func (c *Cluster) Key() Key { return c.key }

// Dynamic reports whether this cluster was ever registered via
// RegisterDynamicCounter. Once true it stays true for the cluster's
// lifetime.
func (c *Cluster) Dynamic() bool { return c.dynamic }

// RefCount returns the number of outstanding (kind, registration) pairs
// currently held against this cluster across all counter kinds.
func (c *Cluster) RefCount() int64 { return c.refCnt }

// LiveMask returns the bitmask of counter kinds that have been registered
// at least once on this cluster. A cell whose bit is unset here has never
// been registered and its value is not meaningful.
func (c *Cluster) LiveMask() uint32 { return c.liveMask }

// HasCounter reports whether kind has ever been registered on this
// cluster.
func (c *Cluster) HasCounter(kind CounterKind) bool {
	return c.liveMask&(1<<uint(kind)) != 0
}

// cellAt returns a pointer to the cell for kind. Callers must only do this
// for kinds that are in range; the registry enforces that at registration
// time.
func (c *Cluster) cellAt(kind CounterKind) *CounterCell {
	return &c.cells[kind]
}

// Foreach calls visit once for every counter kind whose bit is set in
// LiveMask, in ascending kind order, passing the kind and a pointer to its
// cell. Like all Cluster reads, this is only meaningful while the owning
// Registry's lock is held — the structural shape (which kinds are live) is
// stable under the lock even though the cell values underneath may still be
// moving from concurrent hot-path updates.
func (c *Cluster) Foreach(visit func(CounterKind, *CounterCell)) {
	for kind := CounterKind(0); kind < counterKindCount; kind++ {
		if c.liveMask&(1<<uint(kind)) == 0 {
			continue
		}
		visit(kind, c.cellAt(kind))
	}
}
