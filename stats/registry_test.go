package stats

import (
	"sync"
	"testing"
	"time"
)

func withLock(r *Registry, fn func()) {
	r.Lock()
	defer r.Unlock()
	fn()
}

func TestRegisterCounterBasic(t *testing.T) {
	r := New(Options{Level: 1, LogFreq: time.Second, Lifetime: time.Minute})

	key := Key{Source: ComponentFile | IsDestination, ID: "dst-access", Instance: "/var/log/a"}
	var handle *CellHandle
	withLock(r, func() {
		handle = r.RegisterCounter(1, key, CounterProcessed)
	})

	if handle == nil {
		t.Fatal("expected a non-nil handle")
	}

	handle.Inc()
	handle.Inc()
	handle.Inc()

	if got := handle.Load(); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestRegisterCounterLevelGated(t *testing.T) {
	r := New(Options{Level: 0, LogFreq: time.Second, Lifetime: time.Minute})

	key := Key{Source: ComponentFile, ID: "x", Instance: ""}
	var handle *CellHandle
	withLock(r, func() {
		handle = r.RegisterCounter(1, key, CounterProcessed)
	})

	if handle != nil {
		t.Fatal("expected nil handle for a gated registration")
	}

	// Nil handles must be safe no-ops everywhere.
	handle.Inc()
	handle.Add(5)
	handle.Set(10)
	if got := handle.Load(); got != 0 {
		t.Errorf("got %d, want 0", got)
	}

	withLock(r, func() {
		r.UnregisterCounter(key, CounterProcessed, handle)
		if r.Len() != 0 {
			t.Errorf("gated registration must not create a cluster, got %d clusters", r.Len())
		}
	})
}

func TestEmptyIDAndInstance(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentGlobal, ID: "", Instance: ""}

	var handle *CellHandle
	var value string
	withLock(r, func() {
		handle = r.RegisterCounter(0, key, CounterProcessed)
		handle.Inc()
		value = FormatValue(key, handle.Load())
	})

	if want := "global()=1"; value != want {
		t.Errorf("got %q, want %q", value, want)
	}
}

func TestGroupDirectionName(t *testing.T) {
	src := Key{Source: ComponentGroup | IsSource, ID: "s_local", Instance: ""}
	dst := Key{Source: ComponentGroup | IsDestination, ID: "d_local", Instance: ""}

	if got := DirectionAndSourceName(src.Source); got != "source" {
		t.Errorf("got %q, want %q", got, "source")
	}
	if got := DirectionAndSourceName(dst.Source); got != "destination" {
		t.Errorf("got %q, want %q", got, "destination")
	}
}

func TestDirectionCollisionPrefersSource(t *testing.T) {
	kind := ComponentFile | IsSource | IsDestination
	if got := DirectionPrefix(kind); got != "src." {
		t.Errorf("got %q, want %q (source must win on collision)", got, "src.")
	}
}

func TestRefCountBalance(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentTCP, ID: "listener", Instance: "1"}

	var h1, h2 *CellHandle
	withLock(r, func() {
		h1 = r.RegisterCounter(0, key, CounterProcessed)
		h2 = r.RegisterCounter(0, key, CounterDropped)
	})

	var cluster *Cluster
	withLock(r, func() {
		r.ForeachCluster(func(cl *Cluster) bool {
			if cl.Key() == key {
				cluster = cl
			}
			return true
		})
	})
	if cluster == nil {
		t.Fatal("expected cluster to exist")
	}
	if cluster.RefCount() != 2 {
		t.Errorf("got refCnt %d, want 2", cluster.RefCount())
	}

	withLock(r, func() {
		r.UnregisterCounter(key, CounterProcessed, h1)
	})
	if cluster.RefCount() != 1 {
		t.Errorf("got refCnt %d, want 1", cluster.RefCount())
	}

	withLock(r, func() {
		r.UnregisterCounter(key, CounterDropped, h2)
	})
	if cluster.RefCount() != 0 {
		t.Errorf("got refCnt %d, want 0", cluster.RefCount())
	}
}

func TestReRegistrationRevives(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentSender, ID: "10.0.0.1", Instance: ""}

	var handle *CellHandle
	withLock(r, func() {
		handle = r.RegisterCounter(0, key, CounterProcessed)
		handle.Set(42)
		r.UnregisterCounter(key, CounterProcessed, handle)
	})

	var revived bool
	var cluster *Cluster
	var newHandle *CellHandle
	withLock(r, func() {
		cluster, newHandle, revived = r.RegisterDynamicCounter(0, key, CounterProcessed)
	})

	if !revived {
		t.Error("expected new=true when reviving a refCnt==0 cluster")
	}
	if cluster.RefCount() != 1 {
		t.Errorf("got refCnt %d, want 1", cluster.RefCount())
	}
	if got := newHandle.Load(); got != 42 {
		t.Errorf("liveMask/value should survive revival: got %d, want 42", got)
	}
}

func TestDynamicStaticMismatchPanics(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentFile, ID: "static-one", Instance: ""}

	withLock(r, func() {
		r.RegisterCounter(0, key, CounterProcessed)
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when re-registering a static cluster as dynamic")
		}
	}()

	withLock(r, func() {
		r.RegisterDynamicCounter(0, key, CounterDropped)
	})
}

func TestRegisterWithoutLockPanics(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentFile, ID: "x", Instance: ""}

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the registry lock is not held")
		}
	}()

	r.RegisterCounter(0, key, CounterProcessed)
}

func TestStaticClustersNeverPrune(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentFile, ID: "static", Instance: ""}

	withLock(r, func() {
		h := r.RegisterCounter(0, key, CounterProcessed)
		r.UnregisterCounter(key, CounterProcessed, h)
	})

	var removed []Key
	withLock(r, func() {
		r.ForeachClusterRemove(func(cl *Cluster) bool {
			drop := cl.Dynamic() && cl.RefCount() == 0
			if drop {
				removed = append(removed, cl.Key())
			}
			// Static clusters must never actually be removed by a real
			// pruner; simulate the pruner's decision without breaking
			// the invariant under test.
			return false
		})
	})

	if len(removed) != 0 {
		t.Errorf("a real pruner must never mark a static cluster for removal, got %v", removed)
	}
}

func TestHotPathAtomicity(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentInternal, ID: "counter", Instance: ""}

	var handle *CellHandle
	withLock(r, func() {
		handle = r.RegisterCounter(0, key, CounterProcessed)
	})

	const goroutines = 50
	const perGoroutine = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				handle.Inc()
			}
		}()
	}
	wg.Wait()

	want := int64(goroutines * perGoroutine)
	if got := handle.Load(); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestRegisterAndIncrementDynamicCounter(t *testing.T) {
	r := New(DefaultOptions())
	key := Key{Source: ComponentRuleID, ID: "abc-123", Instance: ""}

	withLock(r, func() {
		r.RegisterAndIncrementDynamicCounter(0, key, 1000)
	})

	var cluster *Cluster
	withLock(r, func() {
		r.ForeachCluster(func(cl *Cluster) bool {
			if cl.Key() == key {
				cluster = cl
			}
			return true
		})
	})

	if cluster == nil {
		t.Fatal("expected cluster to exist after single-shot classification")
	}
	if cluster.RefCount() != 0 {
		t.Errorf("all handles should be released: got refCnt %d, want 0", cluster.RefCount())
	}
	if !cluster.HasCounter(CounterProcessed) || !cluster.HasCounter(CounterStamp) {
		t.Error("expected both Processed and Stamp to be live")
	}
}
