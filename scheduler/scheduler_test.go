package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudbox/logstats/stats"
)

func TestStartFiresTick(t *testing.T) {
	r := stats.New(stats.Options{Level: 0, LogFreq: 10 * time.Millisecond, Lifetime: time.Minute})

	fired := make(chan struct{}, 1)
	s := New(r, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, zerolog.Nop())

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired within the timeout")
	}
}

func TestReinitRearmsEntry(t *testing.T) {
	r := stats.New(stats.Options{Level: 0, LogFreq: time.Hour, Lifetime: time.Minute})
	s := New(r, func() {}, zerolog.Nop())

	s.Start()
	defer s.Stop()

	firstEntry := s.entryID
	r.Reinit(stats.Options{Level: 0, LogFreq: 10 * time.Millisecond, Lifetime: time.Minute})
	s.Reinit()

	if s.entryID == firstEntry {
		t.Error("expected Reinit to re-schedule under a new entry ID")
	}
}

func TestTickSkippedAfterClose(t *testing.T) {
	r := stats.New(stats.Options{Level: 0, LogFreq: 5 * time.Millisecond, Lifetime: time.Minute})
	_ = r.Close()

	calls := 0
	s := New(r, func() { calls++ }, zerolog.Nop())
	s.Start()
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if calls != 0 {
		t.Errorf("tick must not invoke run once the registry is closed, got %d calls", calls)
	}
}
