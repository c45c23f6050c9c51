package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTracksMinMax(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(3 * time.Millisecond)
	m.Record(1 * time.Millisecond)
	m.Record(5 * time.Millisecond)

	s := m.Stats()
	if s.Count != 3 {
		t.Fatalf("expected count 3, got %d", s.Count)
	}
	if s.MinMs != 1 || s.MaxMs != 5 {
		t.Errorf("expected min 1ms max 5ms, got min %v max %v", s.MinMs, s.MaxMs)
	}
	if s.AvgMs != 3 {
		t.Errorf("expected avg 3ms, got %v", s.AvgMs)
	}
}

func TestRecordDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	m.Record(time.Second)
	Timer(m)()
	if m.Count() != 0 {
		t.Errorf("expected nothing recorded while disabled, got %d", m.Count())
	}
}

func TestRecordConcurrent(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Microsecond)
		}()
	}
	wg.Wait()
	if m.Count() != 50 {
		t.Errorf("expected 50, got %d", m.Count())
	}
}

func TestSnapshotSkipsEmpty(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	Segmentation.Record(time.Millisecond)

	snap := Snapshot()
	if len(snap) != 1 || snap[0].Name != "segmentation" {
		t.Errorf("expected only segmentation in snapshot, got %+v", snap)
	}
	ResetAll()
}
