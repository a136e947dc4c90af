package pap

import (
	"testing"
	"time"
)

func TestProgressTracker(t *testing.T) {
	type report struct {
		name        string
		done, total int64
	}
	var reports []report
	pt := NewProgressTracker(func(name string, done, total int64, rate float64) {
		reports = append(reports, report{name, done, total})
	}, time.Hour)

	pt.Start("a.bin", 300)
	pt.Add(100)
	pt.Add(200)
	if len(reports) != 0 {
		t.Fatalf("throttled tracker reported early: %v", reports)
	}

	pt.Complete()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if got := reports[0]; got != (report{"a.bin", 300, 300}) {
		t.Errorf("final report = %+v", got)
	}
	if pt.Transferred() != 300 {
		t.Errorf("Transferred = %d, want 300", pt.Transferred())
	}
}

func TestProgressTrackerDefaultInterval(t *testing.T) {
	pt := NewProgressTracker(nil, 0)
	if pt.updateInterval != 100*time.Millisecond {
		t.Errorf("interval = %v, want 100ms", pt.updateInterval)
	}
	pt.Start("x", 0)
	pt.Add(5)
	pt.Complete()
}
