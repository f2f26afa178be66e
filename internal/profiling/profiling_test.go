package profiling

import (
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	ResetFrame()
	t.Cleanup(ResetFrame)

	Track("a")()
	Track("a")()
	Track("b")()

	snap := Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot has %d entries, want 2", len(snap))
	}
	if _, ok := snap["a"]; !ok {
		t.Error("missing entry a")
	}

	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Error("ResetFrame did not clear totals")
	}
}

func TestTopNOrdering(t *testing.T) {
	ResetFrame()
	t.Cleanup(ResetFrame)

	mu.Lock()
	frameTotals["shader.Render"] = 4200 * time.Microsecond
	frameTotals["animation.Run"] = 300 * time.Microsecond
	frameTotals["background.Render"] = 2 * time.Millisecond
	mu.Unlock()

	got := TopN(2)
	want := "shader.Render:4.2ms, background.Render:2ms"
	if got != want {
		t.Errorf("TopN(2) = %q, want %q", got, want)
	}
	if got := TopN(10); got != "shader.Render:4.2ms, background.Render:2ms, animation.Run:0.3ms" {
		t.Errorf("TopN(10) = %q", got)
	}
}
