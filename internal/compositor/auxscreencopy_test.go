package compositor

import "testing"

func TestScreencopyLifecycleHappyPath(t *testing.T) {
	f := NewScreencopyFrame(NewIDRegistry(), 1, Rect{})
	if f.State() != ScreencopyPending {
		t.Fatalf("initial state = %v, want Pending", f.State())
	}
	if !f.MarkReady() {
		t.Fatal("Pending -> Ready should be allowed")
	}
	if !f.MarkCopying() {
		t.Fatal("Ready -> Copying should be allowed")
	}
	if !f.MarkDone() {
		t.Fatal("Copying -> Done should be allowed")
	}
	if f.State() != ScreencopyDone {
		t.Fatalf("final state = %v, want Done", f.State())
	}
}

func TestScreencopyCannotSkipCopying(t *testing.T) {
	f := NewScreencopyFrame(NewIDRegistry(), 1, Rect{})
	f.MarkReady()
	if f.MarkDone() {
		t.Fatal("Ready -> Done should not be allowed without Copying")
	}
	if f.State() != ScreencopyReady {
		t.Fatalf("state after rejected transition = %v, want it unchanged at Ready", f.State())
	}
}

// TestScreencopyFailsFromAnyState covers the "capture request with nothing
// committed yet" edge case: failure must be reachable even from Pending.
func TestScreencopyFailsFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *ScreencopyFrame)
	}{
		{"from pending", func(f *ScreencopyFrame) {}},
		{"from ready", func(f *ScreencopyFrame) { f.MarkReady() }},
		{"from copying", func(f *ScreencopyFrame) { f.MarkReady(); f.MarkCopying() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewScreencopyFrame(NewIDRegistry(), 1, Rect{})
			tt.setup(f)
			if !f.MarkFailed() {
				t.Fatal("MarkFailed should always succeed from a non-terminal state")
			}
			if f.State() != ScreencopyFailed {
				t.Fatalf("state = %v, want Failed", f.State())
			}
		})
	}
}

func TestScreencopyRegionCapture(t *testing.T) {
	region := Rect{X: 10, Y: 10, W: 100, H: 100}
	f := NewScreencopyFrame(NewIDRegistry(), 1, region)
	if f.Region() != region {
		t.Fatalf("Region() = %+v, want %+v", f.Region(), region)
	}
	whole := NewScreencopyFrame(NewIDRegistry(), 1, Rect{})
	if !whole.Region().Empty() {
		t.Fatal("zero-value region must mean whole-output capture")
	}
}
