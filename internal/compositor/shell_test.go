package compositor

import (
	"errors"
	"testing"
)

// TestPositionerPlaceBottomRight covers S5: anchor rect (10,20,100,50),
// popup size (200,100), anchor/gravity bottom-right, no offset, no
// constraints -> origin (110,70).
func TestPositionerPlaceBottomRight(t *testing.T) {
	p := Positioner{
		Size:       Size{W: 200, H: 100},
		AnchorRect: Rect{X: 10, Y: 20, W: 100, H: 50},
		Anchor:     AnchorBottomRight,
		Gravity:    GravityBottomRight,
	}
	got := p.Place(Point{}, Rect{X: 0, Y: 0, W: 1920, H: 1080})
	want := Rect{X: 110, Y: 70, W: 200, H: 100}
	if got != want {
		t.Fatalf("Place = %+v, want %+v", got, want)
	}
}

func TestPositionerPlaceTranslatesByParentOrigin(t *testing.T) {
	p := Positioner{
		Size:       Size{W: 50, H: 50},
		AnchorRect: Rect{X: 0, Y: 0, W: 20, H: 20},
		Anchor:     AnchorBottomRight,
		Gravity:    GravityBottomRight,
	}
	got := p.Place(Point{X: 100, Y: 200}, Rect{X: 0, Y: 0, W: 1920, H: 1080})
	want := Rect{X: 120, Y: 220, W: 50, H: 50}
	if got != want {
		t.Fatalf("Place = %+v, want %+v", got, want)
	}
}

func TestPositionerSlideConstraint(t *testing.T) {
	p := Positioner{
		Size:                 Size{W: 300, H: 100},
		AnchorRect:           Rect{X: 0, Y: 0, W: 10, H: 10},
		Anchor:               AnchorTopLeft,
		Gravity:              GravityBottomRight,
		ConstraintAdjustment: ConstraintSlideX,
	}
	bounds := Rect{X: 0, Y: 0, W: 200, H: 1080}
	got := p.Place(Point{}, bounds)
	if got.Right() > bounds.Right() {
		t.Fatalf("slide constraint left popup past bounds: %+v vs bounds %+v", got, bounds)
	}
	if got.W != 300 {
		t.Fatalf("slide must not resize, got width %d", got.W)
	}
}

func TestPositionerFlipConstraint(t *testing.T) {
	// Anchored at the right edge of the bounds, growing right would overflow;
	// flip should grow left instead.
	p := Positioner{
		Size:                 Size{W: 300, H: 100},
		AnchorRect:           Rect{X: 900, Y: 0, W: 10, H: 10},
		Anchor:               AnchorTopRight,
		Gravity:              GravityBottomRight,
		ConstraintAdjustment: ConstraintFlipX,
	}
	bounds := Rect{X: 0, Y: 0, W: 1000, H: 1080}
	got := p.Place(Point{}, bounds)
	if got.Right() > bounds.Right() {
		t.Fatalf("flip constraint did not prevent overflow: %+v", got)
	}
}

func TestShellSurfaceConfigureAckSerials(t *testing.T) {
	ss := NewShellSurface(NewIDRegistry(), 1)
	if ss.AllowBufferCommit() {
		t.Fatal("unconfigured surface must not allow a buffer commit")
	}

	ss.Configure(7)
	if err := ss.AckConfigure(8); !errors.Is(err, ErrUnknownSerial) {
		t.Fatalf("acking wrong serial: got %v, want ErrUnknownSerial", err)
	}
	if err := ss.AckConfigure(7); err != nil {
		t.Fatalf("acking correct serial: %v", err)
	}
	if !ss.AllowBufferCommit() {
		t.Fatal("configured surface must allow a buffer commit")
	}
}

// TestSizeHintsAreHintsOnly covers the SUPPLEMENTED FEATURES decision that
// min/max size are recorded but never clamp or block a commit.
func TestSizeHintsAreHintsOnly(t *testing.T) {
	ss := NewShellSurface(NewIDRegistry(), 1)
	ss.SetMinSize(100, 100)
	ss.SetMaxSize(200, 200)

	minW, minH, maxW, maxH := ss.SizeHints()
	if minW != 100 || minH != 100 || maxW != 200 || maxH != 200 {
		t.Fatalf("size hints = %d,%d,%d,%d, want 100,100,200,200", minW, minH, maxW, maxH)
	}
	// Nothing in ShellSurface enforces these against a commit: AllowBufferCommit
	// depends only on configure/ack state, never on size hints.
	ss.Configure(1)
	_ = ss.AckConfigure(1)
	if !ss.AllowBufferCommit() {
		t.Fatal("size hints must never block a buffer commit")
	}
}

func TestToplevelStateSetClear(t *testing.T) {
	ss := NewShellSurface(NewIDRegistry(), 1)
	ss.SetToplevelState(ToplevelStateActivated)
	ss.SetToplevelState(ToplevelStateMaximized)
	states := ss.ToplevelStates()
	if len(states) != 2 {
		t.Fatalf("want 2 states, got %d", len(states))
	}
	ss.ClearToplevelState(ToplevelStateMaximized)
	states = ss.ToplevelStates()
	if len(states) != 1 || states[0] != ToplevelStateActivated {
		t.Fatalf("after clearing maximized, want only activated, got %v", states)
	}
}
