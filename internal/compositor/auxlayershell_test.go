package compositor

import "testing"

func TestLayerSurfaceStretchToFill(t *testing.T) {
	l := NewLayerSurface(NewIDRegistry(), 1, 2, LayerTop)
	l.SetAnchor(AnchorEdgeLeft | AnchorEdgeRight | AnchorEdgeTop)
	l.SetMargin(10, 20, 0, 30) // top, right, bottom, left
	l.SetSize(0, 40)           // width 0 means "stretch" on a fully anchored axis

	got := l.Geometry(1000, 800)
	want := Rect{X: 30, Y: 10, W: 1000 - 30 - 20, H: 40}
	if got != want {
		t.Fatalf("Geometry = %+v, want %+v", got, want)
	}
}

func TestLayerSurfaceCenteredWhenNotAnchored(t *testing.T) {
	l := NewLayerSurface(NewIDRegistry(), 1, 2, LayerOverlay)
	l.SetSize(100, 50)

	got := l.Geometry(1000, 800)
	want := Rect{X: (1000 - 100) / 2, Y: (800 - 50) / 2, W: 100, H: 50}
	if got != want {
		t.Fatalf("Geometry = %+v, want %+v", got, want)
	}
}

func TestLayerSurfaceAnchoredCorner(t *testing.T) {
	l := NewLayerSurface(NewIDRegistry(), 1, 2, LayerBottom)
	l.SetAnchor(AnchorEdgeBottom | AnchorEdgeRight)
	l.SetMargin(0, 5, 5, 0)
	l.SetSize(100, 50)

	got := l.Geometry(1000, 800)
	want := Rect{X: 1000 - 100 - 5, Y: 800 - 50 - 5, W: 100, H: 50}
	if got != want {
		t.Fatalf("Geometry = %+v, want %+v", got, want)
	}
}

func TestLayerSurfaceConfigureGatesBufferCommit(t *testing.T) {
	l := NewLayerSurface(NewIDRegistry(), 1, 2, LayerTop)
	if l.AllowBufferCommit() {
		t.Fatal("unconfigured layer surface must not allow a buffer commit")
	}
	l.Configure(1)
	if err := l.AckConfigure(1); err != nil {
		t.Fatalf("AckConfigure: %v", err)
	}
	if !l.AllowBufferCommit() {
		t.Fatal("configured layer surface must allow a buffer commit")
	}
}

func TestLayerShellStoreByOutput(t *testing.T) {
	store := NewLayerShellStore(NewIDRegistry())
	a := store.Create(1, 10, LayerTop)
	_ = store.Create(2, 20, LayerTop)
	got := store.ByOutput(10)
	if len(got) != 1 || got[0] != a {
		t.Fatalf("ByOutput(10) = %v, want [%v]", got, a)
	}
}
