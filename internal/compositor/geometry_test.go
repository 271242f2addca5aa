package compositor

import "testing"

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"a empty", Rect{}, Rect{X: 1, Y: 1, W: 2, H: 2}, Rect{X: 1, Y: 1, W: 2, H: 2}},
		{"b empty", Rect{X: 1, Y: 1, W: 2, H: 2}, Rect{}, Rect{X: 1, Y: 1, W: 2, H: 2}},
		{"disjoint", Rect{X: 0, Y: 0, W: 10, H: 10}, Rect{X: 20, Y: 20, W: 5, H: 5}, Rect{X: 0, Y: 0, W: 25, H: 25}},
		{"overlapping", Rect{X: 0, Y: 0, W: 10, H: 10}, Rect{X: 5, Y: 5, W: 10, H: 10}, Rect{X: 0, Y: 0, W: 15, H: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"touching edge does not intersect", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
		{"overlap", Rect{X: 5, Y: 5, W: 5, H: 5}, true},
		{"disjoint", Rect{X: 100, Y: 100, W: 1, H: 1}, false},
		{"empty other", Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDamageListNeverShrinks(t *testing.T) {
	var d DamageList
	d.Add(Rect{X: 0, Y: 0, W: 10, H: 10})
	d.Add(Rect{X: 100, Y: 100, W: 5, H: 5})

	got := d.Rects()
	if len(got) != 1 {
		t.Fatalf("want a single coalesced rect, got %d", len(got))
	}
	want := Rect{X: 0, Y: 0, W: 105, H: 105}
	if got[0] != want {
		t.Errorf("coalesced rect = %+v, want %+v", got[0], want)
	}

	d.Add(Rect{}) // empty damage must never grow or shrink the bound
	if d.Rects()[0] != want {
		t.Errorf("empty Add changed the bound: got %+v", d.Rects()[0])
	}
}

func TestDamageListMerge(t *testing.T) {
	var surface, pending DamageList
	surface.Add(Rect{X: 0, Y: 0, W: 5, H: 5})
	pending.Add(Rect{X: 10, Y: 10, W: 5, H: 5})

	surface.Merge(pending)
	want := Rect{X: 0, Y: 0, W: 15, H: 15}
	if got := surface.Rects()[0]; got != want {
		t.Errorf("merged rect = %+v, want %+v", got, want)
	}
}

func TestDamageListClear(t *testing.T) {
	var d DamageList
	d.Add(Rect{X: 0, Y: 0, W: 1, H: 1})
	if d.Empty() {
		t.Fatal("expected non-empty after Add")
	}
	d.Clear()
	if !d.Empty() {
		t.Fatal("expected empty after Clear")
	}
}
