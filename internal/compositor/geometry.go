package compositor

// Point is an integer 2D coordinate, in the surface/buffer coordinate
// space the protocol actually uses.
type Point struct {
	X, Y int32
}

// Size is an integer width/height pair.
type Size struct {
	W, H int32
}

// Rect is an axis-aligned integer rectangle, position + size.
type Rect struct {
	X, Y, W, H int32
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Right returns the exclusive right edge (X + W).
func (r Rect) Right() int32 { return r.X + r.W }

// Bottom returns the exclusive bottom edge (Y + H).
func (r Rect) Bottom() int32 { return r.Y + r.H }

// Union returns the smallest rectangle covering both r and o. Used to
// coalesce surface damage into a minimum covering set
// without ever shrinking the accumulated area.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	minX := min32(r.X, o.X)
	minY := min32(r.Y, o.Y)
	maxX := max32(r.Right(), o.Right())
	maxY := max32(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy int32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// DamageList accumulates rectangles and coalesces them into a covering set.
// Merging rectangles together is fine; dropping area never is.
type DamageList struct {
	rects []Rect
}

// Add merges r into the list by unioning it with the existing bound,
// whether or not the two overlap (cheap, conservative coalescing: a single
// bounding rect per surface, which always satisfies "must not drop area"
// since it only ever grows).
func (d *DamageList) Add(r Rect) {
	if r.Empty() {
		return
	}
	if len(d.rects) == 0 {
		d.rects = append(d.rects, r)
		return
	}
	d.rects[0] = d.rects[0].Union(r)
}

// Merge folds another DamageList's rectangles into this one.
func (d *DamageList) Merge(o DamageList) {
	for _, r := range o.rects {
		d.Add(r)
	}
}

// Rects returns the accumulated damage rectangles.
func (d *DamageList) Rects() []Rect {
	return d.rects
}

// Clear empties the list.
func (d *DamageList) Clear() {
	d.rects = d.rects[:0]
}

// Empty reports whether no damage has been recorded.
func (d *DamageList) Empty() bool {
	return len(d.rects) == 0
}
