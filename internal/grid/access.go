// internal/grid/access.go
// Purpose: pure geometry over interned cells: bounds, centers, neighborhoods.
// Keep these tiny; none of them touch storage.

package grid

// --- Public methods ---

// Bounds returns [i·w, j·w] to [(i+1)·w, (j+1)·w] for the cell.
func (x *Index) Bounds(id CellID) Bounds {
	c := x.cells[id]
	w := x.tileWidth
	return Bounds{
		SW: Point{Lat: float64(c.I) * w, Lng: float64(c.J) * w},
		NE: Point{Lat: float64(c.I+1) * w, Lng: float64(c.J+1) * w},
	}
}

// Center returns the midpoint of the cell's bounds.
func (x *Index) Center(id CellID) Point {
	b := x.Bounds(id)
	return Point{
		Lat: (b.SW.Lat + b.NE.Lat) / 2,
		Lng: (b.SW.Lng + b.NE.Lng) / 2,
	}
}

// Neighborhood returns every cell with i in [oi-radius, oi+radius) and j in
// [oj-radius, oj+radius): 2·radius values per axis, (2·radius)² cells, in
// row-major order (i outer, j inner). A non-positive radius yields nil.
func (x *Index) Neighborhood(origin CellID, radius int) []CellID {
	if radius <= 0 {
		return nil
	}
	o := x.cells[origin]
	side := 2 * radius
	out := make([]CellID, 0, side*side)
	for di := -radius; di < radius; di++ {
		for dj := -radius; dj < radius; dj++ {
			out = append(out, x.Intern(o.I+di, o.J+dj))
		}
	}
	return out
}

// Step returns the point one tile away from p in direction (di, dj).
func (x *Index) Step(p Point, di, dj int) Point {
	return Point{
		Lat: p.Lat + float64(di)*x.tileWidth,
		Lng: p.Lng + float64(dj)*x.tileWidth,
	}
}
