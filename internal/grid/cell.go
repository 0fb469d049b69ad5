// internal/grid/cell.go
// Purpose: grid cell identity, points, bounds, and the interning registry.
//
// Important: the key scheme ("i,j") is persisted; never change it after data exists.

package grid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// --- Types ---

// Point is a continuous position on the plane (latitude, longitude in degrees).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Cell is a discrete grid coordinate.
type Cell struct {
	I, J int
}

// Key returns the canonical persistence key for the cell.
func (c Cell) Key() string {
	return strconv.Itoa(c.I) + "," + strconv.Itoa(c.J)
}

func (c Cell) String() string { return c.Key() }

// CellID is a handle issued by an Index. Two handles from the same Index are
// equal iff they name the same (i, j).
type CellID int32

// Bounds is the rectangle covered by a cell: SW inclusive, NE exclusive.
type Bounds struct {
	SW Point
	NE Point
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.SW.Lat && p.Lat < b.NE.Lat && p.Lng >= b.SW.Lng && p.Lng < b.NE.Lng
}

// Index interns cells and maps points onto them.
//
// Not safe for concurrent use; the core runs on a single event loop.
type Index struct {
	tileWidth float64

	cells []Cell
	byKey map[Cell]CellID
}

// ErrInvalidTileWidth is returned when the tile width is not a positive finite number.
var ErrInvalidTileWidth = errors.New("grid: tile width must be positive and finite")

// --- Constructors ---

// NewIndex creates an empty registry for the given tile width.
func NewIndex(tileWidth float64) (*Index, error) {
	if !(tileWidth > 0) || math.IsInf(tileWidth, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTileWidth, tileWidth)
	}
	return &Index{
		tileWidth: tileWidth,
		cells:     make([]Cell, 0, 256),
		byKey:     make(map[Cell]CellID, 256),
	}, nil
}

// --- Public methods ---

// TileWidth returns the configured tile width.
func (x *Index) TileWidth() float64 { return x.tileWidth }

// Len returns how many distinct cells have been interned.
func (x *Index) Len() int { return len(x.cells) }

// Intern returns the handle for (i, j), creating it on first request.
func (x *Index) Intern(i, j int) CellID {
	c := Cell{I: i, J: j}
	if id, ok := x.byKey[c]; ok {
		return id
	}
	id := CellID(len(x.cells))
	x.cells = append(x.cells, c)
	x.byKey[c] = id
	return id
}

// Lookup returns the handle for (i, j) without interning it.
func (x *Index) Lookup(i, j int) (CellID, bool) {
	id, ok := x.byKey[Cell{I: i, J: j}]
	return id, ok
}

// Cell returns the coordinates behind a handle. It panics on a handle this
// Index never issued, like an out-of-range slice index.
func (x *Index) Cell(id CellID) Cell {
	return x.cells[id]
}

// Key returns the persistence key of a handle.
func (x *Index) Key(id CellID) string {
	return x.cells[id].Key()
}

// CellFor maps a point to its cell: each axis is divided by the tile width and
// rounded to the nearest integer (halves away from zero).
func (x *Index) CellFor(p Point) CellID {
	return x.Intern(
		int(math.Round(p.Lat/x.tileWidth)),
		int(math.Round(p.Lng/x.tileWidth)),
	)
}
