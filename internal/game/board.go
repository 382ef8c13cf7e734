// internal/game/board.go
//
// Board: a fixed-size grid of cells addressed by (row, col).
// Responsibilities:
//   - Own per-cell state in a row-major slice.
//   - Bounds checks, neighbourhood queries and adjacency counts.
//
// The board never decides game outcomes; see reveal.go for the player
// actions and session.go for status transitions.

package game

import "fmt"

// Board is a Width×Height grid holding Mines mines once placed.
type Board struct {
	Width  int
	Height int
	Mines  int

	cells  []Cell
	placed bool
}

// NewBoard returns an empty (mineless) square board.
func NewBoard(size, mines int) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("board size %d: must be positive", size)
	}
	if mines < 0 {
		return nil, fmt.Errorf("mine count %d: must not be negative", mines)
	}
	return &Board{
		Width:  size,
		Height: size,
		Mines:  mines,
		cells:  make([]Cell, size*size),
	}, nil
}

// In reports whether (r, c) lies on the board.
func (b *Board) In(r, c int) bool {
	return r >= 0 && c >= 0 && r < b.Height && c < b.Width
}

func (b *Board) check(r, c int) error {
	if !b.In(r, c) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfRange, r, c, b.Width, b.Height)
	}
	return nil
}

// index maps a valid coordinate to its slot in cells.
func (b *Board) index(r, c int) int { return r*b.Width + c }

func (b *Board) at(r, c int) *Cell { return &b.cells[b.index(r, c)] }

// CellAt returns a copy of the cell at (r, c).
func (b *Board) CellAt(r, c int) (Cell, error) {
	if err := b.check(r, c); err != nil {
		return Cell{}, err
	}
	return *b.at(r, c), nil
}

// NeighborsOf returns the Chebyshev-distance-1 neighbourhood of (r, c),
// clipped to the board edges. The cell itself is not included.
func (b *Board) NeighborsOf(r, c int) ([]Coord, error) {
	if err := b.check(r, c); err != nil {
		return nil, err
	}
	out := make([]Coord, 0, 8)
	b.around(r, c, func(nr, nc int) {
		out = append(out, Coord{Row: nr, Col: nc})
	})
	return out, nil
}

// around calls fn for every on-board neighbour of a valid coordinate.
func (b *Board) around(r, c int, fn func(nr, nc int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if nr, nc := r+dr, c+dc; b.In(nr, nc) {
				fn(nr, nc)
			}
		}
	}
}

// ComputeAdjacency sets Adjacent on every cell (mines included) to the
// number of mined neighbours.
func (b *Board) ComputeAdjacency() {
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			n := 0
			b.around(r, c, func(nr, nc int) {
				if b.at(nr, nc).Mine {
					n++
				}
			})
			b.at(r, c).Adjacent = n
		}
	}
}

// MinesPlaced reports whether the deferred placement has run.
func (b *Board) MinesPlaced() bool { return b.placed }

// Counts tallies revealed, flagged and hidden (neither) cells.
func (b *Board) Counts() (revealed, flagged, hidden int) {
	for i := range b.cells {
		switch {
		case b.cells[i].Revealed:
			revealed++
		case b.cells[i].Flagged:
			flagged++
		default:
			hidden++
		}
	}
	return revealed, flagged, hidden
}

// coord is the inverse of index.
func (b *Board) coord(i int) Coord { return Coord{Row: i / b.Width, Col: i % b.Width} }
