package game

import (
	"errors"
	"testing"
)

// boardWithMines builds a square board with mines at the given cells and
// adjacency computed, as if placement had already run.
func boardWithMines(t *testing.T, size int, mines ...Coord) *Board {
	t.Helper()
	b, err := NewBoard(size, len(mines))
	if err != nil {
		t.Fatalf("NewBoard(%d, %d): %v", size, len(mines), err)
	}
	for _, m := range mines {
		b.at(m.Row, m.Col).Mine = true
	}
	b.placed = true
	b.ComputeAdjacency()
	return b
}

// stripLayout is an 8x8 board with ten mines: all of row 7 plus (5,7) and
// (6,7). Every safe cell is reachable by flood fill from (0,0).
func stripLayout() []Coord {
	mines := []Coord{{5, 7}, {6, 7}}
	for c := 0; c < 8; c++ {
		mines = append(mines, Coord{7, c})
	}
	return mines
}

func TestNeighborsOfClipsAtEdges(t *testing.T) {
	b, _ := NewBoard(8, 0)
	cases := []struct {
		name string
		at   Coord
		want int
	}{
		{"top-left corner", Coord{0, 0}, 3},
		{"bottom-right corner", Coord{7, 7}, 3},
		{"top edge", Coord{0, 4}, 5},
		{"left edge", Coord{4, 0}, 5},
		{"interior", Coord{3, 3}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.NeighborsOf(tc.at.Row, tc.at.Col)
			if err != nil {
				t.Fatalf("NeighborsOf(%v): %v", tc.at, err)
			}
			if len(got) != tc.want {
				t.Fatalf("NeighborsOf(%v) = %d cells, want %d", tc.at, len(got), tc.want)
			}
			for _, n := range got {
				if n == tc.at {
					t.Fatalf("NeighborsOf(%v) includes the cell itself", tc.at)
				}
				if abs(n.Row-tc.at.Row) > 1 || abs(n.Col-tc.at.Col) > 1 {
					t.Fatalf("NeighborsOf(%v) returned distant cell %v", tc.at, n)
				}
			}
		})
	}
}

func TestCellAtOutOfRange(t *testing.T) {
	b, _ := NewBoard(8, 0)
	for _, at := range []Coord{{-1, 0}, {0, -1}, {8, 0}, {0, 8}} {
		if _, err := b.CellAt(at.Row, at.Col); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("CellAt(%v) err = %v, want ErrOutOfRange", at, err)
		}
		if _, err := b.NeighborsOf(at.Row, at.Col); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("NeighborsOf(%v) err = %v, want ErrOutOfRange", at, err)
		}
	}
}

func TestComputeAdjacencyMatchesBruteForce(t *testing.T) {
	b := boardWithMines(t, 6, Coord{0, 0}, Coord{0, 1}, Coord{2, 2}, Coord{5, 5}, Coord{5, 0}, Coord{3, 4})
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			want := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if (dr != 0 || dc != 0) && nr >= 0 && nc >= 0 && nr < 6 && nc < 6 && b.at(nr, nc).Mine {
						want++
					}
				}
			}
			cell, _ := b.CellAt(r, c)
			if cell.Adjacent != want {
				t.Fatalf("Adjacent at (%d,%d) = %d, want %d", r, c, cell.Adjacent, want)
			}
		}
	}
	if got, _ := b.CellAt(0, 0); got.Adjacent != 1 {
		t.Fatalf("corner mine (0,0) Adjacent = %d, want 1", got.Adjacent)
	}
}

func TestCountsPartitionsCells(t *testing.T) {
	b := boardWithMines(t, 4, Coord{3, 3})
	b.at(0, 0).Revealed = true
	b.at(0, 1).Revealed = true
	b.at(3, 3).Flagged = true
	revealed, flagged, hidden := b.Counts()
	if revealed != 2 || flagged != 1 || hidden != 13 {
		t.Fatalf("Counts() = %d/%d/%d, want 2/1/13", revealed, flagged, hidden)
	}
}

func TestNewBoardRejectsBadDimensions(t *testing.T) {
	if _, err := NewBoard(0, 0); err == nil {
		t.Fatal("NewBoard(0, 0) succeeded")
	}
	if _, err := NewBoard(4, -1); err == nil {
		t.Fatal("NewBoard(4, -1) succeeded")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
