// internal/game/reveal.go
//
// Reveal engine: the player-facing board actions.
//   - Reveal:     open one cell; zero cells flood outward.
//   - ToggleFlag: flip a flag on a hidden cell.
//   - Chord:      open the safe neighbours of a satisfied number.
//
// Every action validates coordinates first and otherwise no-ops when its
// preconditions are unmet (already open, flagged, mismatched flags...).
// Flooding uses an explicit work-list with a visited slice, so each cell is
// opened at most once per pass and stack depth does not grow with the board.

package game

// Change reports what a single board action did.
type Change struct {
	Cells     []Coord // cells whose state changed, in the order they changed
	FlagDelta int     // change in flags remaining: -1 flag placed, +1 flag removed
	Detonated bool    // a mine was revealed
}

// Reveal opens (r, c). Revealing a mine detonates it. Revealing a zero
// cell expands through its unmined, unflagged, unrevealed neighbours.
func (b *Board) Reveal(r, c int) (Change, error) {
	if err := b.check(r, c); err != nil {
		return Change{}, err
	}
	cell := b.at(r, c)
	if cell.Revealed || cell.Flagged {
		return Change{}, nil
	}
	if cell.Mine {
		cell.Revealed, cell.Detonated = true, true
		return Change{Cells: []Coord{{Row: r, Col: c}}, Detonated: true}, nil
	}
	return Change{Cells: b.expand([]Coord{{Row: r, Col: c}})}, nil
}

// ToggleFlag flips the flag on a hidden cell. Revealed cells are ignored.
func (b *Board) ToggleFlag(r, c int) (Change, error) {
	if err := b.check(r, c); err != nil {
		return Change{}, err
	}
	cell := b.at(r, c)
	if cell.Revealed {
		return Change{}, nil
	}
	cell.Flagged = !cell.Flagged
	delta := 1
	if cell.Flagged {
		delta = -1
	}
	return Change{Cells: []Coord{{Row: r, Col: c}}, FlagDelta: delta}, nil
}

// Chord opens every unmined, unflagged, unrevealed neighbour of a revealed
// number once the number of flagged neighbours equals it. Flags are trusted
// as placed: a mismatch does nothing, and a mined neighbour is never opened.
func (b *Board) Chord(r, c int) (Change, error) {
	if err := b.check(r, c); err != nil {
		return Change{}, err
	}
	cell := b.at(r, c)
	if !cell.Revealed || cell.Adjacent == 0 {
		return Change{}, nil
	}
	flags := 0
	var seeds []Coord
	b.around(r, c, func(nr, nc int) {
		n := b.at(nr, nc)
		switch {
		case n.Flagged:
			flags++
		case !n.Revealed && !n.Mine:
			seeds = append(seeds, Coord{Row: nr, Col: nc})
		}
	})
	if flags != cell.Adjacent {
		return Change{}, nil
	}
	return Change{Cells: b.expand(seeds)}, nil
}

// expand opens every seed and floods outward from each zero cell opened.
// A cell is enqueued at most once; mines, flags and open cells are skipped.
func (b *Board) expand(seeds []Coord) []Coord {
	visited := make([]bool, len(b.cells))
	queue := make([]int, 0, len(seeds))
	push := func(r, c int) {
		i := b.index(r, c)
		if visited[i] {
			return
		}
		n := &b.cells[i]
		if n.Mine || n.Flagged || n.Revealed {
			return
		}
		visited[i] = true
		queue = append(queue, i)
	}
	for _, s := range seeds {
		push(s.Row, s.Col)
	}

	var opened []Coord
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		b.cells[i].Revealed = true
		at := b.coord(i)
		opened = append(opened, at)
		if b.cells[i].Adjacent == 0 {
			b.around(at.Row, at.Col, push)
		}
	}
	return opened
}

// revealForLoss opens every cell except correctly flagged mines. A flag on
// a safe cell is cleared and marked WrongFlag before the cell is opened.
func (b *Board) revealForLoss() []Coord {
	var changed []Coord
	for i := range b.cells {
		n := &b.cells[i]
		if n.Revealed {
			continue
		}
		if n.Flagged {
			if n.Mine {
				continue
			}
			n.Flagged, n.WrongFlag = false, true
		}
		n.Revealed = true
		changed = append(changed, b.coord(i))
	}
	return changed
}

// hiddenCells lists cells that are neither revealed nor flagged.
func (b *Board) hiddenCells() []Coord {
	var out []Coord
	for i := range b.cells {
		if !b.cells[i].Revealed && !b.cells[i].Flagged {
			out = append(out, b.coord(i))
		}
	}
	return out
}
