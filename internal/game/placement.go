// internal/game/placement.go
//
// Mine placement.
// Mines are placed on the first reveal, never before it, so the first
// click and its neighbours are always safe. Placement is rejection
// sampling over a []bool exclusion set driven by the session's rng.

package game

import (
	"fmt"
	"math/rand"
)

// PlaceMines distributes b.Mines mines uniformly at random by rejection
// sampling. Any previous placement is discarded first.
//
// When safe is non-nil, that cell and its neighbourhood never receive a
// mine. Placement fails with ErrInfeasiblePlacement unless at least one
// free cell would remain outside the safe zone.
func (b *Board) PlaceMines(rng *rand.Rand, safe *Coord) error {
	excluded := make([]bool, len(b.cells))
	zone := 0
	if safe != nil {
		if err := b.check(safe.Row, safe.Col); err != nil {
			return err
		}
		excluded[b.index(safe.Row, safe.Col)] = true
		zone++
		b.around(safe.Row, safe.Col, func(nr, nc int) {
			excluded[b.index(nr, nc)] = true
			zone++
		})
	}
	if b.Mines >= len(b.cells)-zone {
		return fmt.Errorf("%w: %d mines on %dx%d with %d excluded cells",
			ErrInfeasiblePlacement, b.Mines, b.Width, b.Height, zone)
	}

	for i := range b.cells {
		b.cells[i].Mine = false
	}
	for placed := 0; placed < b.Mines; {
		i := rng.Intn(len(b.cells))
		if excluded[i] || b.cells[i].Mine {
			continue
		}
		b.cells[i].Mine = true
		placed++
	}
	b.placed = true
	b.ComputeAdjacency()
	return nil
}
