// internal/game/levels.go
//
// Level presets (Easy 8x8/10, Medium 16x16/40, Hard 24x24/99) and the
// record-store key for each. Presets are validated at start-up so an
// infeasible preset fails before any game is played.

package game

import "fmt"

// Level is a board preset: a square of Size×Size cells holding Mines mines.
type Level struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Mines int    `json:"mines"`
}

// Levels are the presets, addressed by index.
var Levels = [...]Level{
	{Name: "Easy", Size: 8, Mines: 10},
	{Name: "Medium", Size: 16, Mines: 40},
	{Name: "Hard", Size: 24, Mines: 99},
}

// LevelAt returns the preset at index i.
func LevelAt(i int) (Level, error) {
	if i < 0 || i >= len(Levels) {
		return Level{}, fmt.Errorf("%w: %d", ErrUnknownLevel, i)
	}
	return Levels[i], nil
}

// Key identifies the level in the record store, e.g. "8x8_10mines".
func (l Level) Key() string {
	return fmt.Sprintf("%dx%d_%dmines", l.Size, l.Size, l.Mines)
}

// Validate checks that the mines fit for any first click: the largest
// safe zone (an interior cell and its 8 neighbours) must still leave a
// free cell.
func (l Level) Validate() error {
	if l.Size <= 0 || l.Mines < 0 {
		return fmt.Errorf("level %q: invalid size %d or mines %d", l.Name, l.Size, l.Mines)
	}
	side := min(l.Size, 3)
	if l.Mines >= l.Size*l.Size-side*side {
		return fmt.Errorf("level %q: %w: %d mines on %dx%d", l.Name, ErrInfeasiblePlacement, l.Mines, l.Size, l.Size)
	}
	return nil
}

// ValidateLevels checks every preset. Call it at start-up.
func ValidateLevels() error {
	for _, l := range Levels {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}
