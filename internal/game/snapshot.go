// internal/game/snapshot.go
//
// Snapshots: the read-only view of a session returned after every action.
// Unopened cells never expose mines or counts.

package game

// Cell view states, as rendered by a front-end.
const (
	ViewHidden  = "hidden"
	ViewFlagged = "flagged"
	ViewOpened  = "opened"
)

// CellView is the presentation-safe projection of a Cell: mine and count
// details are only exposed once the cell is opened.
type CellView struct {
	State     string `json:"state"`
	Count     int    `json:"count,omitempty"`
	Mine      bool   `json:"mine,omitempty"`
	Detonated bool   `json:"detonated,omitempty"`
	WrongFlag bool   `json:"wrongFlag,omitempty"`
}

// Snapshot is the full session state handed back after every action.
type Snapshot struct {
	ID             string       `json:"id"`
	Level          int          `json:"level"`
	LevelKey       string       `json:"levelKey"`
	Size           int          `json:"size"`
	Mines          int          `json:"mines"`
	Status         Status       `json:"status"`
	FlagsRemaining int          `json:"flagsRemaining"`
	Elapsed        int          `json:"elapsed"`
	Best           *int         `json:"best,omitempty"`
	Cells          [][]CellView `json:"cells"`
}

func viewOf(c Cell) CellView {
	switch {
	case c.Revealed:
		v := CellView{State: ViewOpened, Mine: c.Mine, Detonated: c.Detonated, WrongFlag: c.WrongFlag}
		if !c.Mine {
			v.Count = c.Adjacent
		}
		return v
	case c.Flagged:
		return CellView{State: ViewFlagged}
	default:
		return CellView{State: ViewHidden}
	}
}

// Snapshot projects the current session state.
func (s *Session) Snapshot() Snapshot {
	b := s.board
	grid := make([][]CellView, b.Height)
	for r := range grid {
		grid[r] = make([]CellView, b.Width)
		for c := range grid[r] {
			grid[r][c] = viewOf(*b.at(r, c))
		}
	}
	snap := Snapshot{
		ID:             s.ID,
		Level:          s.levelIndex,
		LevelKey:       s.level.Key(),
		Size:           s.level.Size,
		Mines:          s.level.Mines,
		Status:         s.status,
		FlagsRemaining: s.FlagsRemaining(),
		Elapsed:        s.elapsedNow(),
		Cells:          grid,
	}
	if s.hasBest {
		best := s.best
		snap.Best = &best
	}
	return snap
}
