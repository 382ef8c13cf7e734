// internal/game/types.go
//
// Core type definitions for the Minesweeper engine.
// Defines:
//   - Coord: a (row, col) address on a board.
//   - Cell: per-cell state owned by a Board.
//   - Status: session lifecycle state (ready/playing/lost/won).
//   - Event: what an action changed, returned to the presentation layer.
//   - Sentinel errors shared by the package.

package game

import "errors"

var (
	// ErrOutOfRange is returned for coordinates outside the board.
	ErrOutOfRange = errors.New("coordinates out of range")
	// ErrInfeasiblePlacement is returned when the mines cannot fit outside the safe zone.
	ErrInfeasiblePlacement = errors.New("infeasible mine placement")
	// ErrUnknownLevel is returned for a level index with no preset.
	ErrUnknownLevel = errors.New("unknown level")
)

// Coord addresses a cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell holds the state of a single square.
//
// Revealed and Flagged are mutually exclusive. Detonated implies Mine and Revealed.
type Cell struct {
	Mine      bool // holds a mine
	Adjacent  int  // mined neighbours, 0..8
	Revealed  bool // opened by the player (or by the loss reveal)
	Flagged   bool // flagged by the player or by the assisted win
	Detonated bool // the mine that ended the game
	WrongFlag bool // was flagged but held no mine; set on loss only
}

// Status is the coarse session state.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPlaying Status = "playing"
	StatusLost    Status = "lost"
	StatusWon     Status = "won"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool { return s == StatusLost || s == StatusWon }

// EventKind names the notifications emitted by an action.
type EventKind string

const (
	EventCellsChanged     EventKind = "cells_changed"
	EventFlagCountChanged EventKind = "flag_count_changed"
	EventGameLost         EventKind = "game_lost"
	EventGameWon          EventKind = "game_won"
	EventNewRecord        EventKind = "new_record"
)

// Event is one notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind `json:"kind"`
	Cells   []Coord   `json:"cells,omitempty"`   // cells_changed
	Delta   int       `json:"delta,omitempty"`   // flag_count_changed: change in flags remaining
	Seconds int       `json:"seconds,omitempty"` // game_won, new_record
}

// Result is returned by every session action.
type Result struct {
	Snapshot Snapshot `json:"snapshot"`
	Events   []Event  `json:"events"`
}
