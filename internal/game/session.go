// internal/game/session.go
//
// Game session: one player working through one board.
// Responsibilities:
//   - Status transitions: ready → playing → lost/won, and back via Reset.
//   - Deferred mine placement on the first reveal (first click is safe).
//   - Win evaluation after every action, including the assisted win that
//     auto-flags the remaining hidden mines.
//   - Elapsed time and best-time lookup/persistence per level.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialize actions
//     (see internal/store).
//   - Record store failures are logged and never interrupt play.

package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Records is the best-time store a session reads and updates.
type Records interface {
	Best(ctx context.Context, key string) (seconds int, ok bool, err error)
	Put(ctx context.Context, key string, seconds int) error
}

// Option configures a new Session.
type Option func(*Session)

// WithSeed fixes the mine distribution.
func WithSeed(seed int64) Option { return func(s *Session) { s.seed = seed } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithRecords attaches a best-time store.
func WithRecords(r Records) Option { return func(s *Session) { s.records = r } }

// Session holds the state of a single game.
type Session struct {
	ID string

	level      Level
	levelIndex int
	board      *Board
	status     Status
	started    time.Time // set on the first reveal
	elapsed    int       // frozen once finished

	best    int
	hasBest bool

	seed    int64
	rng     *rand.Rand
	now     func() time.Time
	records Records
	opts    []Option
}

// NewSession starts a ready session at the preset levelIndex and reads the
// level's best time.
func NewSession(ctx context.Context, levelIndex int, opts ...Option) (*Session, error) {
	lvl, err := LevelAt(levelIndex)
	if err != nil {
		return nil, err
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		ID:         uuid.NewString(),
		level:      lvl,
		levelIndex: levelIndex,
		seed:       time.Now().UnixNano(),
		now:        time.Now,
		opts:       opts,
	}
	for _, o := range opts {
		o(s)
	}
	s.rng = rand.New(rand.NewSource(s.seed))
	if err := s.reset(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ChangeLevel discards this session and returns a fresh ready one at
// levelIndex, configured with the same options.
func (s *Session) ChangeLevel(ctx context.Context, levelIndex int) (*Session, error) {
	return NewSession(ctx, levelIndex, s.opts...)
}

// BestTime reads the stored best time for the preset levelIndex.
func BestTime(ctx context.Context, records Records, levelIndex int) (int, bool, error) {
	lvl, err := LevelAt(levelIndex)
	if err != nil {
		return 0, false, err
	}
	if records == nil {
		return 0, false, nil
	}
	return records.Best(ctx, lvl.Key())
}

// Status reports the current session status.
func (s *Session) Status() Status { return s.status }

// Level returns the session's preset.
func (s *Session) Level() Level { return s.level }

// FlagsRemaining is the level's mine count minus the flags on the board.
func (s *Session) FlagsRemaining() int {
	_, flagged, _ := s.board.Counts()
	return s.board.Mines - flagged
}

// Reveal opens (r, c). The first reveal places the mines around it.
func (s *Session) Reveal(ctx context.Context, r, c int) (Result, error) {
	if err := s.board.check(r, c); err != nil {
		return Result{}, err
	}
	if s.status.Finished() {
		return s.result(nil), nil
	}
	if s.status == StatusReady {
		if s.board.at(r, c).Flagged {
			return s.result(nil), nil
		}
		if err := s.start(r, c); err != nil {
			return Result{}, err
		}
	}
	ch, err := s.board.Reveal(r, c)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, ch), nil
}

// ToggleFlag flips a flag. Flags may be placed before the first reveal.
func (s *Session) ToggleFlag(ctx context.Context, r, c int) (Result, error) {
	if err := s.board.check(r, c); err != nil {
		return Result{}, err
	}
	if s.status.Finished() {
		return s.result(nil), nil
	}
	ch, err := s.board.ToggleFlag(r, c)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, ch), nil
}

// Chord opens the safe neighbours of a satisfied number.
func (s *Session) Chord(ctx context.Context, r, c int) (Result, error) {
	if err := s.board.check(r, c); err != nil {
		return Result{}, err
	}
	if s.status != StatusPlaying {
		return s.result(nil), nil
	}
	ch, err := s.board.Chord(r, c)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, ch), nil
}

// Reset is the give-up/reset button: a playing game is conceded (lost
// without a detonation), a finished game starts over at the same level,
// and a ready game is left alone.
func (s *Session) Reset(ctx context.Context) (Result, error) {
	switch s.status {
	case StatusPlaying:
		return s.result(s.lose()), nil
	case StatusLost, StatusWon:
		if err := s.reset(ctx); err != nil {
			return Result{}, err
		}
	}
	return s.result(nil), nil
}

// Tick returns the elapsed seconds and true while playing. It never
// changes state.
func (s *Session) Tick() (int, bool) {
	if s.status != StatusPlaying {
		return 0, false
	}
	return s.elapsedNow(), true
}

// reset installs a fresh mineless board and re-reads the best time.
func (s *Session) reset(ctx context.Context) error {
	b, err := NewBoard(s.level.Size, s.level.Mines)
	if err != nil {
		return err
	}
	s.board = b
	s.status = StatusReady
	s.started = time.Time{}
	s.elapsed = 0
	s.loadBest(ctx)
	return nil
}

func (s *Session) loadBest(ctx context.Context) {
	s.best, s.hasBest = 0, false
	if s.records == nil {
		return
	}
	best, ok, err := s.records.Best(ctx, s.level.Key())
	if err != nil {
		log.Warn().Err(err).Str("level_key", s.level.Key()).Msg("read best time")
		return
	}
	s.best, s.hasBest = best, ok
}

// refreshBest re-reads the stored best time, keeping the cached one when
// the store fails or has none.
func (s *Session) refreshBest(ctx context.Context) {
	if s.records == nil {
		return
	}
	best, ok, err := s.records.Best(ctx, s.level.Key())
	if err != nil {
		log.Warn().Err(err).Str("level_key", s.level.Key()).Msg("re-read best time")
		return
	}
	if ok {
		s.best, s.hasBest = best, true
	}
}

// start performs the deferred placement and starts the clock.
func (s *Session) start(r, c int) error {
	if err := s.board.PlaceMines(s.rng, &Coord{Row: r, Col: c}); err != nil {
		return err
	}
	s.status = StatusPlaying
	s.started = s.now()
	log.Debug().Str("game", s.ID).Str("level_key", s.level.Key()).Int("row", r).Int("col", c).Msg("mines placed")
	return nil
}

// apply turns a board change into events and re-evaluates the outcome.
func (s *Session) apply(ctx context.Context, ch Change) Result {
	var events []Event
	if len(ch.Cells) > 0 {
		events = append(events, Event{Kind: EventCellsChanged, Cells: ch.Cells})
	}
	if ch.FlagDelta != 0 {
		events = append(events, Event{Kind: EventFlagCountChanged, Delta: ch.FlagDelta})
	}
	if s.status != StatusPlaying {
		return s.result(events)
	}
	if ch.Detonated {
		return s.result(append(events, s.lose()...))
	}
	return s.result(append(events, s.checkWin(ctx)...))
}

// lose ends the game and opens the board, keeping correct flags.
func (s *Session) lose() []Event {
	s.elapsed = s.elapsedNow()
	s.status = StatusLost
	before := s.FlagsRemaining()
	var events []Event
	if cells := s.board.revealForLoss(); len(cells) > 0 {
		events = append(events, Event{Kind: EventCellsChanged, Cells: cells})
	}
	if d := s.FlagsRemaining() - before; d != 0 {
		events = append(events, Event{Kind: EventFlagCountChanged, Delta: d})
	}
	log.Debug().Str("game", s.ID).Int("elapsed", s.elapsed).Msg("game lost")
	return append(events, Event{Kind: EventGameLost})
}

type winKind int

const (
	notWon winKind = iota
	wonCleared
	wonAssisted
)

// evaluateWin reports whether the board is won without changing it.
// wonCleared: no flags left and every cell revealed or flagged.
// wonAssisted: the hidden cells are exactly the unflagged mines; they are
// returned so the caller can flag them.
func (s *Session) evaluateWin() (winKind, []Coord) {
	remaining := s.FlagsRemaining()
	hidden := s.board.hiddenCells()
	if remaining == 0 && len(hidden) == 0 {
		return wonCleared, nil
	}
	if len(hidden) != remaining {
		return notWon, nil
	}
	for _, h := range hidden {
		if !s.board.at(h.Row, h.Col).Mine {
			return notWon, nil
		}
	}
	return wonAssisted, hidden
}

// autoFlag flags the given hidden cells.
func (s *Session) autoFlag(cells []Coord) []Event {
	for _, c := range cells {
		s.board.at(c.Row, c.Col).Flagged = true
	}
	return []Event{
		{Kind: EventCellsChanged, Cells: cells},
		{Kind: EventFlagCountChanged, Delta: -len(cells)},
	}
}

func (s *Session) checkWin(ctx context.Context) []Event {
	kind, hidden := s.evaluateWin()
	if kind == notWon {
		return nil
	}
	var events []Event
	if kind == wonAssisted {
		events = s.autoFlag(hidden)
	}
	return append(events, s.win(ctx)...)
}

// win freezes the clock and stores a new best time if it beats the old one.
func (s *Session) win(ctx context.Context) []Event {
	s.elapsed = s.elapsedNow()
	s.status = StatusWon
	events := []Event{{Kind: EventGameWon, Seconds: s.elapsed}}

	// Other sessions may have set a record since this one started.
	s.refreshBest(ctx)
	if s.hasBest && s.elapsed >= s.best {
		return events
	}
	s.best, s.hasBest = s.elapsed, true
	key := s.level.Key()
	if s.records != nil {
		if err := s.records.Put(ctx, key, s.elapsed); err != nil {
			log.Warn().Err(err).Str("level_key", key).Int("seconds", s.elapsed).Msg("save best time")
		}
	}
	log.Info().Str("game", s.ID).Str("level_key", key).Int("seconds", s.elapsed).Msg("new best time")
	return append(events, Event{Kind: EventNewRecord, Seconds: s.elapsed})
}

// elapsedNow is whole seconds since the first reveal, frozen once finished.
func (s *Session) elapsedNow() int {
	switch s.status {
	case StatusPlaying:
		return int(s.now().Sub(s.started) / time.Second)
	case StatusLost, StatusWon:
		return s.elapsed
	}
	return 0
}

func (s *Session) result(events []Event) Result {
	return Result{Snapshot: s.Snapshot(), Events: events}
}
