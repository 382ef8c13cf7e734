// internal/httpserver/routes_game.go
//
// Game endpoints:
//   - POST /game/new     → start a session (optionally today's daily board)
//   - POST /game/reveal  → open a cell
//   - POST /game/flag    → toggle a flag
//   - POST /game/chord   → open around a satisfied number
//   - POST /game/reset   → give up while playing, start over when finished
//   - POST /game/level   → replace the session with one at another level
//   - GET  /game/state   → current snapshot
//   - GET  /game/tick    → elapsed seconds for the on-screen timer

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/internal/daily"
	"github.com/robalobadob/minesweeper/internal/game"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession())
			r.Post("/reveal", s.cellAction((*game.Session).Reveal))
			r.Post("/flag", s.cellAction((*game.Session).ToggleFlag))
			r.Post("/chord", s.cellAction((*game.Session).Chord))
			r.Post("/reset", s.handleReset)
			r.Post("/level", s.handleChangeLevel)
			r.Get("/state", s.handleState)
			r.Get("/tick", s.handleTick)
		})
	})
}

// newGameReq is the payload for /game/new and /game/level.
type newGameReq struct {
	Level int  `json:"level"`
	Daily bool `json:"daily"`
}

// newGameRes is returned by /game/new and /game/level.
type newGameRes struct {
	GameID    string        `json:"gameId"`
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expiresAt"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

// cellReq addresses a cell.
type cellReq struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// decodeBody decodes JSON into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// newSession builds a session at level, seeded from the date when daily.
func (s *Server) newSession(ctx context.Context, level int, isDaily bool) (*game.Session, error) {
	opts := append([]game.Option{}, s.cfg.GameOptions...)
	if s.records != nil {
		opts = append(opts, game.WithRecords(s.records))
	}
	if isDaily {
		lvl, err := game.LevelAt(level)
		if err != nil {
			return nil, err
		}
		opts = append(opts, game.WithSeed(daily.Seed(s.cfg.Now(), s.cfg.DailySalt, lvl.Key())))
	}
	return game.NewSession(ctx, level, opts...)
}

// register stores the session and answers with a fresh token.
func (s *Server) register(w http.ResponseWriter, r *http.Request, sess *game.Session, isDaily bool) {
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	snap := sess.Snapshot()
	tok, exp, err := s.tokens.issue(sess.ID, snap.Level, isDaily)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	log.Debug().Str("game", sess.ID).Str("level_key", snap.LevelKey).Bool("daily", isDaily).Msg("game started")
	writeJSON(w, newGameRes{GameID: sess.ID, Token: tok, ExpiresAt: exp.Unix(), Snapshot: snap})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.newSession(r.Context(), req.Level, req.Daily)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	s.register(w, r, sess, req.Daily)
}

// handleChangeLevel discards the caller's session and starts a new one. A
// daily session stays daily unless the body says otherwise; leaving daily
// mode drops the date seed.
func (s *Server) handleChangeLevel(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r.Context())
	req := newGameReq{Daily: claims.Daily}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	var next *game.Session
	err := s.store.Update(r.Context(), claims.GameID, func(cur *game.Session) error {
		var err error
		if claims.Daily || req.Daily {
			// A daily session carries its date seed in its options.
			next, err = s.newSession(r.Context(), req.Level, req.Daily)
		} else {
			next, err = cur.ChangeLevel(r.Context(), req.Level)
		}
		return err
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	_ = s.store.Delete(r.Context(), claims.GameID)
	s.register(w, r, next, req.Daily)
}

// cellAction adapts a session method taking a coordinate into a handler.
func (s *Server) cellAction(act func(*game.Session, context.Context, int, int) (game.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cellReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
		var res game.Result
		err := s.store.Update(r.Context(), sessionFrom(r.Context()).GameID, func(sess *game.Session) error {
			var err error
			res, err = act(sess, r.Context(), req.Row, req.Col)
			return err
		})
		if err != nil {
			writeGameError(w, r, err)
			return
		}
		writeJSON(w, res)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var res game.Result
	err := s.store.Update(r.Context(), sessionFrom(r.Context()).GameID, func(sess *game.Session) error {
		var err error
		res, err = sess.Reset(r.Context())
		return err
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var snap game.Snapshot
	err := s.store.Update(r.Context(), sessionFrom(r.Context()).GameID, func(sess *game.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"snapshot": snap})
}

// tickRes is returned by /game/tick.
type tickRes struct {
	Elapsed int  `json:"elapsed"`
	Playing bool `json:"playing"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var res tickRes
	err := s.store.Update(r.Context(), sessionFrom(r.Context()).GameID, func(sess *game.Session) error {
		res.Elapsed, res.Playing = sess.Tick()
		return nil
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, res)
}
