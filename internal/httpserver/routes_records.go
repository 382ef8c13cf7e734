// internal/httpserver/routes_records.go
//
// Read-only views of the level presets and best times:
//   - GET /levels          → presets with keys and best times
//   - GET /records         → every recorded best time by level key
//   - GET /records/{level} → best time for one preset index
//
// Record store failures are logged; /levels still answers without times.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/internal/daily"
	"github.com/robalobadob/minesweeper/internal/game"
)

// mountRecords registers /levels and /records.
func (s *Server) mountRecords(r chi.Router) {
	r.Get("/levels", s.handleLevels)
	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.handleAllRecords)
		r.Get("/{level}", s.handleRecord)
	})
}

// levelRes describes one preset.
type levelRes struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Mines int    `json:"mines"`
	Key   string `json:"key"`
	Best  *int   `json:"best,omitempty"`
}

// recordRes is returned by /records/{level}.
type recordRes struct {
	Level int    `json:"level"`
	Key   string `json:"key"`
	Best  *int   `json:"best,omitempty"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	out := make([]levelRes, 0, len(game.Levels))
	for i, lvl := range game.Levels {
		lr := levelRes{Index: i, Name: lvl.Name, Size: lvl.Size, Mines: lvl.Mines, Key: lvl.Key()}
		secs, ok, err := game.BestTime(r.Context(), s.records, i)
		if err != nil {
			log.Warn().Err(err).Str("level_key", lvl.Key()).Msg("read best time")
		} else if ok {
			lr.Best = &secs
		}
		out = append(out, lr)
	}
	writeJSON(w, map[string]any{"levels": out, "daily": daily.DateKey(s.cfg.Now())})
}

func (s *Server) handleAllRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeJSON(w, map[string]int{})
		return
	}
	all, err := s.records.All(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("list best times")
		writeError(w, http.StatusServiceUnavailable, "records_unavailable")
		return
	}
	writeJSON(w, all)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_level")
		return
	}
	lvl, err := game.LevelAt(idx)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	res := recordRes{Level: idx, Key: lvl.Key()}
	secs, ok, err := game.BestTime(r.Context(), s.records, idx)
	if err != nil {
		log.Warn().Err(err).Str("level_key", lvl.Key()).Msg("read best time")
		writeError(w, http.StatusServiceUnavailable, "records_unavailable")
		return
	}
	if ok {
		res.Best = &secs
	}
	writeJSON(w, res)
}
