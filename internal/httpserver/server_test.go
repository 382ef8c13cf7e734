package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/records"
	"github.com/robalobadob/minesweeper/internal/store"
)

type testServer struct {
	*Server
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return ts.now }
	ts.Server = New(store.NewMemoryStore(), records.NewMemory(), Config{
		JWTSecret:   "test_secret",
		DailySalt:   "test_salt",
		GameOptions: []game.Option{game.WithSeed(42), game.WithClock(clock)},
		Now:         clock,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (ts *testServer) newGame(t *testing.T, body any) newGameRes {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/game/new", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /game/new = %d %s", rec.Code, rec.Body.String())
	}
	return decode[newGameRes](t, rec)
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec)["error"]; got != code {
		t.Fatalf("error = %q, want %q", got, code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Fatalf("GET /health = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
	expectError(t, ts.do(t, http.MethodGet, "/nope", "", nil), http.StatusNotFound, "not_found")
}

func TestNewGameThenReveal(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)
	if g.Token == "" || g.GameID == "" || g.Snapshot.Status != game.StatusReady || g.Snapshot.Size != 8 {
		t.Fatalf("new game = %+v", g)
	}

	rec := ts.do(t, http.MethodPost, "/game/reveal", g.Token, cellReq{Row: 3, Col: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("reveal = %d %s", rec.Code, rec.Body.String())
	}
	res := decode[game.Result](t, rec)
	if res.Snapshot.Status != game.StatusPlaying {
		t.Fatalf("status = %s", res.Snapshot.Status)
	}
	if cell := res.Snapshot.Cells[3][3]; cell.State != game.ViewOpened || cell.Count != 0 {
		t.Fatalf("first click cell = %+v", cell)
	}
	if len(res.Events) == 0 || res.Events[0].Kind != game.EventCellsChanged {
		t.Fatalf("events = %+v", res.Events)
	}

	rec = ts.do(t, http.MethodGet, "/game/state", g.Token, nil)
	state := decode[map[string]game.Snapshot](t, rec)["snapshot"]
	if !reflect.DeepEqual(state.Cells, res.Snapshot.Cells) {
		t.Fatal("state does not match the last action's snapshot")
	}
}

func TestGameRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)

	expectError(t, ts.do(t, http.MethodGet, "/game/state", "", nil), http.StatusUnauthorized, "unauthorized")
	expectError(t, ts.do(t, http.MethodGet, "/game/state", "garbage", nil), http.StatusUnauthorized, "invalid_token")

	forged, _, err := newTokens("other_secret", time.Hour, time.Now).issue(g.GameID, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, ts.do(t, http.MethodGet, "/game/state", forged, nil), http.StatusUnauthorized, "invalid_token")

	ts.now = ts.now.Add(25 * time.Hour)
	expectError(t, ts.do(t, http.MethodGet, "/game/state", g.Token, nil), http.StatusUnauthorized, "invalid_token")
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)

	expectError(t, ts.do(t, http.MethodPost, "/game/new", "", newGameReq{Level: 9}), http.StatusBadRequest, "unknown_level")
	expectError(t, ts.do(t, http.MethodPost, "/game/new", "", "{"), http.StatusBadRequest, "bad_json")
	expectError(t, ts.do(t, http.MethodPost, "/game/reveal", g.Token, "nope"), http.StatusBadRequest, "bad_json")
	expectError(t, ts.do(t, http.MethodPost, "/game/flag", g.Token, cellReq{Row: 8, Col: 0}), http.StatusBadRequest, "out_of_range")
	expectError(t, ts.do(t, http.MethodPost, "/game/level", g.Token, newGameReq{Level: -1}), http.StatusBadRequest, "unknown_level")

	// The token outlives a swept session.
	ts.store.Delete(context.Background(), g.GameID)
	expectError(t, ts.do(t, http.MethodGet, "/game/tick", g.Token, nil), http.StatusNotFound, "not_found")
}

func TestFlagBeforeFirstReveal(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)
	res := decode[game.Result](t, ts.do(t, http.MethodPost, "/game/flag", g.Token, cellReq{Row: 0, Col: 0}))
	if res.Snapshot.FlagsRemaining != 9 || res.Snapshot.Cells[0][0].State != game.ViewFlagged {
		t.Fatalf("snapshot after flag = %+v", res.Snapshot.Cells[0][0])
	}
	if len(res.Events) != 2 || res.Events[1].Kind != game.EventFlagCountChanged || res.Events[1].Delta != -1 {
		t.Fatalf("events = %+v", res.Events)
	}
}

func TestTickAndReset(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)

	if tick := decode[tickRes](t, ts.do(t, http.MethodGet, "/game/tick", g.Token, nil)); tick.Playing {
		t.Fatalf("tick before first reveal = %+v", tick)
	}
	ts.do(t, http.MethodPost, "/game/reveal", g.Token, cellReq{Row: 3, Col: 3})
	ts.now = ts.now.Add(4500 * time.Millisecond)
	if tick := decode[tickRes](t, ts.do(t, http.MethodGet, "/game/tick", g.Token, nil)); !tick.Playing || tick.Elapsed != 4 {
		t.Fatalf("tick while playing = %+v", tick)
	}

	res := decode[game.Result](t, ts.do(t, http.MethodPost, "/game/reset", g.Token, nil))
	if res.Snapshot.Status != game.StatusLost || res.Events[len(res.Events)-1].Kind != game.EventGameLost {
		t.Fatalf("give up = %s %+v", res.Snapshot.Status, res.Events)
	}
	res = decode[game.Result](t, ts.do(t, http.MethodPost, "/game/reset", g.Token, nil))
	if res.Snapshot.Status != game.StatusReady || res.Snapshot.Elapsed != 0 {
		t.Fatalf("reset = %s elapsed %d", res.Snapshot.Status, res.Snapshot.Elapsed)
	}
}

func TestChangeLevelIssuesNewSession(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t, nil)

	rec := ts.do(t, http.MethodPost, "/game/level", g.Token, newGameReq{Level: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("change level = %d %s", rec.Code, rec.Body.String())
	}
	next := decode[newGameRes](t, rec)
	if next.GameID == g.GameID || next.Snapshot.Size != 16 || next.Snapshot.Mines != 40 {
		t.Fatalf("new session = %s %dx%d/%d", next.GameID, next.Snapshot.Size, next.Snapshot.Size, next.Snapshot.Mines)
	}
	expectError(t, ts.do(t, http.MethodGet, "/game/state", g.Token, nil), http.StatusNotFound, "not_found")
	if rec := ts.do(t, http.MethodGet, "/game/state", next.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("state with new token = %d", rec.Code)
	}
}

func TestDailyBoardIsShared(t *testing.T) {
	ts := newTestServer(t)
	reveal := func(g newGameRes) [][]game.CellView {
		res := decode[game.Result](t, ts.do(t, http.MethodPost, "/game/reveal", g.Token, cellReq{Row: 0, Col: 0}))
		return res.Snapshot.Cells
	}
	a := reveal(ts.newGame(t, newGameReq{Level: 0, Daily: true}))
	b := reveal(ts.newGame(t, newGameReq{Level: 0, Daily: true}))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two daily boards on the same day differ")
	}

	ts.now = ts.now.Add(24 * time.Hour)
	c := reveal(ts.newGame(t, newGameReq{Level: 0, Daily: true}))
	d := reveal(ts.newGame(t, newGameReq{Level: 0, Daily: true}))
	if !reflect.DeepEqual(c, d) {
		t.Fatal("two daily boards on the next day differ")
	}
}

func TestRecordsRoutes(t *testing.T) {
	ts := newTestServer(t)
	if err := ts.records.Put(context.Background(), "8x8_10mines", 42); err != nil {
		t.Fatal(err)
	}

	all := decode[map[string]int](t, ts.do(t, http.MethodGet, "/records", "", nil))
	if !reflect.DeepEqual(all, map[string]int{"8x8_10mines": 42}) {
		t.Fatalf("GET /records = %v", all)
	}

	one := decode[recordRes](t, ts.do(t, http.MethodGet, "/records/0", "", nil))
	if one.Key != "8x8_10mines" || one.Best == nil || *one.Best != 42 {
		t.Fatalf("GET /records/0 = %+v", one)
	}
	if none := decode[recordRes](t, ts.do(t, http.MethodGet, "/records/2", "", nil)); none.Best != nil {
		t.Fatalf("GET /records/2 best = %d", *none.Best)
	}
	expectError(t, ts.do(t, http.MethodGet, "/records/7", "", nil), http.StatusBadRequest, "unknown_level")
	expectError(t, ts.do(t, http.MethodGet, "/records/easy", "", nil), http.StatusBadRequest, "unknown_level")

	levels := decode[struct {
		Levels []levelRes `json:"levels"`
		Daily  string     `json:"daily"`
	}](t, ts.do(t, http.MethodGet, "/levels", "", nil))
	if len(levels.Levels) != 3 || levels.Daily != "2024-03-01" {
		t.Fatalf("GET /levels = %+v", levels)
	}
	if b := levels.Levels[0].Best; b == nil || *b != 42 || levels.Levels[1].Best != nil {
		t.Fatalf("level bests = %+v", levels.Levels)
	}

	// A new session at the level sees the stored best.
	if g := ts.newGame(t, nil); g.Snapshot.Best == nil || *g.Snapshot.Best != 42 {
		t.Fatalf("new game best = %v", g.Snapshot.Best)
	}
}

func TestLeavingDailyDropsDateSeed(t *testing.T) {
	ts := newTestServer(t)
	firstClick := func(token string) [][]game.CellView {
		t.Helper()
		rec := ts.do(t, http.MethodPost, "/game/reveal", token, cellReq{Row: 0, Col: 0})
		if rec.Code != http.StatusOK {
			t.Fatalf("reveal = %d %s", rec.Code, rec.Body.String())
		}
		return decode[game.Result](t, rec).Snapshot.Cells
	}

	dailyBoard := firstClick(ts.newGame(t, newGameReq{Level: 0, Daily: true}).Token)
	plainBoard := firstClick(ts.newGame(t, newGameReq{Level: 0}).Token)
	if reflect.DeepEqual(dailyBoard, plainBoard) {
		t.Fatal("daily and regular boards coincide; pick another seed")
	}

	g := ts.newGame(t, newGameReq{Level: 0, Daily: true})
	rec := ts.do(t, http.MethodPost, "/game/level", g.Token, newGameReq{Level: 0, Daily: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("change level = %d %s", rec.Code, rec.Body.String())
	}
	next := decode[newGameRes](t, rec)
	claims, err := ts.tokens.parse(next.Token)
	if err != nil {
		t.Fatalf("parse new token: %v", err)
	}
	if claims.Daily {
		t.Fatal("token still marks the session daily")
	}
	got := firstClick(next.Token)
	if reflect.DeepEqual(got, dailyBoard) {
		t.Fatal("regular board after leaving daily mode reuses the daily layout")
	}
	if !reflect.DeepEqual(got, plainBoard) {
		t.Fatal("regular board after leaving daily mode differs from a fresh regular board")
	}
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Start(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start after cancel = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartReportsListenError(t *testing.T) {
	ts := newTestServer(t)
	if err := ts.Start(context.Background(), "127.0.0.1:-1"); err == nil {
		t.Fatal("Start on an invalid address returned nil")
	}
}
