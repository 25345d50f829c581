// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/server/netsvr"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

type testSvr struct {
	h   http.Handler
	hub *reelkit.SessionHub
}

func newTestSvr(t *testing.T) *testSvr {
	t.Helper()
	rk, err := reelkit.New(reelkit.Configs(demo_configs.FS), nil)
	if err != nil {
		t.Fatalf("new reelkit: %v", err)
	}
	if err := rk.RegisterAll(); err != nil {
		t.Fatalf("register: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{
		Log:     slog.New(slog.DiscardHandler),
		Addr:    ":0",
		Reelkit: rk,
	}
	if err := sCfg.Vaild(); err != nil {
		t.Fatalf("vaild: %v", err)
	}
	hub, err := rk.BuildHub(16, sCfg.SessionOptions())
	if err != nil {
		t.Fatalf("build hub: %v", err)
	}
	t.Cleanup(hub.Close)

	svr := netsvr.NewChiServer(sCfg.Addr)
	if err := RegisterRoutes(svr, sCfg, hub); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return &testSvr{h: svr, hub: hub}
}

func (ts *testSvr) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, w.Body.String())
	}
	return v
}

func expect(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status: got %d want %d (%s)", w.Code, code, w.Body.String())
	}
}

type economy struct {
	Balance decimal.Decimal `json:"balance"`
	Bet     decimal.Decimal `json:"bet"`
	Spins   int             `json:"spins"`
}

type sessionResp struct {
	ID       string  `json:"id"`
	Theme    string  `json:"theme"`
	Phase    string  `json:"phase"`
	Economy  economy `json:"economy"`
	Turbo    bool    `json:"turbo"`
	AutoSpin int     `json:"autospin_remaining"`
}

type roundResp struct {
	ID       string          `json:"id"`
	Matrix   [][]string      `json:"matrix"`
	TotalWin decimal.Decimal `json:"total_win"`
	Economy  economy         `json:"economy"`
}

func (ts *testSvr) create(t *testing.T, body string) sessionResp {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/sessions", body)
	expect(t, w, http.StatusCreated)
	return decode[sessionResp](t, w)
}

func TestThemes(t *testing.T) {
	ts := newTestSvr(t)
	w := ts.do(t, http.MethodGet, "/v1/themes", "")
	expect(t, w, http.StatusOK)
	type summary struct {
		TID        uint64 `json:"tid"`
		Name       string `json:"name"`
		HasJackpot bool   `json:"has_jackpot"`
	}
	list := decode[[]summary](t, w)
	if len(list) != 3 || list[0].Name != "fruit" || list[1].Name != "crypto" || list[2].Name != "neon" {
		t.Fatalf("themes: %+v", list)
	}
	if !list[0].HasJackpot || list[1].HasJackpot {
		t.Fatalf("jackpot flags: %+v", list)
	}

	w = ts.do(t, http.MethodGet, "/v1/themes/2", "")
	expect(t, w, http.StatusOK)
	if got := decode[summary](t, w); got.Name != "crypto" {
		t.Fatalf("theme by id: %+v", got)
	}
	expect(t, ts.do(t, http.MethodGet, "/v1/themes/nope", ""), http.StatusNotFound)
}

func TestSessionSpinAndBet(t *testing.T) {
	ts := newTestSvr(t)
	s := ts.create(t, `{"theme":"crypto","seed":7}`)
	if s.Theme != "crypto" || s.Phase != "idle" || !s.Economy.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("new session: %+v", s)
	}

	w := ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/spin", "")
	expect(t, w, http.StatusOK)
	r := decode[roundResp](t, w)
	if r.ID == "" || len(r.Matrix) != 5 || len(r.Matrix[0]) != 3 || r.Economy.Spins != 1 {
		t.Fatalf("round: %+v", r)
	}

	w = ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", `{"amount":"5000"}`)
	expect(t, w, http.StatusOK)
	type betResp struct {
		Economy economy `json:"economy"`
		Clamped bool    `json:"clamped"`
	}
	br := decode[betResp](t, w)
	if !br.Clamped || br.Economy.Bet.GreaterThan(decimal.NewFromInt(1000)) || br.Economy.Bet.GreaterThan(br.Economy.Balance) {
		t.Fatalf("bet should clamp: %+v", br)
	}

	w = ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", `{"amount":"15"}`)
	expect(t, w, http.StatusOK)
	if br = decode[betResp](t, w); br.Clamped || !br.Economy.Bet.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("valid bet: %+v", br)
	}
	w = ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", `{"action":"increase"}`)
	expect(t, w, http.StatusOK)
	if br = decode[betResp](t, w); !br.Economy.Bet.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("increase by step: %+v", br)
	}

	w = ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/turbo", `{"on":true}`)
	expect(t, w, http.StatusOK)
	if got := decode[sessionResp](t, w); !got.Turbo {
		t.Fatalf("turbo not set")
	}
}

// 客戶端已斷線：這一局照樣扣款結算，回應裡帶的就是那一局
func TestSpinIgnoresCanceledRequest(t *testing.T) {
	ts := newTestSvr(t)
	s := ts.create(t, `{"theme":"fruit","seed":5}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID+"/spin", http.NoBody).WithContext(ctx)
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, r)
	expect(t, w, http.StatusOK)
	round := decode[roundResp](t, w)

	w = ts.do(t, http.MethodGet, "/v1/sessions/"+s.ID, "")
	expect(t, w, http.StatusOK)
	view := decode[sessionResp](t, w)
	if round.Economy.Spins != 1 || view.Economy.Spins != 1 || !round.Economy.Balance.Equal(view.Economy.Balance) {
		t.Fatalf("round %+v does not match session %+v", round.Economy, view.Economy)
	}
}

func TestSessionErrors(t *testing.T) {
	ts := newTestSvr(t)
	expect(t, ts.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", ""), http.StatusNotFound)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions", `{"theme":"nope"}`), http.StatusNotFound)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions", `{"theme":`), http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions", `{"theme":"fruit","coins":1}`), http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions", ""), http.StatusBadRequest)

	s := ts.create(t, `{"theme":"neon"}`)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", `{"amount":"5","action":"max"}`), http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/autospin", `{"count":0}`), http.StatusBadRequest)

	expect(t, ts.do(t, http.MethodDelete, "/v1/sessions/"+s.ID, ""), http.StatusNoContent)
	expect(t, ts.do(t, http.MethodGet, "/v1/sessions/"+s.ID, ""), http.StatusNotFound)
}

func TestAutoSpinEndpoint(t *testing.T) {
	ts := newTestSvr(t)
	s := ts.create(t, `{"theme":"neon","seed":3}`)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/autospin", `{"count":3}`), http.StatusAccepted)

	sess, err := ts.hub.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-sess.AutoSpinDone():
	case <-time.After(5 * time.Second):
		t.Fatalf("auto spin did not finish")
	}

	w := ts.do(t, http.MethodGet, "/v1/sessions/"+s.ID, "")
	expect(t, w, http.StatusOK)
	if got := decode[sessionResp](t, w); got.Economy.Spins != 3 || got.AutoSpin != 0 {
		t.Fatalf("after auto spin: %+v", got)
	}

	w = ts.do(t, http.MethodDelete, "/v1/sessions/"+s.ID+"/autospin", "")
	expect(t, w, http.StatusOK)
	type stopResp struct {
		Stopped bool `json:"stopped"`
	}
	if decode[stopResp](t, w).Stopped {
		t.Fatalf("nothing should be running")
	}
}

func TestCoreTokenReplay(t *testing.T) {
	ts := newTestSvr(t)
	s := ts.create(t, `{"theme":"crypto","seed":42}`)

	w := ts.do(t, http.MethodGet, "/v1/sessions/"+s.ID+"/core", "")
	expect(t, w, http.StatusOK)
	type coreResp struct {
		Token       string `json:"token"`
		Fingerprint string `json:"fingerprint"`
	}
	tok := decode[coreResp](t, w)
	if tok.Token == "" || len(tok.Fingerprint) != 16 {
		t.Fatalf("core token: %+v", tok)
	}

	first := decode[roundResp](t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/spin", ""))

	body, _ := json.Marshal(map[string]any{"token": tok.Token, "reset": true})
	w = ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/core", string(body))
	expect(t, w, http.StatusOK)
	if got := decode[sessionResp](t, w); got.Economy.Spins != 0 {
		t.Fatalf("reset should clear spins: %+v", got)
	}

	again := decode[roundResp](t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/spin", ""))
	if !equalMatrix(first.Matrix, again.Matrix) || !first.TotalWin.Equal(again.TotalWin) {
		t.Fatalf("replay mismatch:\n%v\n%v", first.Matrix, again.Matrix)
	}
	if !first.Economy.Balance.Equal(again.Economy.Balance) {
		t.Fatalf("replay balance mismatch: %s vs %s", first.Economy.Balance, again.Economy.Balance)
	}

	// 其他主題的 token 不可套用
	other := ts.create(t, `{"theme":"neon"}`)
	w = ts.do(t, http.MethodPost, "/v1/sessions/"+other.ID+"/core", string(body))
	expect(t, w, http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/core", `{"token":"!!"}`), http.StatusBadRequest)
}

func equalMatrix(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(a[i], ",") != strings.Join(b[i], ",") {
			return false
		}
	}
	return true
}

func TestJackpotEndpoint(t *testing.T) {
	ts := newTestSvr(t)
	w := ts.do(t, http.MethodGet, "/v1/jackpot/fruit", "")
	expect(t, w, http.StatusOK)
	type jp struct {
		Theme  string          `json:"theme"`
		Amount decimal.Decimal `json:"amount"`
		Base   decimal.Decimal `json:"base"`
	}
	got := decode[jp](t, w)
	if got.Theme != "fruit" || got.Amount.LessThan(got.Base) || !got.Base.IsPositive() {
		t.Fatalf("jackpot: %+v", got)
	}
	expect(t, ts.do(t, http.MethodGet, "/v1/jackpot/crypto", ""), http.StatusNotFound)
}

func TestJackpotStream(t *testing.T) {
	ts := newTestSvr(t)
	srv := httptest.NewServer(ts.h)
	defer srv.Close()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/v1/jackpot/fruit/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	// 第一個事件是目前金額
	buf := make([]byte, 0, 512)
	chunk := make([]byte, 256)
	for !bytes.Contains(buf, []byte("\n\n")) {
		n, err := resp.Body.Read(chunk)
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		buf = append(buf, chunk[:n]...)
	}
	if !bytes.HasPrefix(buf, []byte("event: jackpot\ndata: {")) || !bytes.Contains(buf, []byte(`"theme":"fruit"`)) {
		t.Fatalf("first event: %q", buf)
	}
}

func TestSimEndpoints(t *testing.T) {
	ts := newTestSvr(t)
	type report struct {
		Seed  int64 `json:"seed"`
		Stats struct {
			Summary struct {
				ThemeName string          `json:"ThemeName"`
				Rounds    int             `json:"Rounds"`
				TotalBet  decimal.Decimal `json:"TotalBet"`
				TotalWin  decimal.Decimal `json:"TotalWin"`
			} `json:"Summary"`
		} `json:"stats"`
		Est *json.RawMessage `json:"est"`
	}

	w := ts.do(t, http.MethodGet, "/v1/sim?theme=neon&rounds=200&seed=1", "")
	expect(t, w, http.StatusOK)
	got := decode[report](t, w)
	if got.Seed != 1 || got.Stats.Summary.Rounds != 200 || !got.Stats.Summary.TotalBet.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("sim: %+v", got.Stats.Summary)
	}

	// 同 seed 結果相同
	w = ts.do(t, http.MethodPost, "/v1/sim", `{"theme":"neon","rounds":200,"seed":1}`)
	expect(t, w, http.StatusOK)
	if again := decode[report](t, w); !again.Stats.Summary.TotalWin.Equal(got.Stats.Summary.TotalWin) {
		t.Fatalf("same seed should reproduce: %s vs %s", again.Stats.Summary.TotalWin, got.Stats.Summary.TotalWin)
	}

	w = ts.do(t, http.MethodPost, "/v1/simplayer", `{"theme":"crypto","rounds":50,"players":20,"workers":2,"seed":9}`)
	expect(t, w, http.StatusOK)
	if pr := decode[report](t, w); pr.Est == nil {
		t.Fatalf("player sim should carry estimator")
	}

	expect(t, ts.do(t, http.MethodGet, "/v1/sim?theme=neon&rounds=0", ""), http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodGet, "/v1/sim?theme=nope&rounds=10", ""), http.StatusNotFound)
	expect(t, ts.do(t, http.MethodGet, "/v1/sim?theme=neon&rounds=10&bet=5000", ""), http.StatusBadRequest)
}

func TestSimByCfg(t *testing.T) {
	ts := newTestSvr(t)
	cfg := `{
  "theme_name": "j",
  "theme_id": 9,
  "symbols": [
    {"id": "a", "weight": 3, "pays": {"3": 1, "4": 2, "5": "JACKPOT"}},
    {"id": "b", "weight": 1.5, "multiplier": 2}
  ],
  "paylines": {"lines": [[0,0,0,0,0],[1,1,1,1,1]]},
  "jackpot": {"base": 100, "increment_min": 1, "increment_max": 2, "interval_ms": 10},
  "bet": {"min": 1, "max": 5},
  "economy": {"initial_balance": 50}
}`
	w := ts.do(t, http.MethodPost, "/v1/simbycfg", `{"rounds":100,"seed":5,"cfg":`+cfg+`}`)
	expect(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"ThemeName":"j"`) {
		t.Fatalf("simbycfg: %s", w.Body.String())
	}

	// 上傳的設定有誤是呼叫端錯誤
	w = ts.do(t, http.MethodPost, "/v1/simbycfg", `{"rounds":10,"cfg":{"theme_name":"j"}}`)
	expect(t, w, http.StatusBadRequest)
	expect(t, ts.do(t, http.MethodPost, "/v1/simbycfg", `{"rounds":10}`), http.StatusBadRequest)
}

func TestStatEndpoint(t *testing.T) {
	ts := newTestSvr(t)
	body := `{"theme":"crypto","bet":"10",
"base_wins":["0","20","5","99"],
"free_wins":["0","0","30"],
"triggers":[false,false,true]}`
	w := ts.do(t, http.MethodPost, "/v1/stat", body)
	expect(t, w, http.StatusOK)
	type stat struct {
		Summary struct {
			Rounds   int             `json:"Rounds"`
			TotalWin decimal.Decimal `json:"TotalWin"`
			TotalBet decimal.Decimal `json:"TotalBet"`
			Trigger  int             `json:"Trigger"`
		} `json:"Summary"`
	}
	got := decode[stat](t, w).Summary
	if got.Rounds != 3 || !got.TotalWin.Equal(decimal.NewFromInt(55)) || !got.TotalBet.Equal(decimal.NewFromInt(30)) || got.Trigger != 1 {
		t.Fatalf("stat: %+v", got)
	}
	expect(t, ts.do(t, http.MethodPost, "/v1/stat", `{"theme":"crypto","base_wins":[],"free_wins":[],"triggers":[]}`), http.StatusBadRequest)
}

func TestMiddlewareChain(t *testing.T) {
	ts := newTestSvr(t)
	r := httptest.NewRequest(http.MethodGet, "/v1/themes", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	r.Header.Set("Origin", "https://play.example.com")
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, r)
	expect(t, w, http.StatusOK)
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response")
	}
	if w.Header().Get("X-Request-Id") == "" || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("headers: %v", w.Header())
	}
}
