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

package reelkit

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/jackpot"
	"github.com/zintix-labs/reelkit/recorder"
	"github.com/zintix-labs/reelkit/sdk/bonus"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/gen"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

const capPrepare int = 100

// DefaultRoundTime 模擬時每次 Spin 視為經過的時間，與預設自動轉間隔相同
const DefaultRoundTime = 800 * time.Millisecond

// Simulator 以大量 round 估算主題的 RTP 與玩家資金走勢。
//
// 一個 round = 一次付費 Spin + 它觸發的全部免費 Spin。
// 每個工作者有自己的盤面產生器與私有獎池，不會動到服務中的共用獎池。
// 私有獎池以模擬時鐘累加：每次 Spin 推進 RoundTime，每滿一個 interval 就 Tick 一次。
type Simulator struct {
	ThemeName string
	ThemeId   spec.TID
	eng       *Engine
	initSeed  int64
	seeds     *seedStream
	seats     []*seat // seats[i] 專屬第 i 個工作者
	roundTime time.Duration
}

// seat 一個模擬工作者
type seat struct {
	eng    *Engine
	reels  *gen.ReelGenerator
	streak int
	step   time.Duration // 每次 Spin 推進的模擬時間
	clock  time.Duration // 距離下一次 Tick 已累積的時間
}

func newSimulator(eng *Engine, seed int64) (*Simulator, error) {
	s := &Simulator{
		ThemeName: eng.Name(),
		ThemeId:   eng.ID(),
		eng:       eng,
		initSeed:  seed,
		seeds:     newSeedStream(seed),
		seats:     make([]*seat, 0, capPrepare),
		roundTime: DefaultRoundTime,
	}
	st, err := s.newSeat(seed)
	if err != nil {
		return nil, err
	}
	s.seats = append(s.seats, st)
	return s, nil
}

// NewSimulatorByJSON 以一份未註冊的主題設定（JSON）建立模擬器，調參用。
//
// 主題含 JACKPOT 時建立私有獎池，不會進入目錄。
func NewSimulatorByJSON(data []byte, seed int64) (*Simulator, error) {
	ts, err := spec.GetThemeSettingByJSON(data)
	if err != nil {
		return nil, err
	}
	var pool *jackpot.Pool
	if ts.Table.HasJackpot() {
		cf, err := core.FactoryByName(ts.RNG)
		if err != nil {
			return nil, err
		}
		pool, err = jackpot.NewPool(ts, cf.New(seed), slog.New(slog.DiscardHandler))
		if err != nil {
			return nil, err
		}
	}
	eng, err := NewEngine(ts, pool, nil)
	if err != nil {
		return nil, err
	}
	return newSimulator(eng, seed)
}

func (s *Simulator) newSeat(seed int64) (*seat, error) {
	reels, _, err := s.eng.NewReels(seed)
	if err != nil {
		return nil, err
	}
	var p *jackpot.Pool
	if s.eng.Pool() != nil {
		p, err = jackpot.NewPool(s.eng.Theme(), s.eng.cf.New(seed^0x5bd1e995), slog.New(slog.DiscardHandler))
		if err != nil {
			return nil, err
		}
	}
	return &seat{eng: s.eng.quiet(p), reels: reels}, nil
}

func (s *Simulator) Seed() int64 { return s.initSeed }

// SetRoundTime 設定每次 Spin 的模擬時間；0 代表獎池不累加
func (s *Simulator) SetRoundTime(d time.Duration) {
	s.roundTime = max(d, 0)
}

func (s *Simulator) RoundTime() time.Duration { return s.roundTime }

func (s *Simulator) prepareSeats(n int) error {
	for len(s.seats) < n {
		st, err := s.newSeat(s.seeds.next())
		if err != nil {
			return err
		}
		s.seats = append(s.seats, st)
	}
	return nil
}

// round 跑完一次付費 Spin 與它帶出的免費 Spin
func (st *seat) round(bet decimal.Decimal) recorder.Outcome {
	e := st.eng
	o := recorder.Outcome{Bet: bet, BaseWin: decimal.Zero, FreeWin: decimal.Zero}

	bs := bonus.Idle()
	st.advance()
	_, win := e.resolve(st.reels, bs, bet)
	o.BaseWin = win.TotalWin
	st.count(&o, win.TotalWin, win.IsJackpot)
	bs = e.bonus.Settle(bs, win.BonusTrigger)
	o.Triggered = bs.Active

	for bs.Active {
		st.advance()
		_, win = e.resolve(st.reels, bs, bet)
		o.FreeWin = o.FreeWin.Add(win.TotalWin)
		o.FreeSpins++
		st.count(&o, win.TotalWin, win.IsJackpot)
		bs = e.bonus.Settle(bs, win.BonusTrigger)
	}
	o.Streak = st.streak
	return o
}

// advance 推進模擬時鐘，補上這段時間內獎池應有的 Tick
func (st *seat) advance() {
	p := st.eng.pool
	if p == nil || st.step <= 0 || p.Interval() <= 0 {
		return
	}
	st.clock += st.step
	for st.clock >= p.Interval() {
		p.Tick()
		st.clock -= p.Interval()
	}
}

func (st *seat) count(o *recorder.Outcome, win decimal.Decimal, jp bool) {
	if jp {
		o.Jackpots++
	}
	if win.IsPositive() {
		st.streak++
	} else {
		st.streak = 0
	}
}

// prepare 驗證參數、決定押注並備妥 mp 個工作者
func (s *Simulator) prepare(bet decimal.Decimal, rounds int, mp int) (decimal.Decimal, error) {
	if rounds < 1 {
		return decimal.Zero, errs.NewWarn("rounds must > 0")
	}
	if mp < 1 {
		return decimal.Zero, errs.NewWarn("workers must > 0")
	}
	bs := s.eng.Theme().Bet
	if bet.IsZero() {
		bet = bs.DefaultD
	}
	if bet.LessThan(bs.MinD) || bet.GreaterThan(bs.MaxD) {
		return decimal.Zero, errs.Warnf("bet %s out of [%s,%s]", bet, bs.MinD, bs.MaxD)
	}
	if err := s.prepareSeats(mp); err != nil {
		return decimal.Zero, err
	}
	for _, st := range s.seats[:mp] {
		st.step = s.roundTime
	}
	return bet, nil
}

func (s *Simulator) recorders(n int, bet decimal.Decimal, balance decimal.Decimal) ([]*recorder.SpinRecorder, error) {
	recs := make([]*recorder.SpinRecorder, n)
	for i := range recs {
		r, err := recorder.NewSpinRecorder(s.ThemeName, s.ThemeId, bet, balance)
		if err != nil {
			return nil, err
		}
		recs[i] = r
	}
	return recs, nil
}

// progress 進度條；不顯示時仍用它計時
func progress(total int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(total)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

func finish(bar *pb.ProgressBar) time.Duration {
	used := time.Since(bar.StartTime())
	bar.Finish()
	return used
}

func merge(recs []*recorder.SpinRecorder) (*stats.StatReport, error) {
	merged, err := recorder.MergeSpinRecorder(recs)
	if err != nil {
		return nil, err
	}
	st := merged.Done()
	st.Done()
	return st, nil
}

// Sim 單一工作者連續跑 rounds 個 round。bet 為 0 時使用主題預設押注。
func (s *Simulator) Sim(bet decimal.Decimal, rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(bet, rounds, 1, showpb)
}

// SimMP 平行執行 mp 個工作者，各跑 rounds 個 round，合併統計後回傳。
func (s *Simulator) SimMP(bet decimal.Decimal, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	b, err := s.prepare(bet, rounds, mp)
	if err != nil {
		return nil, 0, err
	}
	recs, err := s.recorders(mp, b, decimal.Zero)
	if err != nil {
		return nil, 0, err
	}

	var wg sync.WaitGroup
	bar := progress(rounds*mp, showpb)
	for i, rec := range recs {
		st := s.seats[i]
		wg.Go(func() {
			for range rounds {
				o := st.round(b)
				rec.Record(&o)
				bar.Increment()
			}
		})
	}
	wg.Wait()
	used := finish(bar)

	st, err := merge(recs)
	if err != nil {
		return nil, 0, err
	}
	return st, used, nil
}

// SimPlayers 模擬 players 位玩家，各自帶主題的起始餘額，玩到破產、達到 3 倍本金或 rounds 上限。
func (s *Simulator) SimPlayers(bet decimal.Decimal, mp int, players int, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	if players < 1 {
		return nil, nil, 0, errs.NewWarn("players must > 0")
	}
	b, err := s.prepare(bet, rounds, mp)
	if err != nil {
		return nil, nil, 0, err
	}
	initBalance := s.eng.Theme().Economy.Initial
	if initBalance.LessThan(b) {
		return nil, nil, 0, errs.Warnf("initial balance %s does not cover bet %s", initBalance, b)
	}
	recs, err := s.recorders(players, b, initBalance)
	if err != nil {
		return nil, nil, 0, err
	}

	jobs := make(chan *recorder.SpinRecorder, min(players, 2048))
	var wg sync.WaitGroup
	bar := progress(players, showpb)
	for _, st := range s.seats[:mp] {
		wg.Go(func() {
			for rec := range jobs {
				st.play(rec, b, rounds)
				bar.Increment()
			}
		})
	}
	for _, rec := range recs {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
	used := finish(bar)

	st, err := merge(recs)
	if err != nil {
		return nil, nil, 0, err
	}
	reports := make([]*stats.StatReport, players)
	for i, rec := range recs {
		reports[i] = rec.Done()
		reports[i].Done()
	}
	return st, stats.EstimatorPlayerExp(reports), used, nil
}

// play 一位玩家從頭玩到離場
func (st *seat) play(rec *recorder.SpinRecorder, bet decimal.Decimal, rounds int) {
	st.streak = 0
	for range rounds {
		o := st.round(bet)
		if rec.RecordWithPlayer(&o) {
			return
		}
	}
}

// seedStream 以 splitmix64 由初始 seed 派生工作者 seed；可併發呼叫。
type seedStream struct {
	state atomic.Uint64
}

func newSeedStream(seed int64) *seedStream {
	s := &seedStream{}
	s.state.Store(uint64(seed))
	return s
}

// next 回傳非負 seed
func (s *seedStream) next() int64 {
	z := s.state.Add(0x9E3779B97F4A7C15)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64((z ^ (z >> 31)) >> 1)
}
