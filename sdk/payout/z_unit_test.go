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

package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/spec"
	"pgregory.net/rapid"
)

// 符號：0 cherry(pays 5/15/50), 1 lemon(flat 2.5), 2 seven(pays 200/1000/JACKPOT), 3 rocket(flat 5, scatter)
func buildTheme(t testing.TB) *spec.ThemeSetting {
	t.Helper()
	lemon := spec.Pay(2.5)
	rocket := spec.Pay(5)
	ts := &spec.ThemeSetting{
		ThemeName: "payout",
		Symbols: []spec.SymbolSetting{
			{ID: "cherry", Weight: 1, Pays: map[int]spec.PayValue{3: spec.Pay(5), 4: spec.Pay(15), 5: spec.Pay(50)}},
			{ID: "lemon", Weight: 1, Multiplier: &lemon},
			{ID: "seven", Weight: 1, Pays: map[int]spec.PayValue{3: spec.Pay(200), 4: spec.Pay(1000), 5: spec.JackpotPay()}},
			{ID: "rocket", Weight: 1, RarityStr: "rare", Multiplier: &rocket},
		},
		Scatter:  spec.ScatterSetting{Symbol: "rocket"},
		Paylines: spec.PaylineSetting{Lines: [][]int{{0, 0, 0, 0, 0}, {1, 1, 1, 1, 1}, {2, 2, 2, 2, 2}}},
		Jackpot:  spec.JackpotSetting{Base: 5000},
		Bet:      spec.BetSetting{Min: 1, Max: 100},
	}
	if err := ts.Init(); err != nil {
		t.Fatalf("init theme: %v", err)
	}
	return ts
}

type fakePool struct {
	amount decimal.Decimal
	base   decimal.Decimal
	claims int
}

func (p *fakePool) Claim() decimal.Decimal {
	p.claims++
	won := p.amount
	p.amount = p.base
	return won
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func line(ts *spec.ThemeSetting, id int, sym spec.SymbolID, run int) calc.LineHit {
	return calc.LineHit{Payline: ts.Paylines.Paylines[id], Symbol: sym, Run: run}
}

// bet=10，cherry 3 連（3 連倍數 5）→ 50
func TestCherryThreeRun(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	res := c.Price(calc.Evaluation{Lines: []calc.LineHit{line(ts, 0, 0, 3)}}, d(10), decimal.NewFromInt(1), nil)
	if len(res.LineWins) != 1 || res.LineWins[0].Run != 3 {
		t.Fatalf("unexpected line wins: %+v", res.LineWins)
	}
	if !res.LineWins[0].Amount.Equal(d(50)) || !res.TotalWin.Equal(d(50)) {
		t.Fatalf("expected 50, got %s", res.TotalWin)
	}
	if res.IsJackpot || res.Scatter != nil {
		t.Fatalf("unexpected flags: %+v", res)
	}
}

// 平倍數：bet × mult × run_factor × bonus
func TestFlatMultiplierWithRunFactor(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	cases := []struct {
		run  int
		want float64
	}{{3, 50}, {4, 150}, {5, 400}}
	for _, cs := range cases {
		res := c.Price(calc.Evaluation{Lines: []calc.LineHit{line(ts, 1, 1, cs.run)}}, d(10), d(2), nil)
		if !res.TotalWin.Equal(d(cs.want)) {
			t.Fatalf("run %d: expected %v, got %s", cs.run, cs.want, res.TotalWin)
		}
	}
}

// JACKPOT：金額等於當下獎池，之後獎池回到基礎值
func TestJackpotClaim(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	pool := &fakePool{amount: d(5123), base: d(5000)}
	res := c.Price(calc.Evaluation{Lines: []calc.LineHit{line(ts, 2, 2, 5)}}, d(10), d(2), pool)
	if !res.IsJackpot || !res.LineWins[0].Jackpot {
		t.Fatalf("jackpot flag expected")
	}
	if !res.TotalWin.Equal(d(5123)) {
		t.Fatalf("expected pool amount 5123 (no bonus multiplier), got %s", res.TotalWin)
	}
	if pool.claims != 1 || !pool.amount.Equal(d(5000)) {
		t.Fatalf("pool should reset to base: %+v", pool)
	}

	// 沒有獎池時仍標記但金額為 0
	res = c.Price(calc.Evaluation{Lines: []calc.LineHit{line(ts, 2, 2, 5)}}, d(10), d(1), nil)
	if !res.IsJackpot || !res.TotalWin.IsZero() {
		t.Fatalf("nil pool: %+v", res)
	}
}

// 兩條 seven 5 連：各派一次當下獎池，獎池只重置一次
func TestJackpotTwoLinesShareOneClaim(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	pool := &fakePool{amount: d(5123), base: d(5000)}
	ev := calc.Evaluation{Lines: []calc.LineHit{line(ts, 0, 2, 5), line(ts, 2, 2, 5)}}
	res := c.Price(ev, d(10), d(1), pool)
	if len(res.LineWins) != 2 {
		t.Fatalf("line wins: %+v", res.LineWins)
	}
	for i, lw := range res.LineWins {
		if !lw.Jackpot || !lw.Amount.Equal(d(5123)) {
			t.Fatalf("line %d: %+v", i, lw)
		}
	}
	if !res.TotalWin.Equal(d(10246)) {
		t.Fatalf("expected 10246, got %s", res.TotalWin)
	}
	if pool.claims != 1 || !pool.amount.Equal(d(5000)) {
		t.Fatalf("pool claimed %d times, amount %s", pool.claims, pool.amount)
	}
}

// scatter 4 個：bet × 5 × 4 × bonus，並帶出 bonus 觸發訊號
func TestScatterWin(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	ev := calc.Evaluation{ScatterCount: 4, ScatterHit: true, BonusTrigger: true,
		ScatterPositions: []spec.Pos{{Reel: 0, Row: 0}, {Reel: 1, Row: 2}, {Reel: 3, Row: 0}, {Reel: 4, Row: 2}}}
	res := c.Price(ev, d(10), d(1), nil)
	if res.Scatter == nil || res.Scatter.Count != 4 || !res.Scatter.Amount.Equal(d(200)) {
		t.Fatalf("unexpected scatter: %+v", res.Scatter)
	}
	if !res.BonusTrigger || !res.TotalWin.Equal(d(200)) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNoWin(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	res := c.Price(calc.Evaluation{ScatterCount: 2}, d(10), d(1), nil)
	if res.IsWin() || res.Scatter != nil || res.LineWins != nil {
		t.Fatalf("expected empty result: %+v", res)
	}
}

// totalWin 必須等於各項精確加總
func TestTotalIsExactSum(t *testing.T) {
	ts := buildTheme(t)
	c, _ := NewCalculator(ts)
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 3).Draw(rt, "lines")
		ev := calc.Evaluation{}
		for i := 0; i < n; i++ {
			sym := spec.SymbolID(rapid.IntRange(0, 3).Draw(rt, "sym"))
			run := rapid.IntRange(3, 5).Draw(rt, "run")
			ev.Lines = append(ev.Lines, line(ts, i, sym, run))
		}
		ev.ScatterCount = rapid.IntRange(0, 15).Draw(rt, "scatter")
		ev.ScatterHit = ev.ScatterCount >= 3
		bet := decimal.NewFromInt(int64(rapid.IntRange(1, 100).Draw(rt, "bet"))).Div(decimal.NewFromInt(4))
		mult := decimal.NewFromInt(int64(rapid.IntRange(1, 3).Draw(rt, "mult")))
		pool := &fakePool{amount: d(7777.77), base: d(5000)}
		res := c.Price(ev, bet, mult, pool)
		sum := decimal.Zero
		for _, lw := range res.LineWins {
			sum = sum.Add(lw.Amount)
		}
		if res.Scatter != nil {
			sum = sum.Add(res.Scatter.Amount)
		}
		if !sum.Equal(res.TotalWin) {
			rt.Fatalf("total %s != sum %s", res.TotalWin, sum)
		}
		if len(res.LineWins) != len(ev.Lines) {
			rt.Fatalf("every hit must be priced")
		}
	})
}
