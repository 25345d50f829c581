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

// Package payout 把掃描結果換算成金額。
//
// 金額一律使用 decimal：權重與倍數可以是小數（2.5×），總贏分必須等於各項之和，不允許浮點漂移。
package payout

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/spec"
)

// JackpotSource 由獎池實作。Claim 必須「先讀後重置」：回傳當下金額並把獎池設回基礎值。
type JackpotSource interface {
	Claim() decimal.Decimal
}

// LineWin 單線派彩
type LineWin struct {
	Payline spec.Payline
	Symbol  spec.SymbolID
	Run     int
	Amount  decimal.Decimal
	Jackpot bool
}

// ScatterWin scatter 派彩
type ScatterWin struct {
	Count     int
	Positions []spec.Pos
	Amount    decimal.Decimal
}

// WinResult 一次 Spin 的派彩結果，建立後不再修改。
type WinResult struct {
	LineWins     []LineWin
	Scatter      *ScatterWin // 未達 min_count 時為 nil
	IsJackpot    bool
	BonusTrigger bool // 交給 Bonus 狀態機的觸發訊號
	TotalWin     decimal.Decimal
}

// IsWin totalWin > 0
func (r *WinResult) IsWin() bool {
	return r.TotalWin.IsPositive()
}

// Calculator 派彩計算器
type Calculator struct {
	table     *spec.SymbolTable
	runFactor [spec.Reels + 1]decimal.Decimal
}

// NewCalculator 依主題建立
func NewCalculator(ts *spec.ThemeSetting) (*Calculator, error) {
	if ts == nil || ts.Table == nil {
		return nil, errs.NewFatal("payout: initialized theme required")
	}
	return &Calculator{table: ts.Table, runFactor: ts.Paylines.RunFactor}, nil
}

// Price 計算派彩。
//
//   - 平倍數符號：bet × multiplier × run_factor[run] × bonusMult
//   - 查表符號：bet × pays[run] × bonusMult；若該格為 JACKPOT，改為領取獎池（不乘 bonusMult）
//   - scatter：bet × scatter 倍數 × 個數 × bonusMult
//
// 多條 JACKPOT 線時，獎池只在第一條領取一次，其餘各線派同額。
// pool 為 nil 時 JACKPOT 線的金額為 0，但仍標記 IsJackpot。
func (c *Calculator) Price(ev calc.Evaluation, bet, bonusMult decimal.Decimal, pool JackpotSource) WinResult {
	res := WinResult{TotalWin: decimal.Zero, BonusTrigger: ev.BonusTrigger}
	if len(ev.Lines) > 0 {
		res.LineWins = make([]LineWin, 0, len(ev.Lines))
	}
	// 同一次 Spin 只領一次獎池；每條 JACKPOT 線都拿同一個金額
	var jp *decimal.Decimal
	for _, hit := range ev.Lines {
		lw := LineWin{Payline: hit.Payline, Symbol: hit.Symbol, Run: hit.Run}
		lw.Amount, lw.Jackpot = c.lineAmount(hit, bet, bonusMult)
		if lw.Jackpot {
			res.IsJackpot = true
			if pool != nil {
				if jp == nil {
					won := pool.Claim()
					jp = &won
				}
				lw.Amount = *jp
			}
		}
		res.LineWins = append(res.LineWins, lw)
		res.TotalWin = res.TotalWin.Add(lw.Amount)
	}
	if ev.ScatterHit {
		sym := c.table.Get(c.table.Scatter)
		sw := &ScatterWin{
			Count:     ev.ScatterCount,
			Positions: ev.ScatterPositions,
			Amount:    bet.Mul(sym.FlatMult()).Mul(decimal.NewFromInt(int64(ev.ScatterCount))).Mul(bonusMult),
		}
		res.Scatter = sw
		res.TotalWin = res.TotalWin.Add(sw.Amount)
	}
	return res
}

func (c *Calculator) lineAmount(hit calc.LineHit, bet, bonusMult decimal.Decimal) (decimal.Decimal, bool) {
	sym := c.table.Get(hit.Symbol)
	if sym == nil {
		return decimal.Zero, false
	}
	if sym.IsFlat() {
		return bet.Mul(sym.FlatMult()).Mul(c.runFactor[hit.Run]).Mul(bonusMult), false
	}
	pay, ok := sym.PayFor(hit.Run)
	if !ok {
		return decimal.Zero, false
	}
	if pay.Jackpot {
		return decimal.Zero, true
	}
	return bet.Mul(pay.Mult).Mul(bonusMult), false
}
