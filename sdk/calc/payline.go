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

// Package calc 掃描盤面：固定線表的左起連線，加上全盤 scatter 計數。
package calc

import (
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

// LineHit 單條線的中獎：符號與左起連續長度（3..5）
type LineHit struct {
	Payline spec.Payline
	Symbol  spec.SymbolID
	Run     int
}

// Evaluation 一次盤面掃描的結果。
//
// 線與 scatter 各自獨立：同一格可以同時貢獻給兩者（不去重）。
type Evaluation struct {
	Lines            []LineHit
	ScatterPositions []spec.Pos
	ScatterCount     int
	ScatterHit       bool // count >= min_count
	BonusTrigger     bool // count >= bonus_count
}

// Evaluator 持有線表與 scatter 規則，建立後不可變。
type Evaluator struct {
	lines      []spec.Payline
	scatter    spec.SymbolID
	minCount   int
	bonusCount int
}

// NewEvaluator 依主題設定建立
func NewEvaluator(ts *spec.ThemeSetting) (*Evaluator, error) {
	if ts == nil || ts.Table == nil {
		return nil, errs.NewFatal("evaluator: initialized theme required")
	}
	e := &Evaluator{
		lines:   ts.Paylines.Paylines,
		scatter: spec.NoSymbol,
	}
	if ts.Scatter.Enabled() {
		e.scatter = ts.Table.Scatter
		e.minCount = ts.Scatter.MinCount
		e.bonusCount = ts.Scatter.BonusCount
	}
	return e, nil
}

// Lines 線表
func (e *Evaluator) Lines() []spec.Payline { return e.lines }

// Evaluate 掃描所有線與 scatter
func (e *Evaluator) Evaluate(m *spec.Matrix) Evaluation {
	var ev Evaluation
	for _, pl := range e.lines {
		seq := LineSymbols(m, pl)
		if run := RunLength(seq); run > 0 {
			ev.Lines = append(ev.Lines, LineHit{Payline: pl, Symbol: seq[0], Run: run})
		}
	}
	if e.scatter == spec.NoSymbol {
		return ev
	}
	ev.ScatterPositions = Positions(m, e.scatter)
	ev.ScatterCount = len(ev.ScatterPositions)
	ev.ScatterHit = ev.ScatterCount >= e.minCount
	ev.BonusTrigger = e.bonusCount > 0 && ev.ScatterCount >= e.bonusCount
	return ev
}

// LineSymbols 依線的座標由左到右取出符號
func LineSymbols(m *spec.Matrix, pl spec.Payline) [spec.Reels]spec.SymbolID {
	var seq [spec.Reels]spec.SymbolID
	for i, p := range pl.Cells {
		seq[i] = m.At(p)
	}
	return seq
}

// RunLength 回傳自第 0 格起連續相同符號的長度；不足 MinRun 回傳 0。
//
// 中斷後再出現的相同符號不計入，一條線只會有一段。
func RunLength(seq [spec.Reels]spec.SymbolID) int {
	run := 1
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[0] {
			break
		}
		run++
	}
	if run < spec.MinRun {
		return 0
	}
	return run
}

// Positions 全盤找出指定符號的所有座標（reel 優先）
func Positions(m *spec.Matrix, id spec.SymbolID) []spec.Pos {
	var out []spec.Pos
	for reel := 0; reel < spec.Reels; reel++ {
		for row := 0; row < spec.Rows; row++ {
			if m[reel][row] == id {
				out = append(out, spec.Pos{Reel: reel, Row: row})
			}
		}
	}
	return out
}
