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

package spec

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
)

// MinRun 連線最少需要的連續符號數
const MinRun = 3

// 預設連線長度倍率：3→1、4→3、5→8
var defaultRunFactors = map[int]float64{3: 1, 4: 3, 5: 8}

// PaylineSetting 線表：每條線以「每一軸的列號」表示，由左到右各取一格。
//
//	paylines:
//	  lines:
//	    - [0, 0, 0, 0, 0]   # 上排
//	    - [0, 1, 2, 1, 0]   # V 型
type PaylineSetting struct {
	Lines      [][]int         `yaml:"lines"                 json:"lines"`
	RunFactors map[int]float64 `yaml:"run_factors,omitempty" json:"run_factors,omitempty"`

	Paylines  []Payline                  `yaml:"-" json:"-"`
	RunFactor [Reels + 1]decimal.Decimal `yaml:"-" json:"-"` // 以 run 長度為索引
	initFlag  bool
}

// Init 建立 Payline 與倍率表
func (ps *PaylineSetting) Init() error {
	if ps.initFlag {
		return nil
	}
	if len(ps.Lines) == 0 {
		return errs.NewFatal("paylines required")
	}
	ps.Paylines = make([]Payline, len(ps.Lines))
	for i, rows := range ps.Lines {
		if len(rows) != Reels {
			return errs.Fatalf("payline %d: need %d rows, got %d", i, Reels, len(rows))
		}
		pl := Payline{ID: i}
		for reel, row := range rows {
			if row < 0 || row >= Rows {
				return errs.Fatalf("payline %d: row %d out of [0,%d)", i, row, Rows)
			}
			pl.Cells[reel] = Pos{Reel: reel, Row: row}
		}
		ps.Paylines[i] = pl
	}

	factors := make(map[int]float64, len(defaultRunFactors))
	for k, v := range defaultRunFactors {
		factors[k] = v
	}
	for k, v := range ps.RunFactors {
		if k < MinRun || k > Reels {
			return errs.Fatalf("run_factors key %d out of [%d,%d]", k, MinRun, Reels)
		}
		if v < 0 {
			return errs.Fatalf("run_factors[%d] must not be negative", k)
		}
		factors[k] = v
	}
	for run := MinRun; run <= Reels; run++ {
		ps.RunFactor[run] = decimal.NewFromFloat(factors[run])
	}
	ps.initFlag = true
	return nil
}
