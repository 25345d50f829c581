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

package dto

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/sdk/bonus"
	"github.com/zintix-labs/reelkit/sdk/ledger"
	"github.com/zintix-labs/reelkit/sdk/payout"
	"github.com/zintix-labs/reelkit/spec"
)

// Round 對外輸出的一局結果；符號一律轉成名稱。
type Round struct {
	ID             string          `json:"id"`
	Matrix         [][]string      `json:"matrix"` // [reel][row]
	LineWins       []LineWin       `json:"line_wins,omitempty"`
	Scatter        *ScatterWin     `json:"scatter,omitempty"`
	TotalWin       decimal.Decimal `json:"total_win"`
	IsJackpot      bool            `json:"jackpot"`
	FreeSpin       bool            `json:"free_spin"`
	BonusTriggered bool            `json:"bonus_triggered"`
	Bonus          bonus.State     `json:"bonus"`
	Economy        ledger.State    `json:"economy"`
	GameOver       bool            `json:"game_over"`
}

type LineWin struct {
	Line    int             `json:"line"`
	Symbol  string          `json:"symbol"`
	Run     int             `json:"run"`
	Cells   []spec.Pos      `json:"cells"` // 由左到右實際連上的格子
	Amount  decimal.Decimal `json:"amount"`
	Jackpot bool            `json:"jackpot,omitempty"`
}

type ScatterWin struct {
	Count     int             `json:"count"`
	Positions []spec.Pos      `json:"positions"`
	Amount    decimal.Decimal `json:"amount"`
}

// Session 對外輸出的 session 狀態
type Session struct {
	ID        string       `json:"id"`
	Theme     string       `json:"theme"`
	Phase     string       `json:"phase"`
	Bonus     bonus.State  `json:"bonus"`
	Economy   ledger.State `json:"economy"`
	Turbo     bool         `json:"turbo"`
	AutoSpin  int          `json:"autospin_remaining"`
	GameOver  bool         `json:"game_over"`
	LastRound *Round       `json:"last_round,omitempty"`
}

// BetResult 押注調整結果；Clamped 為 true 時代表請求值被夾回範圍
type BetResult struct {
	Economy ledger.State `json:"economy"`
	Clamped bool         `json:"clamped"`
	Message string       `json:"message,omitempty"`
}

func NewRound(table *spec.SymbolTable, r reelkit.Round) Round {
	out := Round{
		ID:             r.ID.String(),
		Matrix:         matrixNames(table, &r.Matrix),
		TotalWin:       r.Win.TotalWin,
		IsJackpot:      r.Win.IsJackpot,
		FreeSpin:       r.FreeSpin,
		BonusTriggered: r.BonusTriggered,
		Bonus:          r.Bonus,
		Economy:        r.Economy,
		GameOver:       r.GameOver,
	}
	if len(r.Win.LineWins) > 0 {
		out.LineWins = make([]LineWin, len(r.Win.LineWins))
		for i, lw := range r.Win.LineWins {
			out.LineWins[i] = newLineWin(table, lw)
		}
	}
	if sc := r.Win.Scatter; sc != nil {
		out.Scatter = &ScatterWin{
			Count:     sc.Count,
			Positions: append([]spec.Pos(nil), sc.Positions...),
			Amount:    sc.Amount,
		}
	}
	return out
}

func newLineWin(table *spec.SymbolTable, lw payout.LineWin) LineWin {
	return LineWin{
		Line:    lw.Payline.ID,
		Symbol:  table.Name(lw.Symbol),
		Run:     lw.Run,
		Cells:   append([]spec.Pos(nil), lw.Payline.Cells[:lw.Run]...),
		Amount:  lw.Amount,
		Jackpot: lw.Jackpot,
	}
}

func matrixNames(table *spec.SymbolTable, m *spec.Matrix) [][]string {
	out := make([][]string, spec.Reels)
	for reel := range spec.Reels {
		col := make([]string, spec.Rows)
		for row := range spec.Rows {
			col[row] = table.Name(m[reel][row])
		}
		out[reel] = col
	}
	return out
}

func NewSession(table *spec.SymbolTable, v reelkit.View) Session {
	out := Session{
		ID:       v.ID.String(),
		Theme:    v.Theme,
		Phase:    v.Phase,
		Bonus:    v.Bonus,
		Economy:  v.Economy,
		Turbo:    v.Turbo,
		AutoSpin: v.AutoSpin,
		GameOver: v.GameOver,
	}
	if v.LastRound != nil {
		r := NewRound(table, *v.LastRound)
		out.LastRound = &r
	}
	return out
}
