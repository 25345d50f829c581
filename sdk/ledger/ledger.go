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

// Package ledger 帳務：餘額、押注、連勝與場次統計。
//
// 與 bonus 相同，所有操作都回傳新的 State，不修改傳入值。
package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

// State 一個玩家的帳務快照
type State struct {
	Balance       decimal.Decimal `json:"balance"`
	Bet           decimal.Decimal `json:"bet"`
	TotalWinnings decimal.Decimal `json:"total_winnings"`
	CurrentStreak int             `json:"current_streak"`
	BestStreak    int             `json:"best_streak"`

	Spins      int             `json:"spins"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Wagered    decimal.Decimal `json:"wagered"`
	BiggestWin decimal.Decimal `json:"biggest_win"`
}

// Ledger 持有押注範圍
type Ledger struct {
	bet     spec.BetSetting
	initial decimal.Decimal
}

// New 依已初始化的主題建立
func New(ts *spec.ThemeSetting) *Ledger {
	return &Ledger{bet: ts.Bet, initial: ts.Economy.Initial}
}

// Open 開局狀態：初始餘額與預設押注
func (l *Ledger) Open() State {
	return State{
		Balance:       l.initial,
		Bet:           l.bet.DefaultD,
		TotalWinnings: decimal.Zero,
		Wagered:       decimal.Zero,
		BiggestWin:    decimal.Zero,
	}
}

// CanSpin 餘額足以支付押注，或正在免費遊戲中
func (l *Ledger) CanSpin(s State, bonusActive bool) bool {
	return bonusActive || s.Balance.GreaterThanOrEqual(s.Bet)
}

// GameOver 結算後餘額不足且不在免費遊戲中
func (l *Ledger) GameOver(s State, bonusActive bool) bool {
	return !l.CanSpin(s, bonusActive)
}

// Debit 扣除押注；免費遊戲不扣。餘額不足時回傳 ErrInsufficientBalance 與原狀態。
func (l *Ledger) Debit(s State, bonusActive bool) (State, error) {
	if !l.CanSpin(s, bonusActive) {
		return s, errs.ErrInsufficientBalance.With("balance " + s.Balance.String() + " < bet " + s.Bet.String())
	}
	if bonusActive {
		return s, nil
	}
	s.Balance = s.Balance.Sub(s.Bet)
	s.Wagered = s.Wagered.Add(s.Bet)
	return s, nil
}

// Settle 套用一次 Spin 的總贏分
func (l *Ledger) Settle(s State, totalWin decimal.Decimal) State {
	s.Spins++
	s.Balance = s.Balance.Add(totalWin)
	s.TotalWinnings = s.TotalWinnings.Add(totalWin)
	if totalWin.IsPositive() {
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		if totalWin.GreaterThan(s.BiggestWin) {
			s.BiggestWin = totalWin
		}
	} else {
		s.Losses++
		s.CurrentStreak = 0
	}
	return s
}

// PlaceBet 設定押注，超出 [min, min(max, balance)] 時夾回範圍並回傳 ErrInvalidBet（Log 等級）。
//
// 餘額低於 min 時以 min 為準，之後的 Spin 會因餘額不足被拒。
func (l *Ledger) PlaceBet(s State, amount decimal.Decimal) (State, error) {
	lo, hi := l.bounds(s)
	switch {
	case amount.LessThan(lo):
		s.Bet = lo
	case amount.GreaterThan(hi):
		s.Bet = hi
	default:
		s.Bet = amount
		return s, nil
	}
	return s, errs.ErrInvalidBet.With("bet " + amount.String() + " clamped to " + s.Bet.String())
}

// IncreaseBet 押注加一個 step
func (l *Ledger) IncreaseBet(s State) (State, error) {
	return l.PlaceBet(s, s.Bet.Add(l.bet.StepD))
}

// DecreaseBet 押注減一個 step
func (l *Ledger) DecreaseBet(s State) (State, error) {
	return l.PlaceBet(s, s.Bet.Sub(l.bet.StepD))
}

// MaxBet 押到目前允許的最大值
func (l *Ledger) MaxBet(s State) State {
	_, hi := l.bounds(s)
	s.Bet = hi
	return s
}

func (l *Ledger) bounds(s State) (decimal.Decimal, decimal.Decimal) {
	lo := l.bet.MinD
	hi := decimal.Min(l.bet.MaxD, s.Balance)
	if hi.LessThan(lo) {
		hi = lo
	}
	return lo, hi
}
