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

// Package recorder 累積模擬結果，完成後輸出 stats.StatReport。
package recorder

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

// Outcome 一個 round 的結果：付費 Spin 與它帶出的免費 Spin。
type Outcome struct {
	Bet       decimal.Decimal // 付費 Spin 的押注；整段 round 只扣一次
	BaseWin   decimal.Decimal
	FreeWin   decimal.Decimal
	Triggered bool // 付費 Spin 是否觸發免費遊戲
	FreeSpins int
	Jackpots  int
	Streak    int // 結算後的連贏數（玩家模擬用）
}

// Total 總贏分
func (o *Outcome) Total() decimal.Decimal {
	return o.BaseWin.Add(o.FreeWin)
}

// SpinRecorder 遊戲紀錄員
type SpinRecorder struct {
	ThemeName string
	ThemeId   spec.TID
	Bet       decimal.Decimal
	Basic     *BasicRecord
	Dist      *DistRecord
	Player    *PlayerRecord
}

// BasicRecord 基本紀錄；金額以 decimal 精確累加，平方和以倍數的 float64 累加。
type BasicRecord struct {
	TotalBet          decimal.Decimal
	TotalWin          decimal.Decimal
	BaseWin           decimal.Decimal
	FreeWin           decimal.Decimal
	TotalWinMultSqSum float64
	BaseWinMultSqSum  float64
	FreeWinMultSqSum  float64
	Trigger           int
	FreeSpins         int
	Jackpots          int
	Rounds            int
}

// DistRecord 贏倍區間落點統計
type DistRecord struct {
	TotalWinCollect []int
	BaseWinCollect  []int
	FreeWinCollect  []int
}

// PlayerRecord 玩家資金歷程
type PlayerRecord struct {
	leaveLine   decimal.Decimal
	InitBalance decimal.Decimal
	Balance     decimal.Decimal
	MaxBalance  decimal.Decimal
	MinBalance  decimal.Decimal
	BestStreak  int
	Bust        bool
	Cashout     bool
}

// NewSpinRecorder 建立紀錄員。initBalance 為 0 代表不追蹤玩家資金。
func NewSpinRecorder(name string, id spec.TID, bet decimal.Decimal, initBalance decimal.Decimal) (*SpinRecorder, error) {
	if !bet.IsPositive() {
		return nil, errs.Fatalf("recorder: bet must be > 0, got %s", bet)
	}
	if initBalance.IsNegative() {
		return nil, errs.Fatalf("recorder: init balance must not be negative, got %s", initBalance)
	}
	return &SpinRecorder{
		ThemeName: name,
		ThemeId:   id,
		Bet:       bet,
		Basic: &BasicRecord{
			TotalBet: decimal.Zero,
			TotalWin: decimal.Zero,
			BaseWin:  decimal.Zero,
			FreeWin:  decimal.Zero,
		},
		Dist:   newDistRecord(),
		Player: newPlayerRecord(initBalance),
	}, nil
}

// MergeSpinRecorder 合併多個紀錄員（同主題、同押注）
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty")
	}
	r0 := r[0]
	s, err := NewSpinRecorder(r0.ThemeName, r0.ThemeId, r0.Bet, r0.Player.InitBalance)
	if err != nil {
		return nil, err
	}
	for _, v := range r {
		if v.ThemeName != r0.ThemeName {
			return nil, errs.NewFatal("merge spin record err : different theme")
		}
		if !v.Bet.Equal(r0.Bet) {
			return nil, errs.NewFatal("merge spin record err : different bet")
		}
		b := s.Basic
		b.TotalBet = b.TotalBet.Add(v.Basic.TotalBet)
		b.TotalWin = b.TotalWin.Add(v.Basic.TotalWin)
		b.BaseWin = b.BaseWin.Add(v.Basic.BaseWin)
		b.FreeWin = b.FreeWin.Add(v.Basic.FreeWin)
		b.TotalWinMultSqSum += v.Basic.TotalWinMultSqSum
		b.BaseWinMultSqSum += v.Basic.BaseWinMultSqSum
		b.FreeWinMultSqSum += v.Basic.FreeWinMultSqSum
		b.Trigger += v.Basic.Trigger
		b.FreeSpins += v.Basic.FreeSpins
		b.Jackpots += v.Basic.Jackpots
		b.Rounds += v.Basic.Rounds

		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
			s.Dist.BaseWinCollect[i] += v.Dist.BaseWinCollect[i]
			s.Dist.FreeWinCollect[i] += v.Dist.FreeWinCollect[i]
		}
	}
	return s, nil
}

// Record 以單一 round 更新基本統計與分布
func (s *SpinRecorder) Record(o *Outcome) {
	s.recordBasic(o)
	s.recordDist(o)
}

// RecordWithPlayer 在 Record 的基礎上更新玩家資金，回傳玩家是否離場。
func (s *SpinRecorder) RecordWithPlayer(o *Outcome) bool {
	s.Record(o)
	return s.recordPlayer(o)
}

// Broke 玩家餘額已不足一次押注
func (s *SpinRecorder) Broke() bool {
	return s.Player.Balance.LessThan(s.Bet)
}

// Done 輸出報表（尚未呼叫 StatReport.Done）
func (s *SpinRecorder) Done() *stats.StatReport {
	betF := s.Bet.InexactFloat64()
	b := s.Basic
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			ThemeName:   s.ThemeName,
			ThemeId:     s.ThemeId,
			Bet:         s.Bet,
			TotalBet:    b.TotalBet,
			TotalWin:    b.TotalWin,
			BaseWin:     b.BaseWin,
			FreeWin:     b.FreeWin,
			Trigger:     b.Trigger,
			FreeSpins:   b.FreeSpins,
			Jackpots:    b.Jackpots,
			NoWinRounds: s.Dist.TotalWinCollect[0],
			Rounds:      b.Rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      b.TotalWin.InexactFloat64() / betF,
			BaseWinMult:       b.BaseWin.InexactFloat64() / betF,
			FreeWinMult:       b.FreeWin.InexactFloat64() / betF,
			TotalWinMultSqSum: b.TotalWinMultSqSum,
			BaseWinMultSqSum:  b.BaseWinMultSqSum,
			FreeWinMultSqSum:  b.FreeWinMultSqSum,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: s.Dist.TotalWinCollect,
			BaseWinCollect:  s.Dist.BaseWinCollect,
			FreeWinCollect:  s.Dist.FreeWinCollect,
		},
		Player: &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			BestStreak:  s.Player.BestStreak,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
		},
	}

	n := stats.Buckets.Len()
	report.Dist.TotalWinDist = make([]float64, n)
	report.Dist.BaseWinDist = make([]float64, n)
	report.Dist.FreeWinDist = make([]float64, n)
	if b.Rounds > 0 {
		rf := float64(b.Rounds)
		for i := range n {
			report.Dist.TotalWinDist[i] = float64(s.Dist.TotalWinCollect[i]) / rf
			report.Dist.BaseWinDist[i] = float64(s.Dist.BaseWinCollect[i]) / rf
			report.Dist.FreeWinDist[i] = float64(s.Dist.FreeWinCollect[i]) / rf
		}
	}
	return report
}

func (s *SpinRecorder) mults(o *Outcome) (total, base, free float64) {
	betF := s.Bet.InexactFloat64()
	base = o.BaseWin.InexactFloat64() / betF
	free = o.FreeWin.InexactFloat64() / betF
	return base + free, base, free
}

func (s *SpinRecorder) recordBasic(o *Outcome) {
	b := s.Basic
	tm, bm, fm := s.mults(o)

	b.TotalBet = b.TotalBet.Add(o.Bet)
	b.TotalWin = b.TotalWin.Add(o.Total())
	b.BaseWin = b.BaseWin.Add(o.BaseWin)
	b.FreeWin = b.FreeWin.Add(o.FreeWin)
	b.TotalWinMultSqSum += tm * tm
	b.BaseWinMultSqSum += bm * bm
	b.FreeWinMultSqSum += fm * fm
	if o.Triggered {
		b.Trigger++
	}
	b.FreeSpins += o.FreeSpins
	b.Jackpots += o.Jackpots
	b.Rounds++
}

func (s *SpinRecorder) recordDist(o *Outcome) {
	tm, bm, fm := s.mults(o)
	d := s.Dist
	d.TotalWinCollect[stats.Buckets.Index(tm)]++
	d.BaseWinCollect[stats.Buckets.Index(bm)]++
	d.FreeWinCollect[stats.Buckets.Index(fm)]++
}

func (s *SpinRecorder) recordPlayer(o *Outcome) bool {
	p := s.Player
	p.Balance = p.Balance.Sub(o.Bet).Add(o.Total())
	if p.Balance.GreaterThan(p.MaxBalance) {
		p.MaxBalance = p.Balance
	}
	if p.Balance.LessThan(p.MinBalance) {
		p.MinBalance = p.Balance
	}
	if o.Streak > p.BestStreak {
		p.BestStreak = o.Streak
	}

	leave := false
	if p.Balance.LessThan(s.Bet) {
		p.Bust = true
		leave = true
	}
	if p.leaveLine.IsPositive() && p.Balance.GreaterThanOrEqual(p.leaveLine) {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newDistRecord() *DistRecord {
	n := stats.Buckets.Len()
	return &DistRecord{
		TotalWinCollect: make([]int, n),
		BaseWinCollect:  make([]int, n),
		FreeWinCollect:  make([]int, n),
	}
}

// 離場條件：資金達到本金 3 倍
func newPlayerRecord(init decimal.Decimal) *PlayerRecord {
	return &PlayerRecord{
		leaveLine:   init.Mul(decimal.NewFromInt(3)),
		InitBalance: init,
		Balance:     init,
		MaxBalance:  init,
		MinBalance:  init,
	}
}
