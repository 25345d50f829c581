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

// Package bonus 免費遊戲狀態機：Idle 與 Active(spinsRemaining, multiplier)。
//
// 所有轉換都是純函式：輸入舊狀態、回傳新狀態，不修改參數。
package bonus

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/spec"
)

// State 免費遊戲狀態
type State struct {
	Active         bool            `json:"active"`
	SpinsRemaining int             `json:"spins_remaining"`
	Multiplier     decimal.Decimal `json:"multiplier"`
}

// Idle 初始狀態，倍數為 1
func Idle() State {
	return State{Multiplier: decimal.NewFromInt(1)}
}

// Mult 派彩用倍數；零值狀態也視為 1
func (s State) Mult() decimal.Decimal {
	if !s.Active || s.Multiplier.IsZero() {
		return decimal.NewFromInt(1)
	}
	return s.Multiplier
}

// Machine 持有免費遊戲參數
type Machine struct {
	freeSpins  int
	multiplier decimal.Decimal
}

// NewMachine 依已初始化的 BonusSetting 建立
func NewMachine(bs *spec.BonusSetting) *Machine {
	return &Machine{freeSpins: bs.FreeSpins, multiplier: bs.Mult}
}

// FreeSpins 觸發時給予的次數
func (m *Machine) FreeSpins() int { return m.freeSpins }

// Trigger Idle → Active。已在 Active 時不延長、不疊加。
func (m *Machine) Trigger(s State) State {
	if s.Active {
		return s
	}
	return State{Active: true, SpinsRemaining: m.freeSpins, Multiplier: m.multiplier}
}

// Settle 一次 Spin 結算後的轉換。
//
// wasActive 是該次 Spin 開始前的狀態：只有在 Active 中轉出的 Spin 才扣次數，
// 同一次 Spin 剛觸發的 bonus 不會被立刻扣掉。
// 觸發訊號在扣次之後處理；Active 中再觸發維持原狀。
func (m *Machine) Settle(before State, trigger bool) State {
	next := before
	if before.Active {
		next.SpinsRemaining--
		if next.SpinsRemaining <= 0 {
			next = Idle()
		}
	}
	if trigger && !before.Active {
		next = m.Trigger(next)
	}
	return next
}
