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
	"github.com/zintix-labs/reelkit/errs"
)

// ThemeSetting 一套主題的完整設定。
//
// 不同主題（水果、加密貨幣、霓虹）只是資料差異：同一套引擎依此設定運作。
type ThemeSetting struct {
	ThemeName string          `yaml:"theme_name"         json:"theme_name"`
	ThemeID   TID             `yaml:"theme_id"           json:"theme_id"`
	RNG       string          `yaml:"rng,omitempty"      json:"rng,omitempty"`
	Symbols   []SymbolSetting `yaml:"symbols"            json:"symbols"`
	Scatter   ScatterSetting  `yaml:"scatter,omitempty"  json:"scatter,omitempty"`
	Paylines  PaylineSetting  `yaml:"paylines"           json:"paylines"`
	Bonus     BonusSetting    `yaml:"bonus,omitempty"    json:"bonus,omitempty"`
	Jackpot   JackpotSetting  `yaml:"jackpot,omitempty"  json:"jackpot,omitempty"`
	Bet       BetSetting      `yaml:"bet"                json:"bet"`
	Economy   EconomySetting  `yaml:"economy"            json:"economy"`

	Table *SymbolTable `yaml:"-" json:"-"`
}

// init 依序初始化子設定並建立 SymbolTable
func (ts *ThemeSetting) init() error {
	if err := ts.Scatter.Init(); err != nil {
		return err
	}
	if err := ts.Paylines.Init(); err != nil {
		return err
	}
	if err := ts.Bonus.Init(); err != nil {
		return err
	}
	if err := ts.Jackpot.Init(); err != nil {
		return err
	}
	if err := ts.Bet.Init(); err != nil {
		return err
	}
	if err := ts.Economy.Init(); err != nil {
		return err
	}
	table, err := newSymbolTable(ts.Symbols, ts.Scatter.Symbol, ts.Bonus.Boost)
	if err != nil {
		return err
	}
	ts.Table = table
	return ts.valid()
}

// valid 跨欄位檢查
func (ts *ThemeSetting) valid() error {
	if ts.ThemeName == "" {
		return errs.NewFatal("theme_name required")
	}
	switch ts.RNG {
	case "", "pcg64", "pcg32":
	default:
		return errs.Fatalf("theme %s: unknown rng %q", ts.ThemeName, ts.RNG)
	}
	if ts.Table.HasJackpot() && ts.Jackpot.Base <= 0 {
		return errs.Fatalf("theme %s: JACKPOT pays need jackpot.base > 0", ts.ThemeName)
	}
	return nil
}

// Init 供以程式碼組裝的設定使用（測試、內嵌主題）。重複呼叫安全。
func (ts *ThemeSetting) Init() error {
	if ts.Table != nil {
		return nil
	}
	return ts.init()
}
