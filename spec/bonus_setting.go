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

// ScatterSetting 分散符號規則：全盤 15 格計數，與線無關。
type ScatterSetting struct {
	Symbol     string `yaml:"symbol"                json:"symbol"`
	MinCount   int    `yaml:"min_count,omitempty"   json:"min_count,omitempty"`   // 達到即派彩，預設 3
	BonusCount int    `yaml:"bonus_count,omitempty" json:"bonus_count,omitempty"` // 達到即觸發 Bonus，預設 4；-1 代表不觸發
}

// Enabled 是否設定了 scatter
func (sc *ScatterSetting) Enabled() bool {
	return sc.Symbol != ""
}

func (sc *ScatterSetting) Init() error {
	if !sc.Enabled() {
		return nil
	}
	if sc.MinCount == 0 {
		sc.MinCount = 3
	}
	if sc.BonusCount == 0 {
		sc.BonusCount = 4
	}
	if sc.MinCount < 1 || sc.MinCount > Cells {
		return errs.Fatalf("scatter min_count %d out of [1,%d]", sc.MinCount, Cells)
	}
	if sc.BonusCount > Cells {
		return errs.Fatalf("scatter bonus_count %d exceeds %d cells", sc.BonusCount, Cells)
	}
	return nil
}

// Triggers 是否達到觸發 Bonus 的數量
func (sc *ScatterSetting) Triggers(count int) bool {
	return sc.Enabled() && sc.BonusCount > 0 && count >= sc.BonusCount
}

// BonusSetting Bonus（免費遊戲）參數
type BonusSetting struct {
	FreeSpins     int      `yaml:"free_spins"               json:"free_spins"`
	Multiplier    float64  `yaml:"multiplier"               json:"multiplier"`
	BoostRarities []string `yaml:"boost_rarities,omitempty" json:"boost_rarities,omitempty"`
	BoostFactor   float64  `yaml:"boost_factor,omitempty"   json:"boost_factor,omitempty"`

	Mult     decimal.Decimal    `yaml:"-" json:"-"`
	Boost    map[Rarity]float64 `yaml:"-" json:"-"`
	initFlag bool
}

func (bs *BonusSetting) Init() error {
	if bs.initFlag {
		return nil
	}
	if bs.FreeSpins == 0 {
		bs.FreeSpins = 10
	}
	if bs.Multiplier == 0 {
		bs.Multiplier = 2
	}
	if bs.BoostFactor == 0 {
		bs.BoostFactor = 2
	}
	if bs.BoostRarities == nil {
		bs.BoostRarities = []string{string(RarityRare), string(RarityLegendary)}
	}
	if bs.FreeSpins < 1 {
		return errs.Fatalf("bonus free_spins must be >= 1, got %d", bs.FreeSpins)
	}
	if bs.Multiplier < 1 {
		return errs.Fatalf("bonus multiplier must be >= 1, got %v", bs.Multiplier)
	}
	if !(bs.BoostFactor > 0) {
		return errs.Fatalf("bonus boost_factor must be > 0, got %v", bs.BoostFactor)
	}
	bs.Mult = decimal.NewFromFloat(bs.Multiplier)
	bs.Boost = make(map[Rarity]float64, len(bs.BoostRarities))
	for _, s := range bs.BoostRarities {
		r, ok := ParseRarity(s)
		if !ok {
			return errs.Fatalf("bonus boost_rarities: unknown rarity %q", s)
		}
		bs.Boost[r] = bs.BoostFactor
	}
	bs.initFlag = true
	return nil
}
