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

package gen

import (
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/sampler"
	"github.com/zintix-labs/reelkit/spec"
)

// ReelGenerator 以符號權重逐格抽樣產生 5×3 盤面。
//
// 每格獨立抽樣（可重複），沒有滾輪帶的概念；滾動畫面屬於呈現層。
// Bonus 作用中時改用稀有度加權後的權重組。
type ReelGenerator struct {
	core  *core.Core
	base  *sampler.WeightSet
	bonus *sampler.WeightSet
}

// NewReelGenerator 依 SymbolTable 的兩組權重建立生成器
func NewReelGenerator(c *core.Core, table *spec.SymbolTable) (*ReelGenerator, error) {
	if c == nil || table == nil {
		return nil, errs.NewFatal("reel generator: core and symbol table required")
	}
	base, err := sampler.NewWeightSet(table.BaseWeights)
	if err != nil {
		return nil, errs.Wrap(err, "reel generator: base weights")
	}
	bonus, err := sampler.NewWeightSet(table.BonusWeights)
	if err != nil {
		return nil, errs.Wrap(err, "reel generator: bonus weights")
	}
	return &ReelGenerator{core: c, base: base, bonus: bonus}, nil
}

// Generate 產生新盤面，依 reel 0..4、row 0..2 的順序抽 15 次。
func (g *ReelGenerator) Generate(bonusActive bool) spec.Matrix {
	ws := g.base
	if bonusActive {
		ws = g.bonus
	}
	var m spec.Matrix
	for reel := 0; reel < spec.Reels; reel++ {
		for row := 0; row < spec.Rows; row++ {
			m[reel][row] = spec.SymbolID(ws.Select(g.core))
		}
	}
	return m
}

// WeightSet 回傳作用中的權重組（觀測/測試用）
func (g *ReelGenerator) WeightSet(bonusActive bool) *sampler.WeightSet {
	if bonusActive {
		return g.bonus
	}
	return g.base
}
