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
	"testing"

	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/spec"
)

func buildTheme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	one := spec.Pay(1)
	ts := &spec.ThemeSetting{
		ThemeName: "gen",
		Symbols: []spec.SymbolSetting{
			{ID: "common", Weight: 90, Multiplier: &one},
			{ID: "rare", Weight: 10, RarityStr: "rare", Multiplier: &one},
		},
		Paylines: spec.PaylineSetting{Lines: [][]int{{0, 0, 0, 0, 0}}},
		Bet:      spec.BetSetting{Min: 1, Max: 10},
	}
	if err := ts.Init(); err != nil {
		t.Fatalf("init theme: %v", err)
	}
	return ts
}

func TestGenerateDeterministic(t *testing.T) {
	ts := buildTheme(t)
	g1, err := NewReelGenerator(core.New(core.Default().New(5)), ts.Table)
	if err != nil {
		t.Fatal(err)
	}
	g2, _ := NewReelGenerator(core.New(core.Default().New(5)), ts.Table)
	for i := 0; i < 20; i++ {
		if g1.Generate(i%2 == 0) != g2.Generate(i%2 == 0) {
			t.Fatalf("same seed must generate same matrix at %d", i)
		}
	}
}

func TestGenerateIdsInTable(t *testing.T) {
	ts := buildTheme(t)
	g, _ := NewReelGenerator(core.New(core.Default().New(11)), ts.Table)
	for i := 0; i < 200; i++ {
		m := g.Generate(false)
		for reel := range m {
			for _, id := range m[reel] {
				if ts.Table.Get(id) == nil {
					t.Fatalf("id %d not in table", id)
				}
			}
		}
	}
}

// Bonus 模式下稀有符號出現率要明顯提高（10% -> 約 18%）
func TestBonusBoostsRareSymbols(t *testing.T) {
	ts := buildTheme(t)
	g, _ := NewReelGenerator(core.New(core.Default().New(99)), ts.Table)
	count := func(bonus bool) int {
		n := 0
		for i := 0; i < 20000; i++ {
			m := g.Generate(bonus)
			for reel := range m {
				for _, id := range m[reel] {
					if id == 1 {
						n++
					}
				}
			}
		}
		return n
	}
	base, bonus := count(false), count(true)
	if float64(bonus) < float64(base)*1.5 {
		t.Fatalf("bonus weights should boost rare symbols: base=%d bonus=%d", base, bonus)
	}
	if g.WeightSet(true).Total() != 110 {
		t.Fatalf("bonus total should be 110, got %v", g.WeightSet(true).Total())
	}
}

func TestNewReelGeneratorNil(t *testing.T) {
	if _, err := NewReelGenerator(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
