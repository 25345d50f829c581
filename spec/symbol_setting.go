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
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
)

// Rarity 稀有度分類，Bonus 模式依此調整權重
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

var rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityLegendary}

func ParseRarity(s string) (Rarity, bool) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RarityCommon, true
	}
	return r, slices.Contains(rarities, r)
}

// SymbolSetting 單一符號定義
//
// 賠付二擇一：
//   - multiplier：平倍數，連線贏分 = bet × multiplier × run_factor[run]
//   - pays：依連線長度查表 {3,4,5}，值可為倍數或 JACKPOT
type SymbolSetting struct {
	ID         string           `yaml:"id"                   json:"id"`
	Weight     float64          `yaml:"weight"               json:"weight"`
	RarityStr  string           `yaml:"rarity,omitempty"     json:"rarity,omitempty"`
	Multiplier *PayValue        `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	Pays       map[int]PayValue `yaml:"pays,omitempty"       json:"pays,omitempty"`

	Rarity   Rarity `yaml:"-" json:"-"`
	initFlag bool
}

// Init 檢查設定並賦值
func (ss *SymbolSetting) Init() error {
	if ss.initFlag {
		return nil
	}
	ss.ID = strings.TrimSpace(ss.ID)
	if ss.ID == "" {
		return errs.NewFatal("symbol id required")
	}
	if !(ss.Weight > 0) {
		return errs.Fatalf("symbol %s: weight must be > 0, got %v", ss.ID, ss.Weight)
	}
	r, ok := ParseRarity(ss.RarityStr)
	if !ok {
		return errs.Fatalf("symbol %s: unknown rarity %q", ss.ID, ss.RarityStr)
	}
	ss.Rarity = r

	hasFlat := ss.Multiplier != nil
	hasPays := len(ss.Pays) > 0
	switch {
	case hasFlat && hasPays:
		return errs.Fatalf("symbol %s: multiplier and pays are mutually exclusive", ss.ID)
	case !hasFlat && !hasPays:
		return errs.Fatalf("symbol %s: multiplier or pays required", ss.ID)
	case hasFlat && ss.Multiplier.Jackpot:
		return errs.Fatalf("symbol %s: flat multiplier cannot be %s", ss.ID, JackpotLiteral)
	}
	if hasPays {
		for run := MinRun; run <= Reels; run++ {
			if _, ok := ss.Pays[run]; !ok {
				return errs.Fatalf("symbol %s: pays missing run %d", ss.ID, run)
			}
		}
		for run := range ss.Pays {
			if run < MinRun || run > Reels {
				return errs.Fatalf("symbol %s: pays run %d out of [%d,%d]", ss.ID, run, MinRun, Reels)
			}
		}
	}
	ss.initFlag = true
	return nil
}

// IsFlat 回傳是否為平倍數符號
func (ss *SymbolSetting) IsFlat() bool {
	return ss.Multiplier != nil
}

// FlatMult 平倍數；查表符號回傳 0
func (ss *SymbolSetting) FlatMult() decimal.Decimal {
	if ss.Multiplier == nil {
		return decimal.Zero
	}
	return ss.Multiplier.Mult
}

// PayFor 查表符號在 run 長度下的賠付格
func (ss *SymbolSetting) PayFor(run int) (PayValue, bool) {
	v, ok := ss.Pays[run]
	return v, ok
}

// HasJackpot 回傳此符號的賠付表是否含有 JACKPOT
func (ss *SymbolSetting) HasJackpot() bool {
	return lo.SomeBy(lo.Values(ss.Pays), func(p PayValue) bool { return p.Jackpot })
}

// ============================================================
// ** SymbolTable **
// ============================================================

// SymbolTable 靜態符號目錄：依設定檔順序排列，id 唯一，啟動後不可變。
//
// 同時持有兩組權重：BaseWeights 與 BonusWeights（稀有度加權後）。
// 順序即抽樣時的線性掃描順序，不可重排。
type SymbolTable struct {
	Symbols      []*SymbolSetting
	BaseWeights  []float64
	BonusWeights []float64
	Scatter      SymbolID // 沒有設定 scatter 時為 NoSymbol
	byName       map[string]SymbolID
}

func newSymbolTable(symbols []SymbolSetting, scatter string, boost map[Rarity]float64) (*SymbolTable, error) {
	if len(symbols) == 0 {
		return nil, errs.NewFatal("symbols required")
	}
	if len(symbols) > 1<<14 {
		return nil, errs.Fatalf("too many symbols: %d", len(symbols))
	}
	st := &SymbolTable{
		Symbols:      make([]*SymbolSetting, len(symbols)),
		BaseWeights:  make([]float64, len(symbols)),
		BonusWeights: make([]float64, len(symbols)),
		Scatter:      NoSymbol,
		byName:       make(map[string]SymbolID, len(symbols)),
	}
	for i := range symbols {
		s := &symbols[i]
		if err := s.Init(); err != nil {
			return nil, err
		}
		if _, dup := st.byName[s.ID]; dup {
			return nil, errs.Fatalf("duplicate symbol id %s", s.ID)
		}
		st.byName[s.ID] = SymbolID(i)
		st.Symbols[i] = s
		st.BaseWeights[i] = s.Weight
		st.BonusWeights[i] = s.Weight
		if f, ok := boost[s.Rarity]; ok {
			st.BonusWeights[i] = s.Weight * f
		}
	}
	if scatter != "" {
		id, ok := st.byName[scatter]
		if !ok {
			return nil, errs.Fatalf("scatter symbol %s not in symbols", scatter)
		}
		if !st.Symbols[id].IsFlat() {
			return nil, errs.Fatalf("scatter symbol %s needs a flat multiplier", scatter)
		}
		st.Scatter = id
	}
	return st, nil
}

// Len 符號數量
func (st *SymbolTable) Len() int { return len(st.Symbols) }

// Get 依 id 取得定義；越界回傳 nil
func (st *SymbolTable) Get(id SymbolID) *SymbolSetting {
	if id < 0 || int(id) >= len(st.Symbols) {
		return nil
	}
	return st.Symbols[id]
}

// Lookup 依名稱取得 id
func (st *SymbolTable) Lookup(name string) (SymbolID, bool) {
	id, ok := st.byName[name]
	return id, ok
}

// Name 依 id 取得名稱；越界回傳空字串
func (st *SymbolTable) Name(id SymbolID) string {
	if s := st.Get(id); s != nil {
		return s.ID
	}
	return ""
}

// Names 依表格順序回傳所有名稱
func (st *SymbolTable) Names() []string {
	return lo.Map(st.Symbols, func(s *SymbolSetting, _ int) string { return s.ID })
}

// Weights 依 bonus 狀態回傳作用中的權重組
func (st *SymbolTable) Weights(bonusActive bool) []float64 {
	if bonusActive {
		return st.BonusWeights
	}
	return st.BaseWeights
}

// HasJackpot 是否有任何符號帶 JACKPOT 賠付
func (st *SymbolTable) HasJackpot() bool {
	return lo.SomeBy(st.Symbols, func(s *SymbolSetting) bool { return s.HasJackpot() })
}
