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

import "fmt"

// 盤面固定為 5 軸 × 3 列。
const (
	Reels = 5
	Rows  = 3
	Cells = Reels * Rows
)

// TID 主題編號（Catalog 內唯一）
type TID uint

// SymbolID 為符號在 SymbolTable 中的索引（依設定檔順序）。
type SymbolID int16

// NoSymbol 表示沒有符號（例如未中線的 MatchedSymbol）。
const NoSymbol SymbolID = -1

// Pos 盤面座標
type Pos struct {
	Reel int `json:"reel" yaml:"reel"`
	Row  int `json:"row"  yaml:"row"`
}

// Matrix 為一次 Spin 的盤面，column-major：m[reel][row]。
//
// 由產生它的 Spin 獨佔，算分與呈現完成後即可丟棄。
type Matrix [Reels][Rows]SymbolID

// At 取得座標上的符號
func (m *Matrix) At(p Pos) SymbolID {
	return m[p.Reel][p.Row]
}

// Row 依序取出某一列（左到右）
func (m *Matrix) Row(row int) [Reels]SymbolID {
	var out [Reels]SymbolID
	for r := 0; r < Reels; r++ {
		out[r] = m[r][row]
	}
	return out
}

// Payline 是固定、有序（左到右）的座標序列。
type Payline struct {
	ID    int        `json:"id"`
	Cells [Reels]Pos `json:"cells"`
}

func (p Payline) String() string {
	rows := make([]int, Reels)
	for i, c := range p.Cells {
		rows[i] = c.Row
	}
	return fmt.Sprintf("line#%d%v", p.ID, rows)
}
