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

// Package sampler 提供符號權重抽樣。
//
// WeightSet 使用線性掃描：抽 r ∈ [0,W)，依表格順序逐一扣除權重，第一個讓餘數 <= 0 的項目即為結果。
// 表格順序決定邊界落點（浮點誤差時尤其明顯），因此不可排序或改用累積表二分搜尋。
package sampler

import (
	"math"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
)

// WeightSet 不可變的權重組，可被多個 goroutine 共用。
type WeightSet struct {
	weights []float64
	total   float64
}

// NewWeightSet 建立權重組；權重需為有限正數。
func NewWeightSet(weights []float64) (*WeightSet, error) {
	if len(weights) == 0 {
		return nil, errs.NewFatal("sampler: empty weights")
	}
	ws := &WeightSet{weights: make([]float64, len(weights))}
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, errs.Fatalf("sampler: weight[%d]=%v must be finite and > 0", i, w)
		}
		ws.weights[i] = w
		ws.total += w
	}
	return ws, nil
}

// Len 項目數
func (ws *WeightSet) Len() int { return len(ws.weights) }

// Total 權重總和 W
func (ws *WeightSet) Total() float64 { return ws.total }

// Weight 第 i 項權重
func (ws *WeightSet) Weight(i int) float64 { return ws.weights[i] }

// Select 抽出一個索引，永遠有回傳值。
func (ws *WeightSet) Select(rng core.RAND) int {
	return ws.Pick(rng.Float64() * ws.total)
}

// Pick 以給定的 r ∈ [0,W) 做線性掃描。
// 浮點誤差導致掃描結束仍未命中時，回傳第 0 項。
func (ws *WeightSet) Pick(r float64) int {
	for i, w := range ws.weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return 0
}
