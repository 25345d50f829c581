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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/reelkit/sdk/core"
	"pgregory.net/rapid"
)

func TestNewWeightSetRejectsBadWeights(t *testing.T) {
	for _, w := range [][]float64{nil, {1, 0}, {-1}, {math.Inf(1)}, {math.NaN()}} {
		if _, err := NewWeightSet(w); err == nil {
			t.Fatalf("expected error for %v", w)
		}
	}
}

// 邊界落點：r 剛好等於累積權重時屬於該項（餘數 <= 0）
func TestPickBoundary(t *testing.T) {
	ws, _ := NewWeightSet([]float64{2, 3, 5})
	cases := []struct {
		r    float64
		want int
	}{
		{0, 0}, {1.999, 0}, {2, 0}, {2.0001, 1}, {5, 1}, {5.5, 2}, {10, 2},
		{10.0000001, 0}, // 掃描落空回到第 0 項
	}
	for _, c := range cases {
		if got := ws.Pick(c.r); got != c.want {
			t.Fatalf("Pick(%v) = %d, want %d", c.r, got, c.want)
		}
	}
}

// 大量抽樣需收斂到設定比例
func TestSelectConvergesToWeights(t *testing.T) {
	weights := []float64{35, 25, 20, 12, 5, 2.5, 0.5}
	ws, err := NewWeightSet(weights)
	if err != nil {
		t.Fatal(err)
	}
	c := core.New(core.Default().New(20251018))
	const n = 400_000
	hits := make([]int, len(weights))
	for i := 0; i < n; i++ {
		hits[ws.Select(c)]++
	}
	for i, w := range weights {
		p := w / ws.Total()
		got := float64(hits[i]) / n
		// 5 個標準差的容忍範圍
		tol := 5 * math.Sqrt(p*(1-p)/n)
		if math.Abs(got-p) > tol {
			t.Fatalf("symbol %d: freq %.5f, want %.5f ± %.5f", i, got, p, tol)
		}
	}
}

func TestSelectAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = rapid.Float64Range(1e-6, 1e6).Draw(t, "w")
		}
		ws, err := NewWeightSet(weights)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seed := rapid.Int64().Draw(t, "seed")
		c := core.New(core.Default().New(seed))
		for i := 0; i < 50; i++ {
			if got := ws.Select(c); got < 0 || got >= n {
				t.Fatalf("index out of range: %d", got)
			}
		}
		r := rapid.Float64Range(0, ws.Total()*1.01).Draw(t, "r")
		if got := ws.Pick(r); got < 0 || got >= n {
			t.Fatalf("Pick out of range: %d", got)
		}
	})
}
