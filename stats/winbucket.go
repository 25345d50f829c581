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

package stats

import (
	"sort"
)

// WinBuckets 贏倍分桶
type WinBuckets struct {
	bounds []float64
	labels []string
}

// Buckets 預設分桶（以押注為 1 倍）
//
// 請勿修改預設值
//   - 區間: [0,0], (0,1), [1,2), [2,5), ..., [2000,10000), [10000, +inf)
var Buckets *WinBuckets = &WinBuckets{
	bounds: []float64{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	labels: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.labels
}

// Len 桶數
func (b *WinBuckets) Len() int {
	return len(b.labels)
}

// Index 贏倍 -> 桶索引。0 倍獨立一桶，其餘為左閉右開。
func (b *WinBuckets) Index(mult float64) int {
	if mult <= 0 {
		return 0
	}
	// bounds[1:] 中第一個 > mult 的位置
	return sort.Search(len(b.bounds)-1, func(i int) bool { return b.bounds[i+1] > mult }) + 1
}
