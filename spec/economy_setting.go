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
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
)

// BetSetting 押注範圍
type BetSetting struct {
	Min     float64 `yaml:"min"     json:"min"`
	Max     float64 `yaml:"max"     json:"max"`
	Default float64 `yaml:"default" json:"default"`
	Step    float64 `yaml:"step"    json:"step"`

	MinD, MaxD, DefaultD, StepD decimal.Decimal `yaml:"-" json:"-"`
}

func (bs *BetSetting) Init() error {
	if bs.Step == 0 {
		bs.Step = 1
	}
	if bs.Default == 0 {
		bs.Default = bs.Min
	}
	if !(bs.Min > 0) {
		return errs.Fatalf("bet min must be > 0, got %v", bs.Min)
	}
	if bs.Max < bs.Min {
		return errs.Fatalf("bet max %v < min %v", bs.Max, bs.Min)
	}
	if bs.Default < bs.Min || bs.Default > bs.Max {
		return errs.Fatalf("bet default %v out of [%v,%v]", bs.Default, bs.Min, bs.Max)
	}
	if !(bs.Step > 0) {
		return errs.Fatalf("bet step must be > 0, got %v", bs.Step)
	}
	bs.MinD = decimal.NewFromFloat(bs.Min)
	bs.MaxD = decimal.NewFromFloat(bs.Max)
	bs.DefaultD = decimal.NewFromFloat(bs.Default)
	bs.StepD = decimal.NewFromFloat(bs.Step)
	return nil
}

// EconomySetting 開局資金
type EconomySetting struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`

	Initial decimal.Decimal `yaml:"-" json:"-"`
}

func (es *EconomySetting) Init() error {
	if es.InitialBalance < 0 {
		return errs.Fatalf("initial_balance must not be negative, got %v", es.InitialBalance)
	}
	es.Initial = decimal.NewFromFloat(es.InitialBalance)
	return nil
}

// JackpotSetting 獎池：定時以 [increment_min, increment_max] 的隨機整數累加，中獎後回到 base。
type JackpotSetting struct {
	Base         float64 `yaml:"base"          json:"base"`
	IncrementMin int     `yaml:"increment_min" json:"increment_min"`
	IncrementMax int     `yaml:"increment_max" json:"increment_max"`
	IntervalMs   int     `yaml:"interval_ms"   json:"interval_ms"` // 0 代表不自動累加

	BaseD    decimal.Decimal `yaml:"-" json:"-"`
	Interval time.Duration   `yaml:"-" json:"-"`
}

func (js *JackpotSetting) Init() error {
	if js.Base < 0 {
		return errs.Fatalf("jackpot base must not be negative, got %v", js.Base)
	}
	if js.IncrementMin < 0 || js.IncrementMax < js.IncrementMin {
		return errs.Fatalf("jackpot increment range invalid: [%d,%d]", js.IncrementMin, js.IncrementMax)
	}
	if js.IntervalMs < 0 {
		return errs.Fatalf("jackpot interval_ms must not be negative, got %d", js.IntervalMs)
	}
	js.BaseD = decimal.NewFromFloat(js.Base)
	js.Interval = time.Duration(js.IntervalMs) * time.Millisecond
	return nil
}
