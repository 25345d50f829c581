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

// Package jackpot 累積獎池。
//
// 獎池是整個行程共用的背景狀態：定時累加隨機金額，被 JACKPOT 線領取時回到基礎值。
// 計時累加與 Spin 領取可能同時發生；領取一律「先讀後重置」，
// 在同一把鎖內完成，不會出現讀到一半被累加覆蓋的情況。
package jackpot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/spec"
)

// Pool 單一主題的獎池
type Pool struct {
	theme    string
	base     decimal.Decimal
	incMin   int
	incMax   int
	interval time.Duration

	mu     sync.Mutex
	amount decimal.Decimal
	core   *core.Core
	wins   int

	broad *Broadcaster
	log   *slog.Logger
}

// NewPool 依主題建立，起始金額為 base。
//
// rng 只用於決定每次累加的金額，與盤面 RNG 分開。log 為 nil 時使用 slog.Default。
func NewPool(ts *spec.ThemeSetting, rng core.PRNG, log *slog.Logger) (*Pool, error) {
	if ts == nil || ts.Table == nil {
		return nil, errs.NewFatal("jackpot: initialized theme required")
	}
	if rng == nil {
		return nil, errs.NewFatal("jackpot: rng required")
	}
	if log == nil {
		log = slog.Default()
	}
	js := ts.Jackpot
	return &Pool{
		theme:    ts.ThemeName,
		base:     js.BaseD,
		incMin:   js.IncrementMin,
		incMax:   js.IncrementMax,
		interval: js.Interval,
		amount:   js.BaseD,
		core:     core.New(rng),
		broad:    NewBroadcaster(16),
		log:      log.With(slog.String("theme", ts.ThemeName)),
	}, nil
}

// Theme 所屬主題
func (p *Pool) Theme() string { return p.theme }

// Interval 自動累加間隔；0 代表不累加
func (p *Pool) Interval() time.Duration { return p.interval }

// Base 基礎值
func (p *Pool) Base() decimal.Decimal { return p.base }

// Amount 目前金額
func (p *Pool) Amount() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.amount
}

// Wins 被領取次數
func (p *Pool) Wins() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wins
}

// Claim 領取：回傳當下金額並重置為 base
func (p *Pool) Claim() decimal.Decimal {
	p.mu.Lock()
	won := p.amount
	p.amount = p.base
	p.wins++
	p.mu.Unlock()

	p.log.Info("jackpot.claim", slog.String("won", won.String()), slog.String("reset_to", p.base.String()))
	p.broad.Send(Update{Theme: p.theme, Amount: p.base, Won: true, Timestamp: time.Now()})
	return won
}

// Tick 累加一次 [increment_min, increment_max] 的隨機整數，回傳累加後金額
func (p *Pool) Tick() decimal.Decimal {
	p.mu.Lock()
	inc := p.core.IntRange(p.incMin, p.incMax)
	p.amount = p.amount.Add(decimal.NewFromInt(int64(inc)))
	now := p.amount
	p.mu.Unlock()

	p.broad.Send(Update{Theme: p.theme, Amount: now, Timestamp: time.Now()})
	return now
}

// Listen 訂閱獎池異動
func (p *Pool) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	return p.broad.Listen(ctx)
}

// Run 依 interval 定時累加，直到 ctx 結束。interval 為 0 時直接返回。
func (p *Pool) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.log.Debug("jackpot.ticker.start", slog.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("jackpot.ticker.stop")
			return
		case <-ticker.C:
			p.Tick()
		}
	}
}
