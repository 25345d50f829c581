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

package reelkit

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/jackpot"
	"github.com/zintix-labs/reelkit/sdk/bonus"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/gen"
	"github.com/zintix-labs/reelkit/sdk/ledger"
	"github.com/zintix-labs/reelkit/sdk/payout"
	"github.com/zintix-labs/reelkit/spec"
)

// Engine 一個主題的規則引擎。
//
// Engine 本身不持有任何 session 狀態：Bonus 與經濟狀態由呼叫端傳入、由回傳值帶回。
// 唯一共享的可變物件是 jackpot.Pool（同主題所有 session 共用）。
//
// 一局的三個步驟：
//  1. debit：檢查餘額並扣款（Bonus 期間不扣）
//  2. resolve：產生盤面 -> 連線/Scatter 判定 -> 派彩
//  3. settle：推進 Bonus 狀態機與帳本
type Engine struct {
	theme  *spec.ThemeSetting
	cf     core.PRNGFactory
	eval   *calc.Evaluator
	pay    *payout.Calculator
	bonus  *bonus.Machine
	ledger *ledger.Ledger
	pool   *jackpot.Pool // 主題沒有 JACKPOT 派彩時為 nil
	log    *slog.Logger
}

// Round 一次 Spin 結算後交給呼叫端（渲染層）的結果
type Round struct {
	ID             uuid.UUID        `json:"id"`
	Matrix         spec.Matrix      `json:"matrix"`
	Win            payout.WinResult `json:"win"`
	Bonus          bonus.State      `json:"bonus"`
	Economy        ledger.State     `json:"economy"`
	FreeSpin       bool             `json:"free_spin"`       // 本局在 Bonus 中進行，未扣押注
	BonusTriggered bool             `json:"bonus_triggered"` // 本局讓 Bonus 由 Idle 進入 Active
	GameOver       bool             `json:"game_over"`
}

// NewEngine 以已初始化的主題建立引擎；pool 可為 nil。
func NewEngine(ts *spec.ThemeSetting, pool *jackpot.Pool, log *slog.Logger) (*Engine, error) {
	if ts == nil {
		return nil, errs.NewFatal("engine: theme required")
	}
	if err := ts.Init(); err != nil {
		return nil, err
	}
	cf, err := core.FactoryByName(ts.RNG)
	if err != nil {
		return nil, err
	}
	eval, err := calc.NewEvaluator(ts)
	if err != nil {
		return nil, err
	}
	pay, err := payout.NewCalculator(ts)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		theme:  ts,
		cf:     cf,
		eval:   eval,
		pay:    pay,
		bonus:  bonus.NewMachine(&ts.Bonus),
		ledger: ledger.New(ts),
		pool:   pool,
		log:    log.With(slog.String("theme", ts.ThemeName)),
	}, nil
}

func (e *Engine) Theme() *spec.ThemeSetting { return e.theme }

func (e *Engine) Name() string { return e.theme.ThemeName }

func (e *Engine) ID() spec.TID { return e.theme.ThemeID }

// Pool 可能為 nil
func (e *Engine) Pool() *jackpot.Pool { return e.pool }

func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Open 新 session 的起始狀態
func (e *Engine) Open() (bonus.State, ledger.State) {
	return bonus.Idle(), e.ledger.Open()
}

// NewReels 以 seed 建立一組獨立的盤面產生器，回傳的 Core 可用於 Snapshot/Restore。
func (e *Engine) NewReels(seed int64) (*gen.ReelGenerator, *core.Core, error) {
	c := core.New(e.cf.New(seed))
	g, err := gen.NewReelGenerator(c, e.theme.Table)
	if err != nil {
		return nil, nil, err
	}
	return g, c, nil
}

// ResolveSpin 一次完整的 Spin：扣款、產生盤面、判定派彩、推進狀態。
//
// 不修改傳入的狀態，新狀態放在 Round 內回傳。
// 餘額不足時回傳 errs.ErrInsufficientBalance，Round 帶原狀態且 GameOver 為 true。
func (e *Engine) ResolveSpin(reels *gen.ReelGenerator, bs bonus.State, es ledger.State) (Round, error) {
	debited, err := e.debit(bs, es)
	if err != nil {
		return Round{Bonus: bs, Economy: es, GameOver: true}, err
	}
	m, win := e.resolve(reels, bs, es.Bet)
	return e.settle(m, win, bs, debited), nil
}

func (e *Engine) debit(bs bonus.State, es ledger.State) (ledger.State, error) {
	return e.ledger.Debit(es, bs.Active)
}

func (e *Engine) resolve(reels *gen.ReelGenerator, bs bonus.State, bet decimal.Decimal) (spec.Matrix, payout.WinResult) {
	m := reels.Generate(bs.Active)
	return m, e.price(&m, bs, bet)
}

func (e *Engine) price(m *spec.Matrix, bs bonus.State, bet decimal.Decimal) payout.WinResult {
	ev := e.eval.Evaluate(m)
	// typed nil 不能直接塞進 interface
	var src payout.JackpotSource
	if e.pool != nil {
		src = e.pool
	}
	return e.pay.Price(ev, bet, bs.Mult(), src)
}

func (e *Engine) settle(m spec.Matrix, win payout.WinResult, before bonus.State, es ledger.State) Round {
	after := e.bonus.Settle(before, win.BonusTrigger)
	econ := e.ledger.Settle(es, win.TotalWin)
	r := Round{
		ID:             uuid.New(),
		Matrix:         m,
		Win:            win,
		Bonus:          after,
		Economy:        econ,
		FreeSpin:       before.Active,
		BonusTriggered: !before.Active && after.Active,
		GameOver:       e.ledger.GameOver(econ, after.Active),
	}
	if win.IsJackpot {
		e.log.Info("spin.jackpot", slog.String("round", r.ID.String()), slog.String("win", win.TotalWin.String()))
	}
	switch {
	case r.BonusTriggered:
		e.log.Info("bonus.enter", slog.Int("spins", after.SpinsRemaining), slog.String("mult", after.Multiplier.String()))
	case before.Active && !after.Active:
		e.log.Info("bonus.exit")
	}
	return r
}

// quiet 複製一份不輸出日誌、使用私有獎池的引擎（模擬用）；p 可為 nil。
func (e *Engine) quiet(p *jackpot.Pool) *Engine {
	cp := *e
	cp.pool = p
	cp.log = slog.New(slog.DiscardHandler)
	return &cp
}
