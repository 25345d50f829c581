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
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bonus"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/gen"
	"github.com/zintix-labs/reelkit/sdk/ledger"
)

// Phase 單次 Spin 的進度
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseDebiting
	PhaseResolving
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebiting:
		return "debiting"
	case PhaseResolving:
		return "resolving"
	case PhaseSettled:
		return "settled"
	}
	return "unknown"
}

// SessionOptions 自動轉的節奏設定；只影響兩次 Spin 之間的等待，不影響結果。
type SessionOptions struct {
	AutoSpinDelay time.Duration // 一般模式
	TurboDelay    time.Duration // Turbo 模式
	RetryDelay    time.Duration // 撞到 AlreadySpinning 時的重試間隔
	OnRound       func(Round)   // 每局結算後呼叫（自動轉與手動皆會），呼叫時已釋放鎖
	Logger        *slog.Logger
}

func (o *SessionOptions) init() {
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Session 一位玩家的遊戲狀態與 Spin 排序器。
//
// 同一時間只允許一局在進行：第二個 TriggerSpin 直接回 ErrAlreadySpinning，不會排隊。
// 自動轉依序呼叫 TriggerSpin，停止只在局與局之間生效。
type Session struct {
	id    uuid.UUID
	eng   *Engine
	seed  int64
	reels *gen.ReelGenerator
	core  *core.Core
	opt   SessionOptions
	log   *slog.Logger

	phase  atomic.Int32
	turbo  atomic.Bool
	closed atomic.Bool

	mu    sync.Mutex // 保護以下狀態；一局進行中全程持有
	bonus bonus.State
	econ  ledger.State
	last  *Round

	autoMu sync.Mutex
	auto   *autoRun
}

type autoRun struct {
	remaining atomic.Int64
	stop      atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	err       error // 提前結束的原因；done 關閉後才可讀
}

// View 給 HUD 的狀態快照
type View struct {
	ID        uuid.UUID    `json:"id"`
	Theme     string       `json:"theme"`
	Phase     string       `json:"phase"`
	Bonus     bonus.State  `json:"bonus"`
	Economy   ledger.State `json:"economy"`
	Turbo     bool         `json:"turbo"`
	AutoSpin  int          `json:"auto_spin"`
	GameOver  bool         `json:"game_over"`
	LastRound *Round       `json:"last_round,omitempty"`
}

func newSession(eng *Engine, seed int64, opt SessionOptions) (*Session, error) {
	reels, c, err := eng.NewReels(seed)
	if err != nil {
		return nil, err
	}
	opt.init()
	id := uuid.New()
	s := &Session{
		id:    id,
		eng:   eng,
		seed:  seed,
		reels: reels,
		core:  c,
		opt:   opt,
		log:   opt.Logger.With(slog.String("session", id.String()), slog.String("theme", eng.Name())),
	}
	s.bonus, s.econ = eng.Open()
	return s, nil
}

// NewSession 直接以引擎建立 session（不經過 SessionHub）
func NewSession(eng *Engine, seed int64, opt SessionOptions) (*Session, error) {
	if eng == nil {
		return nil, errs.NewFatal("session: engine required")
	}
	return newSession(eng, seed, opt)
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Seed() int64 { return s.seed }

func (s *Session) Engine() *Engine { return s.eng }

func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// TriggerSpin 進行一局。
//
// 拒絕的情況都不改變狀態：
//   - 已有一局在進行：ErrAlreadySpinning
//   - 餘額不足且不在 Bonus 中：ErrInsufficientBalance（回傳的 Round 帶 GameOver）
func (s *Session) TriggerSpin() (Round, error) {
	if s.closed.Load() {
		return Round{}, errs.ErrSessionClosed
	}
	if !s.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseDebiting)) {
		s.log.Debug("spin.rejected", slog.String("reason", errs.ErrAlreadySpinning.Code))
		return Round{}, errs.ErrAlreadySpinning
	}
	r, err := s.spin()
	s.phase.Store(int32(PhaseIdle))
	if err == nil && s.opt.OnRound != nil {
		s.opt.OnRound(r)
	}
	return r, err
}

// spin 狀態只在最後一次寫回；中途 panic 時狀態不變。
func (s *Session) spin() (r Round, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("spin.panic", slog.Any("panic", rec))
			r, err = Round{}, errs.Fatalf("spin panic: %v", rec)
		}
	}()
	if s.closed.Load() {
		return Round{}, errs.ErrSessionClosed
	}

	bs, es := s.bonus, s.econ
	debited, err := s.eng.debit(bs, es)
	if err != nil {
		s.log.Debug("spin.rejected", slog.String("reason", errs.ErrInsufficientBalance.Code), slog.String("balance", es.Balance.String()))
		return Round{Bonus: bs, Economy: es, GameOver: true}, err
	}

	s.phase.Store(int32(PhaseResolving))
	m, win := s.eng.resolve(s.reels, bs, es.Bet)

	s.phase.Store(int32(PhaseSettled))
	r = s.eng.settle(m, win, bs, debited)
	s.bonus, s.econ = r.Bonus, r.Economy
	s.last = &r
	return r, nil
}

// PlaceBet 設定押注；超出範圍會被夾回 [min, min(max, balance)] 並回傳 ErrInvalidBet（Log 等級）。
func (s *Session) PlaceBet(amount decimal.Decimal) (ledger.State, error) {
	return s.adjustBet(func(es ledger.State) (ledger.State, error) {
		return s.eng.ledger.PlaceBet(es, amount)
	})
}

func (s *Session) IncreaseBet() (ledger.State, error) {
	return s.adjustBet(s.eng.ledger.IncreaseBet)
}

func (s *Session) DecreaseBet() (ledger.State, error) {
	return s.adjustBet(s.eng.ledger.DecreaseBet)
}

func (s *Session) MaxBet() (ledger.State, error) {
	return s.adjustBet(func(es ledger.State) (ledger.State, error) {
		return s.eng.ledger.MaxBet(es), nil
	})
}

func (s *Session) adjustBet(fn func(ledger.State) (ledger.State, error)) (ledger.State, error) {
	if s.closed.Load() {
		return ledger.State{}, errs.ErrSessionClosed
	}
	if s.Phase() != PhaseIdle {
		return ledger.State{}, errs.ErrAlreadySpinning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.econ)
	s.econ = next
	if err != nil {
		s.log.Debug("bet.clamped", slog.String("bet", next.Bet.String()))
	}
	return next, err
}

// SetTurbo 只影響自動轉節奏
func (s *Session) SetTurbo(on bool) {
	s.turbo.Store(on)
}

func (s *Session) Turbo() bool {
	return s.turbo.Load()
}

// SetAutoSpin 啟動自動轉 count 次；已有自動轉在跑時回 ErrAutoSpinRunning。
//
// 自動轉在下列情況提前結束：計數歸零、StopAutoSpin、ctx 取消、餘額不足、session 關閉。
func (s *Session) SetAutoSpin(ctx context.Context, count int) error {
	if s.closed.Load() {
		return errs.ErrSessionClosed
	}
	if count <= 0 {
		return errs.Warnf("auto spin count must be > 0, got %d", count)
	}
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	if s.auto != nil {
		select {
		case <-s.auto.done:
		default:
			return errs.ErrAutoSpinRunning
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	a := &autoRun{cancel: cancel, done: make(chan struct{})}
	a.remaining.Store(int64(count))
	s.auto = a
	s.log.Debug("autospin.start", slog.Int("count", count))
	go s.autoLoop(ctx, a)
	return nil
}

// StopAutoSpin 要求停止；進行中的那一局仍會完整結算。回傳是否有自動轉在跑。
func (s *Session) StopAutoSpin() bool {
	s.autoMu.Lock()
	a := s.auto
	s.autoMu.Unlock()
	if a == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
	}
	a.stop.Store(true)
	return true
}

// AutoSpinDone 目前這輪自動轉結束時關閉；沒有自動轉時回傳 nil。
func (s *Session) AutoSpinDone() <-chan struct{} {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	if s.auto == nil {
		return nil
	}
	return s.auto.done
}

// AutoSpinErr 最近一輪自動轉提前結束的原因（正常結束為 nil）
func (s *Session) AutoSpinErr() error {
	s.autoMu.Lock()
	a := s.auto
	s.autoMu.Unlock()
	if a == nil {
		return nil
	}
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// AutoSpinRemaining 剩餘自動轉次數
func (s *Session) AutoSpinRemaining() int {
	s.autoMu.Lock()
	a := s.auto
	s.autoMu.Unlock()
	if a == nil {
		return 0
	}
	select {
	case <-a.done:
		return 0
	default:
		return int(a.remaining.Load())
	}
}

func (s *Session) autoLoop(ctx context.Context, a *autoRun) {
	defer func() {
		a.cancel()
		close(a.done)
		s.log.Debug("autospin.stop", slog.Int64("remaining", a.remaining.Load()))
	}()
	for a.remaining.Load() > 0 {
		if a.stop.Load() {
			return
		}
		if err := ctx.Err(); err != nil {
			return
		}
		r, err := s.TriggerSpin()
		if errors.Is(err, errs.ErrAlreadySpinning) {
			if !sleepCtx(ctx, s.opt.RetryDelay) {
				return
			}
			continue
		}
		if err != nil {
			a.err = err
			return
		}
		a.remaining.Add(-1)
		if r.GameOver && a.remaining.Load() > 0 {
			a.err = errs.ErrInsufficientBalance
			return
		}
		if a.remaining.Load() > 0 && !sleepCtx(ctx, s.pace()) {
			return
		}
	}
}

func (s *Session) pace() time.Duration {
	if s.turbo.Load() {
		return s.opt.TurboDelay
	}
	return s.opt.AutoSpinDelay
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Snapshot 目前狀態；進行中的局結算後才會回傳。
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:       s.id,
		Theme:    s.eng.Name(),
		Phase:    s.Phase().String(),
		Bonus:    s.bonus,
		Economy:  s.econ,
		Turbo:    s.turbo.Load(),
		AutoSpin: s.AutoSpinRemaining(),
		GameOver: s.eng.ledger.GameOver(s.econ, s.bonus.Active),
	}
	if s.last != nil {
		r := *s.last
		v.LastRound = &r
	}
	return v
}

// State 目前的 Bonus 與經濟狀態
func (s *Session) State() (bonus.State, ledger.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bonus, s.econ
}

// SnapshotCore 取得亂數核心狀態（重播測試用）
func (s *Session) SnapshotCore() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Snapshot()
}

// RestoreCore 還原亂數核心狀態；不會動到 Bonus 與帳本。
func (s *Session) RestoreCore(src []byte) error {
	if s.Phase() != PhaseIdle {
		return errs.ErrAlreadySpinning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Restore(src)
}

// Reset 停止自動轉並回到開局狀態（亂數核心不重置）
func (s *Session) Reset() {
	s.stopAndWait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonus, s.econ = s.eng.Open()
	s.last = nil
}

// Close 停止自動轉並拒絕之後所有操作；可重複呼叫。
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.stopAndWait()
	s.log.Debug("session.close")
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) stopAndWait() {
	s.autoMu.Lock()
	a := s.auto
	s.autoMu.Unlock()
	if a == nil {
		return
	}
	a.stop.Store(true)
	a.cancel()
	<-a.done
}
