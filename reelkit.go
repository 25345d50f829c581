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

// Package reelkit 提供 Reelkit 引擎的組裝入口（assembler）與運行入口（runtime entry）。
//
// Reelkit 把主題目錄（catalog）與每個主題的規則引擎（Engine）組裝起來：
//   - 主題是純資料：符號、權重、派彩表、連線、Bonus 與獎池參數都寫在 YAML/JSON 內，不需要為每個主題寫程式。
//   - 設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS），Reelkit 不處理路徑。
//   - Engine 是無狀態的規則核心；Session 持有玩家狀態並保證同時只有一局在進行。
//
// 典型使用情境：
//   - 後端服務：BuildHub 取得 SessionHub，每位玩家一個 Session。
//   - 模擬器：NewSimulator 大量跑局，產出 RTP 與玩家資金報表。
package reelkit

import (
	"crypto/rand"
	"io/fs"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/zintix-labs/reelkit/catalog"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/jackpot"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Reelkit 組裝器。
//
// 使用流程分兩階段：
//   - 註冊階段：Register / RegisterAll 把主題放進目錄，重複的 id 或名稱直接失敗。
//   - 執行階段：Freeze 之後依主題建立 Engine，之後才可開 Session 或模擬器。
//
// 同一主題的所有 Session 共用一個獎池。
type Reelkit struct {
	cat  *catalog.Catalog
	log  *slog.Logger
	byID map[spec.TID]*Engine
	sum  []catalog.Summary
}

// New 建立 Reelkit；log 為 nil 時不輸出。
func New(cfgs []fs.FS, log *slog.Logger) (*Reelkit, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cat, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reelkit{cat: cat, log: log}, nil
}

// NewAuto 註冊全部設定檔並直接進入執行階段
func NewAuto(cfgs []fs.FS, log *slog.Logger) (*Reelkit, error) {
	rk, err := New(cfgs, log)
	if err != nil {
		return nil, err
	}
	if err := rk.RegisterAll(); err != nil {
		return nil, err
	}
	if err := rk.Freeze(); err != nil {
		return nil, err
	}
	return rk, nil
}

func (r *Reelkit) Register(ents ...catalog.Entry) error {
	return r.cat.Register(ents...)
}

// RegisterAll 解析所有設定檔，全部成功才一次寫入目錄。
func (r *Reelkit) RegisterAll() error {
	ents, err := r.cat.Scan()
	if err != nil {
		return err
	}
	return r.cat.Register(ents...)
}

// Freeze 鎖定目錄並為每個主題建立 Engine（含獎池）。重複呼叫無作用。
func (r *Reelkit) Freeze() error {
	if r.byID != nil {
		return nil
	}
	ids := r.cat.IDs()
	if len(ids) == 0 {
		return errs.NewFatal("no themes registered")
	}
	r.cat.Freeze()

	byID := make(map[spec.TID]*Engine, len(ids))
	for _, id := range ids {
		ts, err := r.cat.ThemeByID(id)
		if err != nil {
			return err
		}
		pool, err := r.newPool(ts)
		if err != nil {
			return err
		}
		eng, err := NewEngine(ts, pool, r.log)
		if err != nil {
			return errs.Wrap(err, "build engine failed: "+ts.ThemeName)
		}
		byID[id] = eng
	}
	r.byID = byID
	r.log.Info("reelkit ready", slog.Int("themes", len(ids)))
	return nil
}

func (r *Reelkit) newPool(ts *spec.ThemeSetting) (*jackpot.Pool, error) {
	if !ts.Table.HasJackpot() {
		return nil, nil
	}
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	cf, err := core.FactoryByName(ts.RNG)
	if err != nil {
		return nil, err
	}
	return jackpot.NewPool(ts, cf.New(seed), r.log)
}

func (r *Reelkit) Frozen() bool {
	return r.byID != nil
}

func (r *Reelkit) IDs() []spec.TID {
	return r.cat.IDs()
}

func (r *Reelkit) All() []catalog.Entry {
	return r.cat.All()
}

// Summary 主題摘要列表（依 id 排序）
func (r *Reelkit) Summary() ([]catalog.Summary, error) {
	if !r.Frozen() {
		return nil, errs.NewFatal("reelkit is not frozen yet")
	}
	if r.sum == nil {
		r.sum = lo.Map(r.engines(), func(e *Engine, _ int) catalog.Summary {
			return catalog.NewSummary(e.Theme())
		})
	}
	return r.sum, nil
}

// Engine 以主題名稱或 id 字串取得引擎
func (r *Reelkit) Engine(key string) (*Engine, error) {
	if !r.Frozen() {
		return nil, errs.NewFatal("reelkit is not frozen yet")
	}
	if ent, ok := r.cat.GetByName(key); ok {
		return r.byID[ent.TID], nil
	}
	if n, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64); err == nil {
		return r.EngineByID(spec.TID(n))
	}
	return nil, errs.ErrNotFound.With("theme " + key)
}

func (r *Reelkit) EngineByID(id spec.TID) (*Engine, error) {
	if !r.Frozen() {
		return nil, errs.NewFatal("reelkit is not frozen yet")
	}
	eng, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound.With("theme id " + strconv.FormatUint(uint64(id), 10))
	}
	return eng, nil
}

// NewSession 開一個獨立 session（不經過 SessionHub）
func (r *Reelkit) NewSession(theme string, opt SessionOptions) (*Session, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return r.NewSessionWithSeed(theme, seed, opt)
}

func (r *Reelkit) NewSessionWithSeed(theme string, seed int64, opt SessionOptions) (*Session, error) {
	eng, err := r.Engine(theme)
	if err != nil {
		return nil, err
	}
	return newSession(eng, seed, opt)
}

func (r *Reelkit) NewSimulator(theme string) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return r.NewSimulatorWithSeed(theme, seed)
}

func (r *Reelkit) NewSimulatorWithSeed(theme string, seed int64) (*Simulator, error) {
	eng, err := r.Engine(theme)
	if err != nil {
		return nil, err
	}
	return newSimulator(eng, seed)
}

// BuildHub 進入服務模式：Freeze 後建立 SessionHub 並啟動各主題獎池 ticker。
func (r *Reelkit) BuildHub(capacity int, opt SessionOptions) (*SessionHub, error) {
	if err := r.Freeze(); err != nil {
		return nil, err
	}
	return newSessionHub(r, capacity, opt), nil
}

// engines 依 id 排序
func (r *Reelkit) engines() []*Engine {
	return lo.Map(r.cat.IDs(), func(id spec.TID, _ int) *Engine { return r.byID[id] })
}

// NewSeed 以 crypto/rand 產生非負 seed
func NewSeed() (int64, error) {
	return cryptoSeed()
}

func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
