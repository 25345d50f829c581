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

// Package catalog 主題目錄：把一或多個扁平 fs.FS 內的主題設定檔以 id / 名稱索引起來。
package catalog

import (
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate theme id")
	ErrDupName = errs.NewFatal("duplicate theme name")
)

type Entry struct {
	TID        spec.TID
	Name       string
	ConfigName string
}

// Summary 主題摘要（列表 API 使用）
type Summary struct {
	TID        spec.TID `json:"tid"`
	Name       string   `json:"name"`
	RNG        string   `json:"rng"`
	Symbols    []string `json:"symbols"`
	Paylines   int      `json:"paylines"`
	Scatter    string   `json:"scatter,omitempty"`
	HasJackpot bool     `json:"has_jackpot"`
	BetMin     float64  `json:"bet_min"`
	BetMax     float64  `json:"bet_max"`
	BetDefault float64  `json:"bet_default"`
	BetStep    float64  `json:"bet_step"`
	Balance    float64  `json:"initial_balance"`
}

// NewSummary 由已初始化的主題產生摘要
func NewSummary(ts *spec.ThemeSetting) Summary {
	rng := ts.RNG
	if rng == "" {
		rng = "pcg64"
	}
	return Summary{
		TID:        ts.ThemeID,
		Name:       ts.ThemeName,
		RNG:        rng,
		Symbols:    ts.Table.Names(),
		Paylines:   len(ts.Paylines.Paylines),
		Scatter:    ts.Scatter.Symbol,
		HasJackpot: ts.Table.HasJackpot(),
		BetMin:     ts.Bet.Min,
		BetMax:     ts.Bet.Max,
		BetDefault: ts.Bet.Default,
		BetStep:    ts.Bet.Step,
		Balance:    ts.Economy.InitialBalance,
	}
}

type Catalog struct {
	byID   map[spec.TID]Entry
	byName map[string]Entry
	ids    []spec.TID          // 穩定排序
	unique map[string]struct{} // 檔名唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.TID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.TID, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Register 一次註冊多筆；任何一筆不合法則全部不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	batch := &Catalog{byID: map[spec.TID]Entry{}, byName: map[string]Entry{}, unique: map[string]struct{}{}}
	for i := range metas {
		metas[i].Name = normName(metas[i].Name)
		if err := c.admit(metas[i]); err != nil {
			return err
		}
		if err := batch.conflict(metas[i]); err != nil {
			return err
		}
		batch.put(metas[i])
	}
	for _, meta := range metas {
		c.put(meta)
	}
	slices.Sort(c.ids)
	return nil
}

// admit 單筆 Entry 本身的檢查，以及與已註冊項目的衝突
func (c *Catalog) admit(meta Entry) error {
	if meta.Name == "" {
		return errs.NewFatal("theme name required")
	}
	if err := validFileName(meta.ConfigName); err != nil {
		return err
	}
	if _, ok := c.config.index[meta.ConfigName]; !ok {
		return errs.Fatalf("config file not found: %s", meta.ConfigName)
	}
	return c.conflict(meta)
}

func (c *Catalog) conflict(meta Entry) error {
	if _, ok := c.byID[meta.TID]; ok {
		return ErrDupID
	}
	if _, ok := c.byName[meta.Name]; ok {
		return ErrDupName
	}
	if _, ok := c.unique[meta.ConfigName]; ok {
		return errs.Fatalf("duplicate config name: %s", meta.ConfigName)
	}
	return nil
}

func (c *Catalog) put(meta Entry) {
	c.unique[meta.ConfigName] = struct{}{}
	c.byID[meta.TID] = meta
	c.byName[meta.Name] = meta
	c.ids = append(c.ids, meta.TID)
}

// Scan 讀取所有來源的設定檔並產生 Entry（不寫入）。
//
// 依檔名排序處理；任何一個檔案解析失敗就立即回傳錯誤。
func (c *Catalog) Scan() ([]Entry, error) {
	names := slices.Sorted(maps.Keys(c.config.index))
	if len(names) == 0 {
		return nil, errs.NewFatal("no config files found to register")
	}
	entries := make([]Entry, 0, len(names))
	for _, base := range names {
		ts, err := c.themeByFile(base)
		if err != nil {
			return nil, errs.Wrap(err, "parse theme failed: "+base)
		}
		entries = append(entries, Entry{TID: ts.ThemeID, Name: ts.ThemeName, ConfigName: base})
	}
	return entries, nil
}

func (c *Catalog) GetByID(id spec.TID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) IDs() []spec.TID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

func (c *Catalog) All() []Entry {
	return lo.FilterMap(c.ids, func(id spec.TID, _ int) (Entry, bool) {
		return c.GetByID(id)
	})
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// ThemeByID 讀取並初始化主題設定
func (c *Catalog) ThemeByID(id spec.TID) (*spec.ThemeSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.ErrNotFound.With(fmt.Sprintf("theme id %d", id))
	}
	return c.themeByFile(e.ConfigName)
}

// ThemeByName 讀取並初始化主題設定
func (c *Catalog) ThemeByName(name string) (*spec.ThemeSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.ErrNotFound.With("theme " + name)
	}
	return c.themeByFile(e.ConfigName)
}

func (c *Catalog) themeByFile(name string) (*spec.ThemeSetting, error) {
	src, ok := c.config.GetFS(name)
	if !ok {
		return nil, errs.ErrNotFound.With("config file " + name)
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parseThemeByExt(name, raw)
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.Fatalf("invalid config filename: %q (must be a basename)", file)
	}
	if !isConfigFile(file) {
		return errs.Fatalf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	if strings.HasPrefix(file, ".") {
		return errs.Fatalf("invalid config filename: %q (cannot start with '.')", file)
	}
	return nil
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parseThemeByExt(filename string, raw []byte) (*spec.ThemeSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetThemeSettingByYAML(raw)
	case ".json":
		return spec.GetThemeSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

// newMultiFS 建立索引並檢查重複；設定目錄必須是扁平的（不可有子目錄）。
func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 16)}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
		err := fs.WalkDir(s, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", path)
			}
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Fatalf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}
