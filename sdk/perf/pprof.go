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

// Package perf 包裝 runtime/pprof，讓 CLI 可以用一個 flag 切換 profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/reelkit/errs"
)

// DefaultDir 預設的 profile 輸出目錄
const DefaultDir = "build/profiling"

// Mode profiling 種類
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 空字串代表不做 profiling
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	}
	return ModeNone, errs.Warnf("unknown pprof mode %q (want cpu|heap|allocs)", s)
}

// Run 依 mode 包住 exe 執行，profile 寫到 dir/<mode>.pprof；dir 為空時用 DefaultDir。
//
// Usage like:
//
//	go run ./cmd/run -theme crypto -p cpu
func Run(exe func() error, mode Mode, dir string) error {
	if mode == ModeNone {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir failed")
	}
	path := filepath.Join(dir, string(mode)+".pprof")
	switch mode {
	case ModeCPU:
		return cpu(exe, path)
	case ModeHeap:
		return snapshot(exe, path, "heap")
	case ModeAllocs:
		return snapshot(exe, path, "allocs")
	}
	return exe()
}

// cpu 整段 exe 都在 CPU profiling 之下；輸出也可拿來做 pgo
func cpu(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create "+path+" failed")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile failed")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot 在 exe 之後寫出一次 profile。
//
// heap 為 in-use 記憶體，寫出前先 GC；allocs 為累積配置，需搭配 -alloc_space 查看。
func snapshot(exe func() error, path, name string) error {
	runErr := exe()
	if name == "heap" {
		runtime.GC()
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create "+path+" failed")
	}
	defer f.Close()
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", name)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile failed")
	}
	return runErr
}
