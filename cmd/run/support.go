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

package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/perf"
	"github.com/zintix-labs/reelkit/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	theme  string
	dir    string
	worker int
	player int
	spins  int
	bet    decimal.Decimal
	seed   int64
	round  time.Duration // 每次 Spin 的模擬時間（獎池累加用）
	format stats.Format
	pprof  perf.Mode
	out    io.Writer
}

func bindVar(args []string) (*config, error) {
	cfg := &config{out: os.Stdout}
	var betStr, format, pprofMode string

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&cfg.theme, "theme", "fruit", "theme name or id")
	fs.StringVar(&cfg.dir, "dir", "", "extra theme config directory (yaml/json)")
	fs.IntVar(&cfg.worker, "worker", 1, "number of workers")
	fs.IntVar(&cfg.player, "player", 1, "number of players (> 1 runs bankroll simulation)")
	fs.IntVar(&cfg.spins, "spins", 1000000, "rounds per worker (or per player)")
	fs.StringVar(&betStr, "bet", "", "bet per spin (default: theme default)")
	fs.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	fs.DurationVar(&cfg.round, "round", reelkit.DefaultRoundTime, "simulated time per spin, drives jackpot ticks (0 disables)")
	fs.StringVar(&format, "format", "table", "report format: table|json|yaml")
	fs.StringVar(&pprofMode, "p", "", "pprof: '', cpu, heap, allocs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if betStr != "" {
		if cfg.bet, err = decimal.NewFromString(betStr); err != nil {
			return nil, errs.Warnf("invalid bet %q: %v", betStr, err)
		}
	}
	if cfg.format, err = stats.ParseFormat(format); err != nil {
		return nil, err
	}
	if cfg.pprof, err = perf.ParseMode(pprofMode); err != nil {
		return nil, err
	}
	// given seed illegal -> crypto seed
	if cfg.seed < 0 {
		if cfg.seed, err = reelkit.NewSeed(); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.valid()
}

// 這裡解析並分支要執行的模擬器
func executeSimulator(cfg *config) error {
	sources := reelkit.Configs(demo_configs.FS)
	if cfg.dir != "" {
		sources = append(sources, os.DirFS(cfg.dir))
	}
	rk, err := reelkit.NewAuto(sources, nil)
	if err != nil {
		return err
	}
	s, err := rk.NewSimulatorWithSeed(cfg.theme, cfg.seed)
	if err != nil {
		return err
	}
	s.SetRoundTime(cfg.round)
	rep, estRep := stats.Renderers(cfg.format)
	table := cfg.format == stats.FormatTable

	// 至此確保可執行；只有表格輸出才印標頭與進度條
	p := message.NewPrinter(language.English)
	green := "\033[1;32m"
	reset := "\033[0m"

	if cfg.player == 1 { // 純機台模擬
		if table {
			p.Fprintf(cfg.out, "%s[THEME:%s] [WORKERS:%d] [SPINS:%d] [SEED:%d]%s\n",
				green, s.ThemeName, cfg.worker, cfg.worker*cfg.spins, cfg.seed, reset)
		}
		run := func() (*stats.StatReport, time.Duration, error) {
			return s.Sim(cfg.bet, cfg.spins, table) // 單線程
		}
		if cfg.worker > 1 {
			run = func() (*stats.StatReport, time.Duration, error) {
				return s.SimMP(cfg.bet, cfg.spins, cfg.worker, table) // 併發
			}
		}
		st, d, err := run()
		if err != nil {
			return err
		}
		if table {
			p.Fprint(cfg.out, stats.FormatDuration(d, st.Summary.Rounds))
		}
		return st.WriteWith(cfg.out, rep)
	}

	// 模擬多玩家體驗
	if table {
		p.Fprintf(cfg.out, "%s[THEME:%s] [WORKERS:%d] [PLAYERS:%d] [SPINS:%d] [SEED:%d]%s\n",
			green, s.ThemeName, cfg.worker, cfg.player, cfg.spins, cfg.seed, reset)
	}
	st, est, d, err := s.SimPlayers(cfg.bet, cfg.worker, cfg.player, cfg.spins, table)
	if err != nil {
		return err
	}
	if table {
		p.Fprint(cfg.out, stats.FormatDuration(d, st.Summary.Rounds))
	}
	if err := st.WriteWith(cfg.out, rep); err != nil {
		return err
	}
	return estRep.Write(cfg.out, est)
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.player < 1 {
		return errs.NewWarn("value err : player must > 0")
	}
	// 玩家數量太多 resize
	if cfg.player > 100000 {
		p.Fprintf(os.Stderr, "too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.spins < 1 {
		return errs.NewWarn("value err : spins must > 0")
	}
	if cfg.bet.IsNegative() {
		return errs.NewWarn("value err : bet must not be negative")
	}
	if cfg.round < 0 {
		return errs.NewWarn("value err : round must not be negative")
	}
	// 對一個玩家來說 1500轉約1hr 15000轉約10小時，再長就直接模擬機台
	if cfg.player > 1 && cfg.spins > 15000 {
		p.Fprintf(os.Stderr, "too much spins for each players : %d resized to 15k spins for each player\n", cfg.spins)
		cfg.spins = 15000
	}
	return nil
}
