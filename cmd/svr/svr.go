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
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/server"
	"github.com/zintix-labs/reelkit/server/logger"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// 遊戲伺服器入口：內建 fruit / crypto / neon，-dir 可再掛一個設定目錄。
func main() {
	cfg, err := loadConfigFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	server.Run(cfg)
}

type config struct {
	LogMode       string
	Addr          string
	Dir           string
	SessionCap    int
	Cors          string
	AutoSpinDelay time.Duration
	TurboDelay    time.Duration
}

func loadConfigFromFlags(args []string) (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("svr", flag.ContinueOnError)
	fs.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	fs.StringVar(&cfg.Addr, "addr", svrcfg.DefaultAddr, "listen address")
	fs.StringVar(&cfg.Dir, "dir", "", "extra theme config directory (yaml/json)")
	fs.IntVar(&cfg.SessionCap, "cap", svrcfg.DefaultSessionCap, "max sessions held in memory")
	fs.StringVar(&cfg.Cors, "cors", "*", "comma separated CORS origins")
	fs.DurationVar(&cfg.AutoSpinDelay, "autospin-delay", 800*time.Millisecond, "pause between auto spins")
	fs.DurationVar(&cfg.TurboDelay, "turbo-delay", 150*time.Millisecond, "pause between auto spins in turbo mode")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	sources := reelkit.Configs(demo_configs.FS)
	if cfg.Dir != "" {
		sources = append(sources, os.DirFS(cfg.Dir))
	}
	rk, err := reelkit.New(sources, log)
	if err != nil {
		return nil, err
	}
	if err := rk.RegisterAll(); err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{
		Log:           log,
		Addr:          cfg.Addr,
		SessionCap:    cfg.SessionCap,
		CorsOrigins:   svrcfg.SplitOrigins(cfg.Cors),
		AutoSpinDelay: cfg.AutoSpinDelay,
		TurboDelay:    cfg.TurboDelay,
		Reelkit:       rk,
	}, nil
}
