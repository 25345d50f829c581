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

package svrcfg

import (
	"log/slog"
	"strings"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/logger"
)

const (
	DefaultAddr       = ":5808"
	DefaultSessionCap = 10000
	maxSessionCap     = 1000000
)

// SvrCfg 服務設定；由 cmd/svr 的 flag 組裝後交給 server.Run
type SvrCfg struct {
	Log           *slog.Logger
	Addr          string
	SessionCap    int
	CorsOrigins   []string
	AutoSpinDelay time.Duration
	TurboDelay    time.Duration
	Reelkit       *reelkit.Reelkit
}

// Vaild 檢查必要依賴並補預設值
func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if strings.TrimSpace(sc.Addr) == "" {
		sc.Addr = DefaultAddr
	}
	if sc.SessionCap <= 0 {
		sc.SessionCap = DefaultSessionCap
	}
	sc.SessionCap = min(maxSessionCap, sc.SessionCap)
	if len(sc.CorsOrigins) == 0 {
		sc.CorsOrigins = []string{"*"}
	}
	if sc.AutoSpinDelay < 0 || sc.TurboDelay < 0 {
		return errs.NewWarn("autospin delays must not be negative")
	}
	if sc.Reelkit == nil {
		return errs.NewFatal("reelkit is required")
	}
	if err := sc.Reelkit.Freeze(); err != nil {
		return errs.Wrap(err, "freeze reelkit failed")
	}
	return nil
}

// SessionOptions 交給 SessionHub 的 session 設定
func (sc *SvrCfg) SessionOptions() reelkit.SessionOptions {
	return reelkit.SessionOptions{
		AutoSpinDelay: sc.AutoSpinDelay,
		TurboDelay:    sc.TurboDelay,
		Logger:        sc.Log,
	}
}

// SplitOrigins 解析逗號分隔的 CORS 來源
func SplitOrigins(s string) []string {
	out := make([]string, 0, 4)
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
