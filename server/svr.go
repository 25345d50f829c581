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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/api"
	"github.com/zintix-labs/reelkit/server/app"
	"github.com/zintix-labs/reelkit/server/logger"
	"github.com/zintix-labs/reelkit/server/netsvr"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口。
//
// 它負責：
//  1. 驗證 SvrCfg 並補預設值（logger、位址、容量）。
//  2. 凍結 Reelkit 並建立 SessionHub（啟動各主題獎池 ticker）。
//  3. 建立 HTTP server 並註冊路由與 middleware。
//  4. 啟動 app.Run() 直到收到信號，再依序關閉。
//
// Run 不綁定任何檔案路徑或環境變數；依賴全部透過 SvrCfg 注入。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但允許注入自訂的 NetSvr（例如掛在既有服務上的 adapter）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer closeLog(sCfg.Log)
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	hub, err := sCfg.Reelkit.BuildHub(sCfg.SessionCap, sCfg.SessionOptions())
	if err != nil {
		sCfg.Log.Error("build session hub failed", slog.Any("err", err))
		return
	}
	if err := api.RegisterRoutes(svr, sCfg, hub); err != nil {
		hub.Close()
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	// hub 先關：SSE 長連線依 hub.Done() 結束，server 才能在期限內關閉
	a := app.NewWith(HubComponent(hub), svr)
	if c, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[reelkit] listening on http://localhost" + c.Address())
	} else {
		sCfg.Log.Info("[reelkit] listening")
	}
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
	}
}

// HubComponent 讓 SessionHub 參與 app 生命週期：Run 阻塞到 hub 關閉，Shutdown 關閉全部 session。
func HubComponent(hub *reelkit.SessionHub) app.Component {
	return &hubComponent{hub: hub}
}

type hubComponent struct {
	hub *reelkit.SessionHub
}

func (hc *hubComponent) Run() error {
	<-hc.hub.Done()
	return nil
}

func (hc *hubComponent) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		hc.hub.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "session hub shutdown")
	}
}

// closeLog 送出殘留的非同步 log
func closeLog(log *slog.Logger) {
	if ah, ok := log.Handler().(*logger.AsyncHandler); ok {
		ah.Close()
	}
}
