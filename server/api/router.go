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

package api

import (
	"log/slog"

	"github.com/zintix-labs/reelkit"
	v1 "github.com/zintix-labs/reelkit/server/api/v1"
	"github.com/zintix-labs/reelkit/server/netsvr"
	"github.com/zintix-labs/reelkit/server/netsvr/middleware"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, hub *reelkit.SessionHub) error {
	registerMiddleware(svr, sCfg)        // 1. 註冊 middleware
	return registerV1API(svr, sCfg, hub) // 2. 註冊 v1 api
}

// 註冊 middleware；Recover 在 AccessLog 內側，panic 也會留下 access log
func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CorsOrigins))
	svr.Use(middleware.Compression)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, hub *reelkit.SessionHub) error {
	sh, err := v1.NewSessionHandler(hub, sCfg.Log.With(slog.String("component", "api")))
	if err != nil {
		return err
	}
	th, err := v1.NewThemeHandler(hub)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(hub.Reelkit())
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/themes", th.List)
		vOne.Get("/themes/{theme}", th.Get)
		vOne.Get("/jackpot/{theme}", th.Jackpot)
		vOne.Get("/jackpot/{theme}/stream", th.JackpotStream)

		vOne.Post("/sessions", sh.Create)
		vOne.Get("/sessions/{id}", sh.Get)
		vOne.Delete("/sessions/{id}", sh.Delete)
		vOne.Post("/sessions/{id}/spin", sh.Spin)
		vOne.Post("/sessions/{id}/bet", sh.Bet)
		vOne.Post("/sessions/{id}/autospin", sh.StartAutoSpin)
		vOne.Delete("/sessions/{id}/autospin", sh.StopAutoSpin)
		vOne.Post("/sessions/{id}/turbo", sh.Turbo)
		vOne.Post("/sessions/{id}/reset", sh.Reset)
		vOne.Get("/sessions/{id}/core", sh.Core)
		vOne.Post("/sessions/{id}/core", sh.RestoreCore)

		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)
		vOne.Get("/simplayer", s.SimPlayers)
		vOne.Post("/simplayer", s.SimPlayers)
		vOne.Post("/simbycfg", s.SetByJson)
		vOne.Post("/stat", s.Stat)
	})
	return nil
}
