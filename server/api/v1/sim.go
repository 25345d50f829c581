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

package v1

import (
	"net/http"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/httperr"
	"github.com/zintix-labs/reelkit/stats"
)

type SimHandler struct {
	Reelkit *reelkit.Reelkit
}

func NewSimHandler(rk *reelkit.Reelkit) (*SimHandler, error) {
	if rk == nil {
		return nil, errs.NewFatal("sim handler: reelkit is required")
	}
	return &SimHandler{Reelkit: rk}, nil
}

type simResp struct {
	Seed      int64                   `json:"seed"`
	Stats     *stats.StatReport       `json:"stats"`
	Estimator *stats.EstimatorPlayers `json:"est,omitempty"`
	UsedTime  int64                   `json:"used_ms"`
}

func (sh *SimHandler) request(w http.ResponseWriter, r *http.Request) (*dto.SimRequest, *reelkit.Simulator, bool) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return nil, nil, false
	}
	if err := req.Valid(); err != nil {
		httperr.Errs(w, err)
		return nil, nil, false
	}
	if req.Seed == nil {
		seed, err := reelkit.NewSeed()
		if err != nil {
			httperr.Errs(w, err)
			return nil, nil, false
		}
		req.Seed = &seed
	}
	sim, err := sh.Reelkit.NewSimulatorWithSeed(req.Theme, *req.Seed)
	if err != nil {
		// 尊重下層錯誤分級
		httperr.Errs(w, errs.Wrap(err, "build simulator err: "+req.Theme))
		return nil, nil, false
	}
	return req, sim, true
}

// Sim GET|POST /v1/sim：固定局數的 RTP 模擬；players > 0 時改跑玩家模擬
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, sim, ok := sh.request(w, r)
	if !ok {
		return
	}
	if req.Players > 0 {
		sh.players(w, r, req, sim)
		return
	}
	resp, err := runWithTimeout(r.Context(), simTimeout, func() (*simResp, error) {
		run := func() (*stats.StatReport, time.Duration, error) {
			return sim.Sim(req.Bet, req.Rounds, false)
		}
		if req.Workers > 1 {
			run = func() (*stats.StatReport, time.Duration, error) {
				return sim.SimMP(req.Bet, req.Rounds, req.Workers, false)
			}
		}
		st, used, err := run()
		if err != nil {
			return nil, err
		}
		return &simResp{Seed: *req.Seed, Stats: st, UsedTime: used.Milliseconds()}, nil
	})
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SimPlayers GET|POST /v1/simplayer：有限本金的玩家模擬
func (sh *SimHandler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	req, sim, ok := sh.request(w, r)
	if !ok {
		return
	}
	if req.Players < 1 {
		httperr.Errs(w, errs.NewWarn("players is required"))
		return
	}
	sh.players(w, r, req, sim)
}

func (sh *SimHandler) players(w http.ResponseWriter, r *http.Request, req *dto.SimRequest, sim *reelkit.Simulator) {
	resp, err := runWithTimeout(r.Context(), simTimeout, func() (*simResp, error) {
		st, est, used, err := sim.SimPlayers(req.Bet, req.Workers, req.Players, req.Rounds, false)
		if err != nil {
			return nil, err
		}
		return &simResp{Seed: *req.Seed, Stats: st, Estimator: est, UsedTime: used.Milliseconds()}, nil
	})
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate players err"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
