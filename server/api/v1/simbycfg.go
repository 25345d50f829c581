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

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// simByCfgRequest 以一份尚未註冊的主題設定（JSON）做模擬
type simByCfgRequest struct {
	Bet    decimal.Decimal     `json:"bet"`
	Rounds int                 `json:"rounds"`
	Cfg    jsoniter.RawMessage `json:"cfg"`
	Seed   *int64              `json:"seed,omitempty"`
}

// SetByJson POST /v1/simbycfg：調參用，設定不會進入目錄
func (sh *SimHandler) SetByJson(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[simByCfgRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if len(req.Cfg) == 0 {
		httperr.Errs(w, errs.NewWarn("cfg is required"))
		return
	}
	if req.Rounds < 1 || req.Rounds > 1000000 {
		httperr.Errs(w, errs.NewWarn("rounds must be between 1 and 1,000,000"))
		return
	}
	if req.Bet.IsNegative() {
		httperr.Errs(w, errs.NewWarn("bet must not be negative"))
		return
	}
	if req.Seed == nil {
		seed, err := reelkit.NewSeed()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		req.Seed = &seed
	}

	sim, err := reelkit.NewSimulatorByJSON(req.Cfg, *req.Seed)
	if err != nil {
		// 上傳的設定不合法屬於呼叫端錯誤
		if errs.Level(err) == errs.Fatal {
			err = errs.Warnf("invalid cfg: %v", err)
		}
		httperr.Errs(w, err)
		return
	}
	resp, err := runWithTimeout(r.Context(), simTimeout, func() (*simResp, error) {
		st, used, err := sim.Sim(req.Bet, req.Rounds, false)
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

