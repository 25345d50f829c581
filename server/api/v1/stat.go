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

	"github.com/shopspring/decimal"

	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/recorder"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// Stat POST /v1/stat：以呼叫端提供的逐局贏分產生統計報告。
//
// base_wins、free_wins、triggers 取最短長度對齊；theme 決定名稱與預設押注。
func (sh *SimHandler) Stat(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.StatRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rounds := req.Rounds()
	if rounds < 1 {
		httperr.Errs(w, errs.NewWarn("rounds must > 0"))
		return
	}
	eng, err := sh.Reelkit.Engine(req.Theme)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	bet := req.Bet
	if bet.IsZero() {
		bet = eng.Theme().Bet.DefaultD
	}
	if !bet.IsPositive() {
		httperr.Errs(w, errs.NewWarn("bet must be > 0"))
		return
	}
	rec, err := recorder.NewSpinRecorder(eng.Name(), eng.ID(), bet, decimal.Zero)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	for i := range rounds {
		o := recorder.Outcome{
			Bet:       bet,
			BaseWin:   req.BaseWins[i],
			FreeWin:   req.FreeWins[i],
			Triggered: req.Triggers[i],
		}
		if o.BaseWin.IsNegative() || o.FreeWin.IsNegative() {
			httperr.Errs(w, errs.Warnf("round %d: wins must not be negative", i))
			return
		}
		rec.Record(&o)
	}
	st := rec.Done()
	st.Done()
	writeJSON(w, http.StatusOK, st)
}

