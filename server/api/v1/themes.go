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
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/jackpot"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// SSE 保活間隔
const keepAlive = 15 * time.Second

type ThemeHandler struct {
	hub *reelkit.SessionHub
}

func NewThemeHandler(hub *reelkit.SessionHub) (*ThemeHandler, error) {
	if hub == nil {
		return nil, errs.NewFatal("theme handler: hub is required")
	}
	return &ThemeHandler{hub: hub}, nil
}

// List GET /v1/themes
func (th *ThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	sum, err := th.hub.Reelkit().Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Get GET /v1/themes/{theme}
func (th *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	eng, ok := th.engine(w, r)
	if !ok {
		return
	}
	sum, err := th.hub.Reelkit().Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	for _, s := range sum {
		if s.TID == eng.ID() {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	httperr.Errs(w, errs.ErrNotFound.With("theme "+eng.Name()))
}

type jackpotResp struct {
	Theme  string          `json:"theme"`
	Amount decimal.Decimal `json:"amount"`
	Base   decimal.Decimal `json:"base"`
	Wins   int             `json:"wins"`
}

// Jackpot GET /v1/jackpot/{theme}
func (th *ThemeHandler) Jackpot(w http.ResponseWriter, r *http.Request) {
	p, ok := th.pool(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, jackpotResp{
		Theme:  p.Theme(),
		Amount: p.Amount(),
		Base:   p.Base(),
		Wins:   p.Wins(),
	})
}

// JackpotStream GET /v1/jackpot/{theme}/stream：以 Server-Sent Events 推播獎池異動。
//
// 連線建立時先送一次目前金額；慢的客戶端會漏掉中間的異動。
func (th *ThemeHandler) JackpotStream(w http.ResponseWriter, r *http.Request) {
	p, ok := th.pool(w, r)
	if !ok {
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		httperr.Errs(w, errs.NewFatal("streaming unsupported"))
		return
	}
	updates, cancel := p.Listen(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, jackpot.Update{Theme: p.Theme(), Amount: p.Amount(), Timestamp: time.Now()}); err != nil {
		return
	}
	fl.Flush()

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-th.hub.Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			fl.Flush()
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, u); err != nil {
				return
			}
			fl.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, u jackpot.Update) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: jackpot\ndata: %s\n\n", b)
	return err
}

func (th *ThemeHandler) engine(w http.ResponseWriter, r *http.Request) (*reelkit.Engine, bool) {
	key, err := urlParam(r, "theme")
	if err != nil {
		httperr.Errs(w, err)
		return nil, false
	}
	eng, err := th.hub.Reelkit().Engine(key)
	if err != nil {
		httperr.Errs(w, err)
		return nil, false
	}
	return eng, true
}

func (th *ThemeHandler) pool(w http.ResponseWriter, r *http.Request) (*jackpot.Pool, bool) {
	eng, ok := th.engine(w, r)
	if !ok {
		return nil, false
	}
	p := eng.Pool()
	if p == nil {
		httperr.Errs(w, errs.ErrNotFound.With("theme "+eng.Name()+" has no jackpot"))
		return nil, false
	}
	return p, true
}
