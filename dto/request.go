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

package dto

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
)

// strict 請求端 JSON：未知欄位直接拒絕，避免靜默丟資料
var strict = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

const maxBody = 1 << 20

// CreateSessionRequest POST /v1/sessions
type CreateSessionRequest struct {
	Theme string `json:"theme"`          // 名稱或 id 字串
	Seed  *int64 `json:"seed,omitempty"` // 缺省時由伺服器產生
}

// BetRequest POST /v1/sessions/{id}/bet
//
// amount 與 action 二擇一；action 為 increase / decrease / max。
type BetRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Action string           `json:"action,omitempty"`
}

const (
	BetIncrease = "increase"
	BetDecrease = "decrease"
	BetMax      = "max"
)

type AutoSpinRequest struct {
	Count int `json:"count"`
}

type TurboRequest struct {
	On bool `json:"on"`
}

// RestoreRequest 以 core token 還原亂數核心（重播）
type RestoreRequest struct {
	Token string `json:"token"`
	Reset bool   `json:"reset,omitempty"` // 一併回到開局狀態
}

// SimRequest POST|GET /v1/sim
type SimRequest struct {
	Theme   string          `json:"theme"`
	Bet     decimal.Decimal `json:"bet"` // 0 代表主題預設押注
	Rounds  int             `json:"rounds"`
	Workers int             `json:"workers,omitempty"`
	Players int             `json:"players,omitempty"` // > 0 時改跑玩家模擬
	Seed    *int64          `json:"seed,omitempty"`
}

// StatRequest POST /v1/stat：由呼叫端提供逐 round 贏分，回傳統計報告
type StatRequest struct {
	Theme    string            `json:"theme"`
	Bet      decimal.Decimal   `json:"bet"`
	BaseWins []decimal.Decimal `json:"base_wins"`
	FreeWins []decimal.Decimal `json:"free_wins"`
	Triggers []bool            `json:"triggers"`
}

// DecodeJSON 解碼 POST body（上限 1MiB、拒絕未知欄位）。空 body 視為零值。
func DecodeJSON[T any](r *http.Request) (*T, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	dst := new(T)
	if r.Body == nil || r.Body == http.NoBody {
		return dst, nil
	}
	dec := strict.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return dst, nil
		}
		return nil, errs.NewWarn("invalid json: " + err.Error())
	}
	return dst, nil
}

// DecodeSimRequest 支援 GET（query string）與 POST（JSON body）。
//
// GET 參數：theme, bet, rounds, workers, players, seed。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	switch r.Method {
	case http.MethodPost:
		return DecodeJSON[SimRequest](r)
	case http.MethodGet:
	default:
		return nil, errs.NewWarn("method not allowed")
	}

	q := r.URL.Query()
	req := &SimRequest{Theme: strings.TrimSpace(q.Get("theme"))}
	if s := q.Get("bet"); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errs.NewWarn("invalid bet: " + err.Error())
		}
		req.Bet = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"rounds", &req.Rounds},
		{"workers", &req.Workers},
		{"players", &req.Players},
	}
	for _, it := range ints {
		s := q.Get(it.key)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.Warnf("invalid %s: %v", it.key, err)
		}
		*it.dst = v
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = &v
	}
	return req, nil
}

// Valid 基本檢查；主題是否存在由上層判斷
func (sr *SimRequest) Valid() error {
	if sr.Theme == "" {
		return errs.NewWarn("theme is required")
	}
	if sr.Bet.IsNegative() {
		return errs.NewWarn("bet must not be negative")
	}
	if sr.Workers == 0 {
		sr.Workers = 1
	}
	if sr.Workers < 1 || sr.Workers > 64 {
		return errs.NewWarn("workers must be between 1 and 64")
	}
	if sr.Players > 0 {
		if sr.Players > 100000 {
			return errs.NewWarn("players must be between 1 and 100,000")
		}
		if sr.Rounds < 1 || sr.Rounds > 15000 {
			return errs.NewWarn("rounds must be between 1 and 15,000 in player mode")
		}
		return nil
	}
	if sr.Rounds < 1 || sr.Rounds > 1000000 {
		return errs.NewWarn("rounds must be between 1 and 1,000,000")
	}
	return nil
}

func (br *BetRequest) Valid() error {
	switch {
	case br.Amount != nil && br.Action != "":
		return errs.NewWarn("amount and action are mutually exclusive")
	case br.Amount == nil && br.Action == "":
		return errs.NewWarn("amount or action required")
	}
	switch br.Action {
	case "", BetIncrease, BetDecrease, BetMax:
		return nil
	}
	return errs.Warnf("unknown bet action %q", br.Action)
}

// Rounds 對齊後的局數
func (sr *StatRequest) Rounds() int {
	return min(len(sr.BaseWins), len(sr.FreeWins), len(sr.Triggers))
}
