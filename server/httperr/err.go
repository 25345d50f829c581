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

package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/reelkit/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Body 錯誤回應格式
type Body struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（先比對 Code，再看分級）：
//   - ctx timeout/cancel         → 504/408
//   - not_found                  → 404
//   - already_spinning/autospin  → 409
//   - insufficient_balance       → 402
//   - session_closed             → 410
//   - errs.Warn / errs.Log       → 400
//   - errs.Fatal 或非本包錯誤     → 500
//
// 本函數屬於 HTTP 邊界層，核心 errs 包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadySpinning), errors.Is(err, errs.ErrAutoSpinRunning):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, errs.ErrSessionClosed):
		return http.StatusGone
	}

	var e *errs.E
	if errors.As(err, &e) {
		switch e.ErrLv {
		case errs.Warn, errs.Log:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// Errs 寫回 JSON 錯誤
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	b := Body{Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		b.Code = e.Code
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(b)
}

// Log 依 status 決定日誌等級；一般的 4xx 不記錄（access log 已有）
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Any("err", err))
	}
}
