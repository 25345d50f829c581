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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，讓呼叫端（HUD / HTTP 邊界）理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// 引擎對外的可恢復訊號。
//
// 這些都不是致命錯誤：請求被丟棄或被修正後，session 狀態維持一致。
// 比對請使用 errors.Is，即使經過 Wrap 仍然可以命中（依 Code 比對）。
var (
	ErrAlreadySpinning     = &E{Message: "a spin is already in flight", Code: "already_spinning", ErrLv: Warn}
	ErrInsufficientBalance = &E{Message: "balance does not cover the bet", Code: "insufficient_balance", ErrLv: Warn}
	ErrInvalidBet          = &E{Message: "bet out of range, clamped", Code: "invalid_bet", ErrLv: Log}
	ErrAutoSpinRunning     = &E{Message: "auto spin already running", Code: "autospin_running", ErrLv: Warn}
	ErrSessionClosed       = &E{Message: "session closed", Code: "session_closed", ErrLv: Warn}
	ErrNotFound            = &E{Message: "not found", Code: "not_found", ErrLv: Warn}
)

// E 是統一的錯誤型別。
//
// Message 為主訊息；Extra 為呼叫端可追加的上下文；Cause 串接下層錯誤；
// Code 為穩定的機器可讀代碼（可為空）；ErrLv 為嚴重度。
type E struct {
	Message string
	Extra   string
	Code    string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != "" {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓帶有相同 Code 的錯誤彼此相等（沒有 Code 時退回指標比較）。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	if e.Code == "" || t.Code == "" {
		return e == t
	}
	return e.Code == t.Code
}

// New 依嚴重度與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// With 複製一個 sentinel 並附加上下文，保留 Code 與 ErrLv。
func (e *E) With(extra string) *E {
	cp := *e
	cp.Extra = extra
	return &cp
}

// Wrap 以訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code。
//   - 若 cause 不是本包定義的 *E（標準庫或三方依賴錯誤），ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Code = e.Code
	}
	r.Cause = cause
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// Level 回傳 err 鏈上第一個 *E 的嚴重度；非本包錯誤視為 Fatal。
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}
