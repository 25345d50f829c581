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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/reelkit/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.ErrNotFound.With("session x"), http.StatusNotFound},
		{errs.ErrAlreadySpinning, http.StatusConflict},
		{errs.ErrAutoSpinRunning, http.StatusConflict},
		{errs.Wrap(errs.ErrInsufficientBalance, "spin"), http.StatusPaymentRequired},
		{errs.ErrSessionClosed, http.StatusGone},
		{errs.ErrInvalidBet, http.StatusBadRequest},
		{errs.NewWarn("bad input"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusRequestTimeout},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("%v: got %d want %d", c.err, got, c.want)
		}
	}
}

func TestErrsWritesJSON(t *testing.T) {
	w := httptest.NewRecorder()
	Errs(w, errs.ErrAlreadySpinning)
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d", w.Code)
	}
	var b Body
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if b.Code != "already_spinning" || b.Error == "" {
		t.Fatalf("body: %+v", b)
	}

	w = httptest.NewRecorder()
	Errs(w, nil)
	if w.Body.Len() != 0 {
		t.Fatalf("nil error should write nothing")
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	Log(log, "spin", errs.NewWarn("bad input"))
	if buf.Len() != 0 {
		t.Fatalf("plain 4xx should not log: %s", buf.String())
	}
	Log(log, "spin", errs.ErrAlreadySpinning)
	Log(log, "spin", errs.NewFatal("boom"))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "level=ERROR") {
		t.Fatalf("log output: %s", out)
	}
}
