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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "cpu", "heap", "allocs"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("%q: %v", s, err)
		}
	}
	if _, err := ParseMode("trace"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestRunPassesThroughError(t *testing.T) {
	boom := errors.New("boom")
	if err := Run(func() error { return boom }, ModeNone, ""); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeHeap, ModeAllocs, ModeCPU} {
		ran := false
		if err := Run(func() error { ran = true; return nil }, m, dir); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !ran {
			t.Fatalf("%s: exe not called", m)
		}
		fi, err := os.Stat(filepath.Join(dir, string(m)+".pprof"))
		if err != nil || fi.Size() == 0 {
			t.Fatalf("%s: profile missing: %v", m, err)
		}
	}
}
