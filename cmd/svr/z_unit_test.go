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

package main

import (
	"testing"
	"time"
)

func TestLoadConfigFromFlags(t *testing.T) {
	sCfg, err := loadConfigFromFlags([]string{
		"-log-mode", "silence",
		"-addr", ":9000",
		"-cap", "20",
		"-cors", "https://a.example.com, https://b.example.com",
		"-turbo-delay", "10ms",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sCfg.Addr != ":9000" || sCfg.SessionCap != 20 || sCfg.TurboDelay != 10*time.Millisecond {
		t.Fatalf("cfg: %+v", sCfg)
	}
	if len(sCfg.CorsOrigins) != 2 || sCfg.CorsOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors: %v", sCfg.CorsOrigins)
	}
	if err := sCfg.Vaild(); err != nil {
		t.Fatalf("vaild: %v", err)
	}
	if _, err := sCfg.Reelkit.Engine("fruit"); err != nil {
		t.Fatalf("fruit should be registered: %v", err)
	}

	if _, err := loadConfigFromFlags([]string{"-log-mode", "loud"}); err == nil {
		t.Fatalf("expected log mode error")
	}
	if _, err := loadConfigFromFlags([]string{"-dir", t.TempDir()}); err != nil {
		t.Fatalf("empty extra dir should be fine: %v", err)
	}
}
