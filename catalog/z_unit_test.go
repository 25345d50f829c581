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

package catalog

import (
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

func TestScanAndRegister(t *testing.T) {
	c, err := New(demo_configs.FS)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := c.Scan()
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.ConfigName
	}
	if !slices.Equal(names, []string{"crypto.yaml", "fruit.yaml", "neon.yaml"}) {
		t.Fatalf("scan order: %v", names)
	}
	if err := c.Register(entries...); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.IDs(), []spec.TID{1, 2, 3}) {
		t.Fatalf("ids: %v", c.IDs())
	}
	if e, ok := c.GetByName("  FRUIT "); !ok || e.TID != 1 {
		t.Fatalf("lookup by name: %+v %v", e, ok)
	}
	ts, err := c.ThemeByID(2)
	if err != nil || ts.ThemeName != "crypto" {
		t.Fatalf("theme by id: %v", err)
	}
	if _, err := c.ThemeByName("nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown theme: %v", err)
	}
	if err := c.Register(entries[0]); !errors.Is(err, ErrDupID) {
		t.Fatalf("re-register: %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{TID: 9, Name: "x", ConfigName: "fruit.yaml"}); errs.Level(err) != errs.Warn {
		t.Fatalf("frozen catalog must refuse: %v", err)
	}
}

func TestRegisterIsAtomic(t *testing.T) {
	c, _ := New(demo_configs.FS)
	err := c.Register(
		Entry{TID: 1, Name: "fruit", ConfigName: "fruit.yaml"},
		Entry{TID: 2, Name: "Fruit", ConfigName: "neon.yaml"},
	)
	if !errors.Is(err, ErrDupName) {
		t.Fatalf("dup name in batch: %v", err)
	}
	if c.IDs() != nil {
		t.Fatalf("failed batch must not write: %v", c.IDs())
	}
	if err := c.Register(Entry{TID: 1, Name: "a", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("missing config must fail")
	}
}

func TestMultiFS(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("no fs must fail")
	}
	nested := fstest.MapFS{"sub/a.yaml": {Data: []byte("x")}}
	if _, err := New(nested); err == nil {
		t.Fatalf("nested dir must fail")
	}
	a := fstest.MapFS{"a.yaml": {Data: []byte("x")}, ".hidden.yaml": {Data: []byte("x")}, "readme.md": {Data: []byte("x")}}
	if _, err := New(a, fstest.MapFS{"a.yaml": {Data: []byte("y")}}); err == nil {
		t.Fatalf("duplicate file across fs must fail")
	}
	c, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.config.index) != 1 {
		t.Fatalf("only a.yaml should be indexed: %v", c.config.index)
	}
}

func TestValidFileName(t *testing.T) {
	for name, ok := range map[string]bool{
		"fruit.yaml": true,
		"x.JSON":     true,
		"":           false,
		"a/b.yaml":   false,
		".x.yaml":    false,
		"x.txt":      false,
	} {
		if got := validFileName(name) == nil; got != ok {
			t.Fatalf("%q: got %v want %v", name, got, ok)
		}
	}
}
