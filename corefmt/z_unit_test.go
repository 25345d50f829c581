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

package corefmt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
)

func TestTokenRoundTrip(t *testing.T) {
	c := core.New(core.Default().New(7))
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	tok := EncodeToken(3, snap)
	tid, got, err := DecodeToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if tid != 3 || !bytes.Equal(got, snap) {
		t.Fatalf("round trip mismatch: tid=%d", tid)
	}
	if Fingerprint(snap) == "" || Fingerprint(nil) != "" {
		t.Fatalf("fingerprint")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	good := EncodeToken(1, []byte{1, 2, 3, 4})
	cases := map[string]string{
		"empty":     "",
		"not b64":   "***",
		"truncated": good[:len(good)-2],
		"extra":     EncodeBase64URL(append([]byte{1, 2, 9, 9}, 7)),
	}
	for name, tok := range cases {
		_, _, err := DecodeToken(tok)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		var e *errs.E
		if !errors.As(err, &e) || e.ErrLv != errs.Warn {
			t.Fatalf("%s: expected warn, got %v", name, err)
		}
	}
}
