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

// Package corefmt 亂數核心快照的文字編碼，供 HTTP/JSON 傳輸使用。
//
// token 格式：
//
//	base64url( uvarint(theme id) || uvarint(len(snap)) || snap )
//
// 帶主題 id 是為了避免把 A 主題的快照還原到 B 主題的 session。
package corefmt

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

// maxSnap 快照上限；PCG 狀態只有數十 bytes
const maxSnap = 1 << 10

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.NewWarn("decode base64url failed: " + err.Error())
	}
	return b, nil
}

// EncodeToken 把主題 id 與核心快照打包成 token
func EncodeToken(tid spec.TID, snap []byte) string {
	buf := make([]byte, 0, 2*binary.MaxVarintLen64+len(snap))
	buf = binary.AppendUvarint(buf, uint64(tid))
	buf = binary.AppendUvarint(buf, uint64(len(snap)))
	buf = append(buf, snap...)
	return EncodeBase64URL(buf)
}

// DecodeToken 解開 token；格式錯誤一律為 Warn（來自請求端）
func DecodeToken(s string) (spec.TID, []byte, error) {
	if s == "" {
		return 0, nil, errs.NewWarn("core token is empty")
	}
	raw, err := DecodeBase64URL(s)
	if err != nil {
		return 0, nil, err
	}
	tid, n := binary.Uvarint(raw)
	if n <= 0 {
		return 0, nil, errs.NewWarn("core token: bad theme id")
	}
	raw = raw[n:]
	size, n := binary.Uvarint(raw)
	if n <= 0 || size > maxSnap {
		return 0, nil, errs.NewWarn("core token: bad length")
	}
	raw = raw[n:]
	if uint64(len(raw)) != size {
		return 0, nil, errs.Warnf("core token: length mismatch (want %d, got %d)", size, len(raw))
	}
	return spec.TID(tid), append([]byte(nil), raw...), nil
}

// Fingerprint 快照前 8 bytes 的 hex，日誌用
func Fingerprint(snap []byte) string {
	return hex.EncodeToString(snap[:min(8, len(snap))])
}
