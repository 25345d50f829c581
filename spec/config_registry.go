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

package spec

import (
	"bytes"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/reelkit/errs"
	"gopkg.in/yaml.v3"
)

// 嚴格 JSON：多寫或拼錯欄位直接報錯，行為對齊 YAML 的 KnownFields(true)。
var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// GetThemeSettingByYAML
// 會讀取 YAML 設定（嚴格欄位檢查）、初始化各子設定並執行基本檢查後回傳
func GetThemeSettingByYAML(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ts); err != nil && err != io.EOF {
		return nil, errs.Wrap(err, "failed to unmarshal theme yaml")
	}
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}
	return ts, nil
}

// GetThemeSettingByJSON
// 會讀取 JSON 設定、初始化各子設定並執行基本檢查後回傳
func GetThemeSettingByJSON(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	if err := strictJSON.Unmarshal(data, ts); err != nil {
		return nil, errs.Wrap(err, "can not unmarshal theme json")
	}
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}
	return ts, nil
}
