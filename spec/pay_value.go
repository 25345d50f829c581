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
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
	"gopkg.in/yaml.v3"
)

// JackpotLiteral 賠付表中代表「獎池」的字面值
const JackpotLiteral = "JACKPOT"

// PayValue 是賠付表的一格：倍數，或是字面值 JACKPOT（贏得當下獎池）。
type PayValue struct {
	Mult    decimal.Decimal
	Jackpot bool
}

// Pay 以倍數建立 PayValue
func Pay(mult float64) PayValue {
	return PayValue{Mult: decimal.NewFromFloat(mult)}
}

// JackpotPay 建立 JACKPOT 格
func JackpotPay() PayValue {
	return PayValue{Jackpot: true}
}

func (p PayValue) String() string {
	if p.Jackpot {
		return JackpotLiteral
	}
	return p.Mult.String()
}

func parsePayValue(raw string) (PayValue, error) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, JackpotLiteral) {
		return JackpotPay(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PayValue{}, errs.Wrap(err, "invalid pay value "+raw)
	}
	if d.IsNegative() {
		return PayValue{}, errs.Fatalf("pay value must not be negative: %s", raw)
	}
	return PayValue{Mult: d}, nil
}

// UnmarshalYAML 接受數字或 JACKPOT
func (p *PayValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errs.Fatalf("pay value must be scalar (line %d)", node.Line)
	}
	v, err := parsePayValue(node.Value)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p PayValue) MarshalYAML() (any, error) {
	if p.Jackpot {
		return JackpotLiteral, nil
	}
	return p.Mult.InexactFloat64(), nil
}

// UnmarshalJSON 接受數字、數字字串或 "JACKPOT"
func (p *PayValue) UnmarshalJSON(b []byte) error {
	v, err := parsePayValue(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p PayValue) MarshalJSON() ([]byte, error) {
	if p.Jackpot {
		return []byte(`"` + JackpotLiteral + `"`), nil
	}
	return []byte(p.Mult.String()), nil
}
