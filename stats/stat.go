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

package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 主題統計報告
//
// 一個 round = 一次付費 Spin 加上它觸發的全部免費 Spin。
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	Player  *PlayerReport  `json:"Player,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	ThemeName   string          `json:"ThemeName"`
	ThemeId     spec.TID        `json:"ThemeId"`
	Bet         decimal.Decimal `json:"Bet"`
	TotalBet    decimal.Decimal `json:"TotalBet"`
	TotalWin    decimal.Decimal `json:"TotalWin"`
	BaseWin     decimal.Decimal `json:"BaseWin"`
	FreeWin     decimal.Decimal `json:"FreeWin"`
	RTP         float64         `json:"RTP"`
	RtpCI       CI              `json:"RtpCI"`
	Std         float64         `json:"Std"`
	Cv          float64         `json:"Cv"`
	Trigger     int             `json:"Trigger"`
	TriggerRate float64         `json:"TriggerRate"`
	FreeSpins   int             `json:"FreeSpins"`
	Jackpots    int             `json:"Jackpots"`
	NoWinRounds int             `json:"NoWinRounds"`
	HitRate     float64         `json:"HitRate"`
	Rounds      int             `json:"Rounds"`
}

// MultReport 贏倍統計（以押注為 1 倍）
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"`
	BaseWinMult       float64 `json:"BaseWinMult"`
	FreeWinMult       float64 `json:"FreeWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum"` // 平方和
	BaseWinMultSqSum  float64 `json:"BaseWinMultSqSum"`  // 平方和
	FreeWinMultSqSum  float64 `json:"FreeWinMultSqSum"`  // 平方和
}

// DistReport 贏倍區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"`
	TotalWinCollect []int     `json:"TotalWinCollect"`
	BaseWinCollect  []int     `json:"BaseWinCollect"`
	FreeWinCollect  []int     `json:"FreeWinCollect"`
	TotalWinDist    []float64 `json:"TotalWinDist"`
	BaseWinDist     []float64 `json:"BaseWinDist"`
	FreeWinDist     []float64 `json:"FreeWinDist"`
}

// PlayerReport 玩家統計
//
// 只有玩家模擬才會填入
type PlayerReport struct {
	InitBalance decimal.Decimal `json:"InitBalance"`
	Balance     decimal.Decimal `json:"Balance"`
	MaxBalance  decimal.Decimal `json:"MaxBalance"`
	MinBalance  decimal.Decimal `json:"MinBalance"`
	BestStreak  int             `json:"BestStreak"`
	Bust        bool            `json:"Bust"`
	Cashout     bool            `json:"Cashout"`
	Alive       bool            `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 一次性計算衍生欄位並鎖定，重複呼叫無作用。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Rounds > 0 {
		s.Summary.TriggerRate = float64(s.Summary.Trigger) / float64(s.Summary.Rounds)
		s.Summary.HitRate = 1.0 - float64(s.Summary.NoWinRounds)/float64(s.Summary.Rounds)
	}

	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}
	s.isDone = true
}

// Rtp 總贏分 / 總押注
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet.IsZero() {
		return 0
	}
	return s.Summary.TotalWin.Div(s.Summary.TotalBet).InexactFloat64()
}

// Std 單 round 贏倍的標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci 95% RTP 信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// Table 摘要表格
func (s *StatReport) Table() string {
	s.Done()
	return fmtTable(s.Summary.ThemeName, s.summaryRows())
}

// ============================================================
// ** 內部方法 **
// ============================================================

// FormatDuration 用時與每秒 round 數
func FormatDuration(d time.Duration, rounds int) string {
	p := message.NewPrinter(lang)
	d = d.Abs()
	sec := max(d.Seconds(), 1e-9)
	rps := int(float64(rounds) / sec)
	var used string
	switch {
	case sec < 60:
		used = p.Sprintf("%.2f seconds", sec)
	case d < time.Hour:
		used = p.Sprintf("%dm %ds", int(d.Minutes()), int(sec)%60)
	default:
		used = p.Sprintf("%dh:%dm:%ds", int(d.Hours()), int(d.Minutes())%60, int(sec)%60)
	}
	return p.Sprintf("used: %s\nrps : %d rounds/sec\n", used, rps)
}

func (s *StatReport) summaryRows() []row {
	p := message.NewPrinter(lang)
	sum := s.Summary
	money := func(d decimal.Decimal) string { return p.Sprintf("%.2f", d.InexactFloat64()) }
	return []row{
		{"Theme", sum.ThemeName},
		{"Theme ID", fmt.Sprintf("%d", sum.ThemeId)},
		{"Bet", sum.Bet.String()},
		{"Total Rounds", p.Sprintf("%d", sum.Rounds)},
		{"Total RTP", pct(sum.RTP)},
		{"RTP 95% CI", fmt.Sprintf("[%s, %s]", pct(sum.RtpCI.Lo), pct(sum.RtpCI.Hi))},
		{"Total Bet", money(sum.TotalBet)},
		{"Total Win", money(sum.TotalWin)},
		{"Base Win", money(sum.BaseWin)},
		{"Free Win", money(sum.FreeWin)},
		{"Hit Rate", pct(sum.HitRate)},
		{"Bonus", p.Sprintf("%d (1 in %.0f)", sum.Trigger, oneIn(sum.TriggerRate))},
		{"Free Spins", p.Sprintf("%d", sum.FreeSpins)},
		{"Jackpots", p.Sprintf("%d", sum.Jackpots)},
		{"STD", p.Sprintf("%.3f", sum.Std)},
		{"CV", p.Sprintf("%.3f", sum.Cv)},
	}
}

func oneIn(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return 1 / rate
}

// row 表格的一列
type row struct {
	key string
	val string
}

// fmtTable 兩欄表格，寬度以顯示寬度計（全形字佔兩格）
func fmtTable(title string, rows []row) string {
	kw, vw := 0, 0
	for _, r := range rows {
		kw = max(kw, runewidth.StringWidth(r.key))
		vw = max(vw, runewidth.StringWidth(r.val))
	}
	inner := kw + vw + 5
	if tw := runewidth.StringWidth(title); tw > inner {
		vw += tw - inner
		inner = tw
	}

	divider := "+" + strings.Repeat("-", kw+2) + "+" + strings.Repeat("-", vw+2) + "+\n"
	pad := inner - runewidth.StringWidth(title)

	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", inner) + "+\n")
	sb.WriteString("|" + strings.Repeat(" ", pad/2) + title + strings.Repeat(" ", pad-pad/2) + "|\n")
	sb.WriteString(divider)
	for _, r := range rows {
		sb.WriteString("| " + runewidth.FillRight(r.key, kw) + " | " + runewidth.FillRight(r.val, vw) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}
