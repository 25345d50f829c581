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
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 信賴水準
const confidence = 0.95

// EstimatorPlayers 玩家體驗評估：把多位玩家的 StatReport 彙整成分布敘事
type EstimatorPlayers struct {
	Players     int         `json:"Players"`
	RtpStat     RtpStat     `json:"RtpStat"`
	EventStat   EventStat   `json:"EventStat"`
	SessionStat SessionStat `json:"SessionStat"`
}

// RtpStat 每位玩家各自 RTP 的分布
type RtpStat struct {
	Mean      float64   `json:"Mean"`
	Std       float64   `json:"Std"`
	ExpMedian PointStat `json:"ExpMedian"`
	ExpPerc   ExpPerc   `json:"ExpPerc"` // 第 q 分位玩家的 RTP
	RtpPerc   RtpPerc   `json:"RtpPerc"` // RTP 不超過門檻的玩家比例
}

type ExpPerc struct {
	ExpP10 PointStat `json:"ExpP10"`
	ExpP33 PointStat `json:"ExpP33"`
	ExpP67 PointStat `json:"ExpP67"`
	ExpP90 PointStat `json:"ExpP90"`
}

type RtpPerc struct {
	Rtp30  PointStat `json:"Rtp30"`
	Rtp50  PointStat `json:"Rtp50"`
	Rtp70  PointStat `json:"Rtp70"`
	Rtp100 PointStat `json:"Rtp100"`
}

// PointStat 點估計與信賴區間
type PointStat struct {
	Hat float64 `json:"Hat"`
	CI  CI      `json:"CI"`
}

type EventStat struct {
	Trigger EventCount  `json:"Trigger"` // 觸發免費遊戲次數
	Jackpot EventCount  `json:"Jackpot"` // 中頭獎次數
	Bucket  BucketEvent `json:"Bucket"`
}

// EventCount 某事件在一位玩家身上發生 0/1/2/3+ 次的比例
type EventCount struct {
	Zero PointStat `json:"Zero"`
	One  PointStat `json:"One"`
	Two  PointStat `json:"Two"`
	More PointStat `json:"More"`
}

type BucketEvent struct {
	BucketLable []string     `json:"BucketLable"`
	BucketCount []EventCount `json:"BucketCount"`
}

// SessionStat 玩家離場方式
type SessionStat struct {
	Bust             PointStat `json:"Bust"`
	Cashout          PointStat `json:"Cashout"`
	Alive            PointStat `json:"Alive"`
	MedianBestStreak float64   `json:"MedianBestStreak"`
	MedianPeak       float64   `json:"MedianPeak"` // 最高餘額 / 初始餘額 的中位數
}

// EstimatorPlayerExp 從每位玩家的報告估計體驗分布
//
// 分位數採最近秩法；比例皆附 Clopper-Pearson 區間。
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	rtp := collect(sts, func(s *StatReport) float64 { return s.Rtp() })
	if n > 1 {
		out.RtpStat.Mean, out.RtpStat.Std = stat.MeanStdDev(rtp.data, nil)
	} else {
		out.RtpStat.Mean = rtp.data[0]
	}
	out.RtpStat.ExpMedian = rtp.quantile(0.5)
	out.RtpStat.ExpPerc = ExpPerc{
		ExpP10: rtp.quantile(0.10),
		ExpP33: rtp.quantile(1.0 / 3.0),
		ExpP67: rtp.quantile(2.0 / 3.0),
		ExpP90: rtp.quantile(0.90),
	}
	out.RtpStat.RtpPerc = RtpPerc{
		Rtp30:  rtp.atMost(0.30),
		Rtp50:  rtp.atMost(0.50),
		Rtp70:  rtp.atMost(0.70),
		Rtp100: rtp.atMost(1.00),
	}

	out.EventStat.Trigger = countEvent(sts, func(s *StatReport) int { return s.Summary.Trigger })
	out.EventStat.Jackpot = countEvent(sts, func(s *StatReport) int { return s.Summary.Jackpots })
	labels := Buckets.WinBucketStr()
	out.EventStat.Bucket = BucketEvent{BucketLable: labels, BucketCount: make([]EventCount, len(labels))}
	for bi := range labels {
		out.EventStat.Bucket.BucketCount[bi] = countEvent(sts, func(s *StatReport) int {
			if bi < len(s.Dist.TotalWinCollect) {
				return s.Dist.TotalWinCollect[bi]
			}
			return 0
		})
	}

	out.SessionStat = SessionStat{
		Bust:    proportion(sts, func(p *PlayerReport) bool { return p.Bust }),
		Cashout: proportion(sts, func(p *PlayerReport) bool { return p.Cashout }),
		Alive:   proportion(sts, func(p *PlayerReport) bool { return p.Alive }),
	}
	out.SessionStat.MedianBestStreak = collect(sts, func(s *StatReport) float64 {
		if s.Player == nil {
			return 0
		}
		return float64(s.Player.BestStreak)
	}).at(0.5)
	out.SessionStat.MedianPeak = collect(sts, func(s *StatReport) float64 {
		if s.Player == nil || !s.Player.InitBalance.IsPositive() {
			return 0
		}
		return s.Player.MaxBalance.Div(s.Player.InitBalance).InexactFloat64()
	}).at(0.5)
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// sample 已排序的樣本
type sample struct {
	data []float64
}

func collect(sts []*StatReport, f func(*StatReport) float64) sample {
	data := make([]float64, len(sts))
	for i, s := range sts {
		data[i] = f(s)
	}
	slices.Sort(data)
	return sample{data: data}
}

// at 最近秩分位數
func (sp sample) at(q float64) float64 {
	n := len(sp.data)
	if n == 0 {
		return 0
	}
	return sp.data[clampIdx(int(q*float64(n)), n)]
}

// quantile 分位數點估計；區間由秩的 Beta 分布反推回樣本值
func (sp sample) quantile(q float64) PointStat {
	n := len(sp.data)
	ps := PointStat{Hat: sp.at(q)}
	if n == 0 {
		return ps
	}
	if n == 1 {
		ps.CI = CI{Lo: sp.data[0], Hi: sp.data[0]}
		return ps
	}
	k := min(max(int(q*float64(n)), 1), n-1)
	alpha := 1 - confidence
	pLo := betaQuantile(float64(k), float64(n-k+1), alpha/2)
	pHi := betaQuantile(float64(k+1), float64(n-k), 1-alpha/2)
	ps.CI = CI{
		Lo: sp.data[clampIdx(int(pLo*float64(n)), n)],
		Hi: sp.data[clampIdx(int(pHi*float64(n))-1, n)],
	}
	return ps
}

// atMost 樣本中 <= x 的比例
func (sp sample) atMost(x float64) PointStat {
	k := 0
	for _, v := range sp.data {
		if v > x {
			break
		}
		k++
	}
	return binomial(k, len(sp.data))
}

func countEvent(sts []*StatReport, f func(*StatReport) int) EventCount {
	var c [4]int
	for _, s := range sts {
		c[min(max(f(s), 0), 3)]++
	}
	n := len(sts)
	return EventCount{Zero: binomial(c[0], n), One: binomial(c[1], n), Two: binomial(c[2], n), More: binomial(c[3], n)}
}

func proportion(sts []*StatReport, f func(*PlayerReport) bool) PointStat {
	k := 0
	for _, s := range sts {
		if s.Player != nil && f(s.Player) {
			k++
		}
	}
	return binomial(k, len(sts))
}

// binomial k/n 與 Clopper-Pearson 區間
func binomial(k, n int) PointStat {
	if n == 0 {
		return PointStat{CI: CI{Lo: 0, Hi: 1}}
	}
	alpha := 1 - confidence
	ps := PointStat{Hat: float64(k) / float64(n), CI: CI{Lo: 0, Hi: 1}}
	if k > 0 {
		ps.CI.Lo = betaQuantile(float64(k), float64(n-k+1), alpha/2)
	}
	if k < n {
		ps.CI.Hi = betaQuantile(float64(k+1), float64(n-k), 1-alpha/2)
	}
	return ps
}

func betaQuantile(a, b, p float64) float64 {
	return distuv.Beta{Alpha: a, Beta: b}.Quantile(p)
}

func clampIdx(i, n int) int {
	return min(max(i, 0), n-1)
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Table 以表格輸出玩家體驗評估
func (est *EstimatorPlayers) Table() string {
	var sb strings.Builder
	r := est.RtpStat
	section(&sb, fmt.Sprintf("RTP (%d players)", est.Players), []row{
		{"Mean RTP", fmt.Sprintf("%s (std %s)", pct(r.Mean), pct(r.Std))},
		{"Median RTP", fmtPoint(r.ExpMedian)},
		{"P10 RTP", fmtPoint(r.ExpPerc.ExpP10)},
		{"P33 RTP", fmtPoint(r.ExpPerc.ExpP33)},
		{"P67 RTP", fmtPoint(r.ExpPerc.ExpP67)},
		{"P90 RTP", fmtPoint(r.ExpPerc.ExpP90)},
		{"≤30% RTP (players)", fmtPoint(r.RtpPerc.Rtp30)},
		{"≤50% RTP (players)", fmtPoint(r.RtpPerc.Rtp50)},
		{"≤70% RTP (players)", fmtPoint(r.RtpPerc.Rtp70)},
		{"≤100% RTP (players)", fmtPoint(r.RtpPerc.Rtp100)},
	})
	section(&sb, "Bonus triggers per player", eventRows(est.EventStat.Trigger))
	section(&sb, "Jackpots per player", eventRows(est.EventStat.Jackpot))

	b := est.EventStat.Bucket
	rows := make([]row, len(b.BucketLable))
	for i, label := range b.BucketLable {
		rows[i] = row{label, fmtPoint(b.BucketCount[i].Zero)}
	}
	section(&sb, "Never hit bucket (players)", rows)

	ss := est.SessionStat
	section(&sb, "Session Outcome", []row{
		{"Bust", fmtPoint(ss.Bust)},
		{"Cashout", fmtPoint(ss.Cashout)},
		{"Alive", fmtPoint(ss.Alive)},
		{"Median best streak", fmt.Sprintf("%.0f", ss.MedianBestStreak)},
		{"Median peak balance", fmt.Sprintf("%.2fx", ss.MedianPeak)},
	})
	return sb.String()
}

func eventRows(ec EventCount) []row {
	return []row{
		{"0 times", fmtPoint(ec.Zero)},
		{"1 time", fmtPoint(ec.One)},
		{"2 times", fmtPoint(ec.Two)},
		{"3+ times", fmtPoint(ec.More)},
	}
}

func section(sb *strings.Builder, title string, rows []row) {
	sb.WriteString(fmtTable(title, rows))
}

func pct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtPoint(ps PointStat) string {
	return fmt.Sprintf("%s [%s, %s]", pct(ps.Hat), pct(ps.CI.Lo), pct(ps.CI.Hi))
}
