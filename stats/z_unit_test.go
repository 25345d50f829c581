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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/stats"
)

// buildStatReport 以押注 bet、每 round 贏倍 mults 組出報表；全部視為付費 Spin 的贏分。
func buildStatReport(bet int64, mults []float64) *stats.StatReport {
	L := stats.Buckets.Len()
	twc := make([]int, L)
	bwc := make([]int, L)
	b := decimal.NewFromInt(bet)

	totalWin := decimal.Zero
	var sum, sq float64
	for _, m := range mults {
		idx := stats.Buckets.Index(m)
		twc[idx]++
		bwc[idx]++
		totalWin = totalWin.Add(b.Mul(decimal.NewFromFloat(m)))
		sum += m
		sq += m * m
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			ThemeName:   "test",
			Bet:         b,
			TotalBet:    b.Mul(decimal.NewFromInt(int64(len(mults)))),
			TotalWin:    totalWin,
			BaseWin:     totalWin,
			FreeWin:     decimal.Zero,
			NoWinRounds: twc[0],
			Rounds:      len(mults),
		},
		Mult: &stats.MultReport{
			TotalWinMult:      sum,
			BaseWinMult:       sum,
			TotalWinMultSqSum: sq,
			BaseWinMultSqSum:  sq,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: twc,
			BaseWinCollect:  bwc,
			FreeWinCollect:  make([]int, L),
		},
		Player: &stats.PlayerReport{},
	}
	report.Done()
	return report
}

func TestStatReportCoreMetrics(t *testing.T) {
	rep := buildStatReport(40, []float64{1, 2})

	if got := rep.Rtp(); math.Abs(got-1.5) > 1e-12 {
		t.Fatalf("RTP got %.12f want 1.5", got)
	}
	variance := ((1.0 + 4.0) - 9.0/2) / 1
	wantStd := math.Sqrt(variance)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}
	if got := rep.Cv(); math.Abs(got-wantStd/1.5) > 1e-12 {
		t.Fatalf("CV got %.12f", got)
	}
	if rep.Summary.HitRate != 1 {
		t.Fatalf("hit rate got %v", rep.Summary.HitRate)
	}

	total := 0
	for _, c := range rep.Dist.TotalWinCollect {
		total += c
	}
	if total != rep.Summary.Rounds {
		t.Fatalf("distribution total %d != rounds %d", total, rep.Summary.Rounds)
	}

	rep.Done()
	if rep.Rtp() != 1.5 {
		t.Fatalf("RTP changed after second Done")
	}
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		mult float64
		want string
	}{
		{0, "[0,0]"},
		{0.5, "(0,1)"},
		{1, "[1,2)"},
		{4.99, "[2,5)"},
		{5, "[5,10)"},
		{9999, "[2000,10000)"},
		{10000, "[10000,+inf)"},
		{1e9, "[10000,+inf)"},
	}
	labels := stats.Buckets.WinBucketStr()
	for _, c := range cases {
		if got := labels[stats.Buckets.Index(c.mult)]; got != c.want {
			t.Fatalf("Index(%v) = %s, want %s", c.mult, got, c.want)
		}
	}
}

func TestEstimatorRtpAndSession(t *testing.T) {
	reports := make([]*stats.StatReport, 0, 100)
	for i := 0; i < 100; i++ {
		reports = append(reports, buildStatReport(100, []float64{float64(i) / 100}))
	}
	est := stats.EstimatorPlayerExp(reports)
	if math.Abs(est.RtpStat.ExpMedian.Hat-0.5) > 0.05 {
		t.Fatalf("median RTP expected ~0.5, got %.3f", est.RtpStat.ExpMedian.Hat)
	}
	if math.Abs(est.RtpStat.ExpPerc.ExpP90.Hat-0.9) > 0.05 {
		t.Fatalf("P90 RTP expected ~0.9, got %.3f", est.RtpStat.ExpPerc.ExpP90.Hat)
	}

	samples := make([]*stats.StatReport, 10)
	for i := 0; i < 10; i++ {
		r := buildStatReport(10, []float64{0})
		r.Player.BestStreak = i
		switch {
		case i < 3:
			r.Player.Bust = true
			r.Player.Alive = false
		case i < 5:
			r.Player.Cashout = true
			r.Player.Alive = false
		default:
			r.Player.Alive = true
		}
		samples[i] = r
	}
	est2 := stats.EstimatorPlayerExp(samples)
	if est2.SessionStat.Bust.Hat != 0.3 || est2.SessionStat.Cashout.Hat != 0.2 || est2.SessionStat.Alive.Hat != 0.5 {
		t.Fatalf("session rates: %+v", est2.SessionStat)
	}
	if est2.SessionStat.MedianBestStreak != 5 {
		t.Fatalf("median best streak got %v", est2.SessionStat.MedianBestStreak)
	}
	if ci := est2.SessionStat.Bust.CI; !(ci.Lo < 0.3 && ci.Hi > 0.3) {
		t.Fatalf("bust CI should contain the estimate: %+v", ci)
	}
}

func TestRenderers(t *testing.T) {
	rep := buildStatReport(10, []float64{0, 3, 12.5})
	for _, name := range []string{"", "table", "json", "YAML"} {
		f, err := stats.ParseFormat(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		sr, _ := stats.Renderers(f)
		var buf bytes.Buffer
		if err := rep.WriteWith(&buf, sr); err != nil {
			t.Fatalf("render %s: %v", f, err)
		}
		if !strings.Contains(buf.String(), "test") {
			t.Fatalf("%s output missing theme name:\n%s", f, buf.String())
		}
	}
	if _, err := stats.ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}

	var buf bytes.Buffer
	_ = rep.WriteWith(&buf, &stats.YAMLStatReportRender{})
	if out := buf.String(); !strings.Contains(out, "totalbet:") || strings.Contains(out, "totalbet: {}") {
		t.Fatalf("decimal should render as text in yaml:\n%s", buf.String())
	}
}

func TestTableAlignment(t *testing.T) {
	out := buildStatReport(10, []float64{0, 3, 12.5}).Table()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 5 || !strings.Contains(out, "Total RTP") {
		t.Fatalf("table:\n%s", out)
	}
	for _, l := range lines {
		if len(l) != len(lines[0]) {
			t.Fatalf("ragged table line %q\n%s", l, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := stats.FormatDuration(2*time.Second, 2000); !strings.Contains(got, "2.00 seconds") || !strings.Contains(got, "1,000 rounds/sec") {
		t.Fatalf("short: %q", got)
	}
	if got := stats.FormatDuration(-90*time.Second, 900); !strings.Contains(got, "1m 30s") {
		t.Fatalf("minutes: %q", got)
	}
	if got := stats.FormatDuration(2*time.Hour+3*time.Minute, 0); !strings.Contains(got, "2h:3m:0s") {
		t.Fatalf("hours: %q", got)
	}
}

func TestEstimatorJackpotAndPeak(t *testing.T) {
	samples := make([]*stats.StatReport, 4)
	for i := range samples {
		r := buildStatReport(10, []float64{1})
		r.Summary.Jackpots = i // 0,1,2,3
		r.Player.InitBalance = decimal.NewFromInt(100)
		r.Player.MaxBalance = decimal.NewFromInt(int64(100 + 50*i))
		samples[i] = r
	}
	est := stats.EstimatorPlayerExp(samples)
	jp := est.EventStat.Jackpot
	for _, ps := range []stats.PointStat{jp.Zero, jp.One, jp.Two, jp.More} {
		if ps.Hat != 0.25 {
			t.Fatalf("jackpot counts: %+v", jp)
		}
	}
	if est.Players != 4 || est.SessionStat.MedianPeak != 2 {
		t.Fatalf("players %d peak %v", est.Players, est.SessionStat.MedianPeak)
	}
	if est.RtpStat.Mean != 1 || est.RtpStat.Std != 0 {
		t.Fatalf("rtp mean/std: %v %v", est.RtpStat.Mean, est.RtpStat.Std)
	}
	if !strings.Contains(est.Table(), "Jackpots per player") {
		t.Fatalf("table misses jackpot section")
	}

	one := stats.EstimatorPlayerExp(samples[:1])
	if math.IsNaN(one.RtpStat.Std) || one.RtpStat.ExpMedian.CI.Lo != one.RtpStat.ExpMedian.Hat {
		t.Fatalf("single player: %+v", one.RtpStat)
	}
}
