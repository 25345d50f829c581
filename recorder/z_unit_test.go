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

package recorder

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestRecordAndMerge(t *testing.T) {
	a, err := NewSpinRecorder("fruit", 1, dec(10), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewSpinRecorder("fruit", 1, dec(10), decimal.Zero)

	a.Record(&Outcome{Bet: dec(10), BaseWin: dec(25)})
	a.Record(&Outcome{Bet: dec(10)})
	b.Record(&Outcome{Bet: dec(10), BaseWin: dec(40), FreeWin: dec(160), Triggered: true, FreeSpins: 10})

	m, err := MergeSpinRecorder([]*SpinRecorder{a, b})
	if err != nil {
		t.Fatal(err)
	}
	rep := m.Done()
	rep.Done()
	if rep.Summary.Rounds != 3 || rep.Summary.Trigger != 1 || rep.Summary.FreeSpins != 10 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
	if !rep.Summary.TotalBet.Equal(dec(30)) || !rep.Summary.TotalWin.Equal(dec(225)) {
		t.Fatalf("totals: bet=%s win=%s", rep.Summary.TotalBet, rep.Summary.TotalWin)
	}
	if rep.Summary.RTP != 7.5 {
		t.Fatalf("rtp got %v", rep.Summary.RTP)
	}
	if rep.Summary.NoWinRounds != 1 {
		t.Fatalf("no-win rounds got %d", rep.Summary.NoWinRounds)
	}
	// 2.5 倍落在 [2,5)，20 倍落在 [20,50)
	if rep.Dist.TotalWinCollect[3] != 1 || rep.Dist.TotalWinCollect[6] != 1 {
		t.Fatalf("dist: %v", rep.Dist.TotalWinCollect)
	}
}

func TestMergeRejectsDifferentBet(t *testing.T) {
	a, _ := NewSpinRecorder("fruit", 1, dec(10), decimal.Zero)
	b, _ := NewSpinRecorder("fruit", 1, dec(5), decimal.Zero)
	if _, err := MergeSpinRecorder([]*SpinRecorder{a, b}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewSpinRecorder("x", 1, decimal.Zero, decimal.Zero); err == nil {
		t.Fatalf("zero bet must fail")
	}
}

func TestPlayerBustAndCashout(t *testing.T) {
	r, _ := NewSpinRecorder("fruit", 1, dec(10), dec(30))
	if r.RecordWithPlayer(&Outcome{Bet: dec(10)}) {
		t.Fatalf("20 left, should keep playing")
	}
	if r.RecordWithPlayer(&Outcome{Bet: dec(10)}) || r.Broke() {
		t.Fatalf("10 left still covers the bet")
	}
	if !r.RecordWithPlayer(&Outcome{Bet: dec(10), BaseWin: dec(5)}) || !r.Player.Bust || !r.Broke() {
		t.Fatalf("5 left should bust: balance=%s", r.Player.Balance)
	}
	if !r.Player.MinBalance.Equal(dec(5)) {
		t.Fatalf("min balance got %s", r.Player.MinBalance)
	}

	c, _ := NewSpinRecorder("fruit", 1, dec(10), dec(30))
	if !c.RecordWithPlayer(&Outcome{Bet: dec(10), BaseWin: dec(100), Streak: 1}) || !c.Player.Cashout {
		t.Fatalf("120 >= 90 should cash out: %s", c.Player.Balance)
	}
	rep := c.Done()
	rep.Done()
	if rep.Player.Alive || rep.Player.BestStreak != 1 || !rep.Player.MaxBalance.Equal(dec(120)) {
		t.Fatalf("player report: %+v", rep.Player)
	}
}
