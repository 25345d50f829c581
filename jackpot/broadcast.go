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

package jackpot

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Update 獎池異動通知
type Update struct {
	Theme     string          `json:"theme"`
	Amount    decimal.Decimal `json:"amount"`
	Won       bool            `json:"won"` // true 表示此次異動來自中獎重置
	Timestamp time.Time       `json:"timestamp"`
}

// Broadcaster 一對多推播。
//
// 每個 listener 有自己的緩衝 channel；慢的 listener 會掉訊息，不會卡住獎池。
type Broadcaster struct {
	mu     sync.RWMutex
	buffer int
	subs   map[uint64]chan Update
	nextID uint64
}

// NewBroadcaster 建立推播器，buffer 為每個 listener 的緩衝大小
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{buffer: buffer, subs: make(map[uint64]chan Update)}
}

// Send 非阻塞推播
func (b *Broadcaster) Send(u Update) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Listen 訂閱；ctx 結束或呼叫 cancel 後 channel 會被關閉。
func (b *Broadcaster) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	listenerCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Update, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-listenerCtx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, cancel
}

// Listeners 目前訂閱數
func (b *Broadcaster) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
