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

package reelkit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/zintix-labs/reelkit/errs"
)

// SessionHub 記憶體內的 session 集合，並負責各主題獎池的累加 ticker。
//
// 不做任何持久化：程序結束即全部消失。
type SessionHub struct {
	rk  *Reelkit
	opt SessionOptions
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	capacity int

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
	cancel    context.CancelFunc
	tickers   sync.WaitGroup
}

func newSessionHub(rk *Reelkit, capacity int, opt SessionOptions) *SessionHub {
	if opt.Logger == nil {
		opt.Logger = rk.log
	}
	h := &SessionHub{
		rk:       rk,
		opt:      opt,
		log:      rk.log,
		sessions: make(map[uuid.UUID]*Session, capacity),
		capacity: max(1, capacity),
		done:     make(chan struct{}),
	}
	h.reason.Store("")

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	for _, eng := range rk.engines() {
		if p := eng.Pool(); p != nil {
			h.tickers.Go(func() { p.Run(ctx) })
		}
	}
	return h
}

// Create 以主題名稱（或 id 字串）開一個新 session，seed 由 crypto/rand 產生。
func (h *SessionHub) Create(theme string) (*Session, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return h.CreateWithSeed(theme, seed)
}

// CreateWithSeed 同 Create，但指定 seed（可重現）
func (h *SessionHub) CreateWithSeed(theme string, seed int64) (*Session, error) {
	if h.Closed() {
		return nil, errs.NewFatal("session hub closed: " + h.ClosedReason())
	}
	eng, err := h.rk.Engine(theme)
	if err != nil {
		return nil, err
	}
	s, err := newSession(eng, seed, h.opt)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		s.Close()
		return nil, errs.NewFatal("session hub closed: " + h.ClosedReason())
	}
	if len(h.sessions) >= h.capacity {
		s.Close()
		return nil, errs.Warnf("session capacity reached (%d)", h.capacity)
	}
	h.sessions[s.ID()] = s
	h.log.Debug("session.create", slog.String("session", s.ID().String()), slog.String("theme", eng.Name()))
	return s, nil
}

// Get 以 id 字串取得 session
func (h *SessionHub) Get(id string) (*Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.ErrNotFound.With("session " + id)
	}
	h.mu.RLock()
	s, ok := h.sessions[uid]
	h.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound.With("session " + id)
	}
	return s, nil
}

// Remove 關閉並移除 session
func (h *SessionHub) Remove(id string) error {
	s, err := h.Get(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.sessions, s.ID())
	h.mu.Unlock()
	s.Close()
	return nil
}

func (h *SessionHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// IDs 目前所有 session id
func (h *SessionHub) IDs() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.sessions)
}

func (h *SessionHub) Reelkit() *Reelkit { return h.rk }

// Close 關閉所有 session 並停止獎池 ticker；可重複呼叫。
func (h *SessionHub) Close() {
	h.closeWithReason("closed")
}

func (h *SessionHub) closeWithReason(reason string) {
	h.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		h.reason.Store(reason)
		h.closed.Store(true)
		close(h.done)

		h.mu.Lock()
		all := lo.Values(h.sessions)
		h.sessions = map[uuid.UUID]*Session{}
		h.mu.Unlock()
		for _, s := range all {
			s.Close()
		}
		h.cancel()
		h.tickers.Wait()
		h.log.Info("session hub closed", slog.String("reason", reason), slog.Int("sessions", len(all)))
	})
}

// Done 關閉時 close
func (h *SessionHub) Done() <-chan struct{} {
	return h.done
}

func (h *SessionHub) Closed() bool {
	return h.closed.Load()
}

func (h *SessionHub) ClosedReason() string {
	if v := h.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
