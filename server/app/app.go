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

// Package app 應用程式生命週期管理：統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// App 啟動所有 Component，在收到 OS 信號、ctx 結束或任一 Component 返回時依序關閉全部。
type App struct {
	comps   []Component
	timeout time.Duration
}

func New() *App { return &App{timeout: defaultShutdownTimeout} }

// NewWith 建立時直接註冊多個 Component；關閉順序與註冊順序相同
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// SetShutdownTimeout 調整關閉期限；<= 0 時不變
func (a *App) SetShutdownTimeout(td time.Duration) {
	if td > 0 {
		a.timeout = td
	}
}

// Run 阻塞直到 SIGINT/SIGTERM 或任一 Component 返回。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 同 Run，但以 ctx 取代 OS 信號。
//   - ctx 結束：優雅關閉後回傳 nil
//   - Component 返回：優雅關閉後回傳該錯誤（nil 代表正常結束）
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func() { errCh <- c.Run() }()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	return errors.Join(err, a.gracefulShutdown())
}

// gracefulShutdown 在期限內依序呼叫 Shutdown，收集全部錯誤
func (a *App) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
