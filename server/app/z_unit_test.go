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

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type blocker struct {
	stop     chan struct{}
	shutdown atomic.Int32
	runErr   error
}

func newBlocker(runErr error) *blocker {
	return &blocker{stop: make(chan struct{}), runErr: runErr}
}

func (b *blocker) Run() error {
	if b.runErr != nil {
		return b.runErr
	}
	<-b.stop
	return nil
}

func (b *blocker) Shutdown(ctx context.Context) error {
	if b.shutdown.Add(1) == 1 {
		close(b.stop)
	}
	return nil
}

func TestRunContextCancel(t *testing.T) {
	a, b := newBlocker(nil), newBlocker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWith(a, b).RunContext(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel should be a clean stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("app did not stop")
	}
	if a.shutdown.Load() != 1 || b.shutdown.Load() != 1 {
		t.Fatalf("every component is shut down once")
	}
}

func TestRunContextComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	ok, bad := newBlocker(nil), newBlocker(boom)
	app := NewWith(ok, bad)
	app.SetShutdownTimeout(time.Second)
	err := app.RunContext(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("component error should surface, got %v", err)
	}
	if ok.shutdown.Load() != 1 {
		t.Fatalf("healthy component should be shut down")
	}
}
