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

package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/corefmt"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/ledger"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// SessionHandler 玩家 session 的 HTTP 入口；狀態全在 SessionHub 內。
type SessionHandler struct {
	hub *reelkit.SessionHub
	log *slog.Logger
}

func NewSessionHandler(hub *reelkit.SessionHub, log *slog.Logger) (*SessionHandler, error) {
	if hub == nil {
		return nil, errs.NewFatal("session handler: hub is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SessionHandler{hub: hub, log: log}, nil
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*reelkit.Session, bool) {
	id, err := urlParam(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return nil, false
	}
	s, err := h.hub.Get(id)
	if err != nil {
		httperr.Errs(w, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) view(s *reelkit.Session) dto.Session {
	return dto.NewSession(s.Engine().Theme().Table, s.Snapshot())
}

// Create POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.CreateSessionRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Theme == "" {
		httperr.Errs(w, errs.NewWarn("theme is required"))
		return
	}
	var s *reelkit.Session
	if req.Seed != nil {
		s, err = h.hub.CreateWithSeed(req.Theme, *req.Seed)
	} else {
		s, err = h.hub.Create(req.Theme)
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(s))
}

// Get GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

// Delete DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := h.hub.Remove(id); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Spin POST /v1/sessions/{id}/spin
//
// 同步結算；扣款後一定回傳該局，不受請求 ctx 取消影響。
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	round, err := s.TriggerSpin()
	if err != nil {
		httperr.Log(h.log, "session.spin", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRound(s.Engine().Theme().Table, round))
}

// Bet POST /v1/sessions/{id}/bet
//
// 超出範圍的押注會被夾回，仍回 200 並標示 clamped。
func (h *SessionHandler) Bet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := dto.DecodeJSON[dto.BetRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := req.Valid(); err != nil {
		httperr.Errs(w, err)
		return
	}

	var es ledger.State
	switch req.Action {
	case dto.BetIncrease:
		es, err = s.IncreaseBet()
	case dto.BetDecrease:
		es, err = s.DecreaseBet()
	case dto.BetMax:
		es, err = s.MaxBet()
	default:
		es, err = s.PlaceBet(*req.Amount)
	}
	res := dto.BetResult{Economy: es}
	if err != nil {
		if !errors.Is(err, errs.ErrInvalidBet) {
			httperr.Errs(w, err)
			return
		}
		res.Clamped = true
		res.Message = err.Error()
	}
	writeJSON(w, http.StatusOK, res)
}

// StartAutoSpin POST /v1/sessions/{id}/autospin
func (h *SessionHandler) StartAutoSpin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := dto.DecodeJSON[dto.AutoSpinRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	// 自動轉活得比這個請求久：只保留 ctx 的值，不跟著請求取消
	if err := s.SetAutoSpin(context.WithoutCancel(r.Context()), req.Count); err != nil {
		httperr.Log(h.log, "session.autospin", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.view(s))
}

// StopAutoSpin DELETE /v1/sessions/{id}/autospin
//
// 進行中的那一局會完整結算；回傳時自動轉未必已結束。
func (h *SessionHandler) StopAutoSpin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	type stopResp struct {
		Stopped bool        `json:"stopped"`
		Session dto.Session `json:"session"`
	}
	stopped := s.StopAutoSpin()
	writeJSON(w, http.StatusOK, stopResp{Stopped: stopped, Session: h.view(s)})
}

// Turbo POST /v1/sessions/{id}/turbo
func (h *SessionHandler) Turbo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := dto.DecodeJSON[dto.TurboRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	s.SetTurbo(req.On)
	writeJSON(w, http.StatusOK, h.view(s))
}

// Reset POST /v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, h.view(s))
}

type coreResp struct {
	Token       string `json:"token"`
	Fingerprint string `json:"fingerprint"`
}

// Core GET /v1/sessions/{id}/core：亂數核心狀態 token（重播用）
func (h *SessionHandler) Core(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := s.SnapshotCore()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coreResp{
		Token:       corefmt.EncodeToken(s.Engine().ID(), snap),
		Fingerprint: corefmt.Fingerprint(snap),
	})
}

// RestoreCore POST /v1/sessions/{id}/core
//
// token 必須來自同一主題；reset 為 true 時先回到開局狀態。
func (h *SessionHandler) RestoreCore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := dto.DecodeJSON[dto.RestoreRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	tid, snap, err := corefmt.DecodeToken(req.Token)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if tid != s.Engine().ID() {
		httperr.Errs(w, errs.Warnf("token belongs to theme %d, session plays %d", tid, s.Engine().ID()))
		return
	}
	if req.Reset {
		s.Reset()
	}
	if err := s.RestoreCore(snap); err != nil {
		// 核心拒絕的快照是呼叫端的錯
		if errs.Level(err) == errs.Fatal {
			err = errs.Warnf("invalid core snapshot: %v", err)
		}
		httperr.Errs(w, err)
		return
	}
	h.log.Debug("session.core.restore",
		slog.String("session", s.ID().String()),
		slog.String("fingerprint", corefmt.Fingerprint(snap)))
	writeJSON(w, http.StatusOK, h.view(s))
}
