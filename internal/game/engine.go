// Package game implements the level sequencer.
//
// This file implements the Engine, which wraps the pure transition functions
// with per-session locking, persistence, and the oracle call.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couragelab/standtall/internal/levels"
	"github.com/couragelab/standtall/internal/models"
	"github.com/couragelab/standtall/internal/oracle"
	"github.com/couragelab/standtall/internal/store"
	"github.com/couragelab/standtall/internal/util"
)

// Engine drives game sessions. All state mutation happens under the engine
// lock; the only work done outside it is the outbound oracle call, so at most
// one turn per session is ever in flight.
type Engine struct {
	st     store.Store
	oracle oracle.Client
	mu     sync.Mutex
}

// NewEngine creates an engine backed by the given store and scoring client.
func NewEngine(st store.Store, client oracle.Client) *Engine {
	slog.Debug("Engine.NewEngine: creating engine")
	return &Engine{st: st, oracle: client}
}

// CreateSession creates and persists a fresh session in the intro phase.
func (e *Engine) CreateSession() (*models.GameSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := NewSession(util.GenerateSessionID(), time.Now())
	if err := e.persistLocked(&s); err != nil {
		return nil, err
	}
	slog.Info("Engine.CreateSession: session created", "sessionID", s.ID)
	return &s, nil
}

// GetSession returns a snapshot of the session.
func (e *Engine) GetSession(id string) (*models.GameSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(id)
}

// StartLevel transitions a session from intro to playing on its first level.
func (e *Engine) StartLevel(id string) (*models.GameSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.loadLocked(id)
	if err != nil {
		return nil, err
	}
	if s.Phase != models.PhaseIntro {
		slog.Warn("Engine.StartLevel: wrong phase", "sessionID", id, "phase", s.Phase)
		return nil, models.ErrWrongPhase
	}

	lvl := levels.Get(s.LevelIndex)
	if lvl == nil {
		return nil, fmt.Errorf("no level at index %d", s.LevelIndex)
	}
	*s = StartLevel(*s, *lvl)
	if err := e.persistLocked(s); err != nil {
		return nil, err
	}
	slog.Info("Engine.StartLevel: level started", "sessionID", id, "level", lvl.ID)
	return s, nil
}

// AdvanceLevel moves a session that cleared a level to the next one, or to
// victory after the final level.
func (e *Engine) AdvanceLevel(id string) (*models.GameSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.loadLocked(id)
	if err != nil {
		return nil, err
	}
	if s.Phase != models.PhaseLevelSuccess {
		slog.Warn("Engine.AdvanceLevel: wrong phase", "sessionID", id, "phase", s.Phase)
		return nil, models.ErrWrongPhase
	}

	next := levels.Get(s.LevelIndex + 1)
	*s = AdvanceLevel(*s, next)
	if err := e.persistLocked(s); err != nil {
		return nil, err
	}
	slog.Info("Engine.AdvanceLevel: advanced", "sessionID", id, "level", s.LevelIndex, "phase", s.Phase)
	return s, nil
}

// RetryLevel restarts the session's current level. Legal after a game over,
// and also from playing or feedback_pending: restarting mid-turn abandons the
// outstanding oracle call, whose response is then discarded as stale.
func (e *Engine) RetryLevel(id string) (*models.GameSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.loadLocked(id)
	if err != nil {
		return nil, err
	}
	switch s.Phase {
	case models.PhaseGameOver, models.PhasePlaying, models.PhaseFeedbackPending:
		// restartable
	default:
		slog.Warn("Engine.RetryLevel: wrong phase", "sessionID", id, "phase", s.Phase)
		return nil, models.ErrWrongPhase
	}

	lvl := levels.Get(s.LevelIndex)
	if lvl == nil {
		return nil, fmt.Errorf("no level at index %d", s.LevelIndex)
	}
	*s = StartLevel(*s, *lvl)
	if err := e.persistLocked(s); err != nil {
		return nil, err
	}
	slog.Info("Engine.RetryLevel: level restarted", "sessionID", id, "level", lvl.ID)
	return s, nil
}

// SubmitTurn forwards the learner's utterance to the scoring oracle and
// applies the judgment. Empty utterances are ignored silently. A submission
// while a turn is outstanding returns models.ErrTurnPending with no other
// side effect. An oracle failure voids the turn with a single error log
// entry. A judgment arriving after the level was restarted is discarded.
func (e *Engine) SubmitTurn(ctx context.Context, id, utterance string) (*models.GameSession, error) {
	utterance = strings.TrimSpace(utterance)

	e.mu.Lock()
	s, err := e.loadLocked(id)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if utterance == "" {
		// Silently ignored rather than treated as an error.
		e.mu.Unlock()
		return s, nil
	}
	if s.TurnPending {
		slog.Warn("Engine.SubmitTurn: turn already in flight", "sessionID", id)
		e.mu.Unlock()
		return nil, models.ErrTurnPending
	}
	if s.Phase != models.PhasePlaying {
		slog.Warn("Engine.SubmitTurn: wrong phase", "sessionID", id, "phase", s.Phase)
		e.mu.Unlock()
		return nil, models.ErrWrongPhase
	}

	lvl := levels.Get(s.LevelIndex)
	if lvl == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("no level at index %d", s.LevelIndex)
	}

	*s = BeginTurn(*s, utterance)
	if err := e.persistLocked(s); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	// Key the dispatched call by (epoch, turn) so a response landing after a
	// level restart cannot touch the new level's state.
	epoch, turn := s.Epoch, s.Turn
	req := oracle.TurnRequest{
		Scenario:    lvl.Scenario,
		Objective:   lvl.Objective,
		LastNPCLine: LastNPCLine(s.Log),
		Utterance:   utterance,
	}
	e.mu.Unlock()

	slog.Debug("Engine.SubmitTurn: dispatching to oracle", "sessionID", id, "epoch", epoch, "turn", turn)
	result, oracleErr := e.oracle.ScoreTurn(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.loadLocked(id)
	if err != nil {
		return nil, err
	}
	if cur.Epoch != epoch || cur.Turn != turn {
		slog.Info("Engine.SubmitTurn: discarding stale oracle response",
			"sessionID", id, "dispatchedEpoch", epoch, "currentEpoch", cur.Epoch)
		return cur, nil
	}

	if oracleErr != nil {
		slog.Warn("Engine.SubmitTurn: oracle unavailable, voiding turn", "sessionID", id, "error", oracleErr)
		*cur = VoidTurn(*cur)
	} else {
		*cur = ApplyTurnResult(*cur, result)
		slog.Info("Engine.SubmitTurn: turn applied",
			"sessionID", id, "turn", turn, "delta", result.ConfidenceDelta,
			"status", result.Status, "confidence", cur.Confidence, "phase", cur.Phase)
	}
	if err := e.persistLocked(cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// loadLocked fetches a session from the store. Callers must hold e.mu.
func (e *Engine) loadLocked(id string) (*models.GameSession, error) {
	s, err := e.st.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if s == nil {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

// persistLocked stamps and saves a session. Callers must hold e.mu.
func (e *Engine) persistLocked(s *models.GameSession) error {
	s.UpdatedAt = time.Now()
	if err := e.st.SaveSession(*s); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}
