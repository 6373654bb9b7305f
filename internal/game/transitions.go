// Package game implements the level sequencer: a small finite-state machine
// that walks a session through the scripted levels, tracks the confidence
// meter, and applies the scoring oracle's judgment to each turn.
//
// The transition table lives in pure functions over models.GameSession so it
// can be tested without a store, an oracle, or any rendering surface. The
// Engine wraps these functions with locking, persistence, and the oracle call.
package game

import (
	"time"

	"github.com/couragelab/standtall/internal/models"
)

// OracleErrorNotice is the single generic log entry appended when the
// scoring oracle could not judge a turn.
const OracleErrorNotice = "The coach couldn't hear that one. Your line wasn't judged — take a breath and try again."

// NewSession creates a fresh session in the intro phase at the first level.
func NewSession(id string, now time.Time) models.GameSession {
	return models.GameSession{
		ID:         id,
		Phase:      models.PhaseIntro,
		LevelIndex: 0,
		Confidence: models.StartingConfidence,
		Log:        []models.MessageEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StartLevel resets the session for its current level: confidence back to 50,
// turn counter zeroed, log reduced to the level's opening line. The epoch is
// bumped so any oracle response still in flight for the previous run of the
// level is recognized as stale and discarded.
func StartLevel(s models.GameSession, lvl models.LevelConfig) models.GameSession {
	s.Phase = models.PhasePlaying
	s.Confidence = models.StartingConfidence
	s.Turn = 0
	s.Epoch++
	s.TurnPending = false
	s.Log = []models.MessageEntry{{Kind: models.EntryNPC, Text: lvl.OpeningLine}}
	return s
}

// BeginTurn records the learner's utterance and marks the turn as dispatched:
// the user entry is appended immediately and the phase moves to
// feedback_pending until the oracle's judgment lands.
func BeginTurn(s models.GameSession, utterance string) models.GameSession {
	s.Turn++
	s.TurnPending = true
	s.Phase = models.PhaseFeedbackPending
	s.Log = append(s.Log, models.MessageEntry{Kind: models.EntryUser, Text: utterance})
	return s
}

// ApplyTurnResult applies the oracle's judgment to a dispatched turn.
// The confidence delta is clamped, the coach and NPC entries are appended in
// that order, and the phase is resolved: a collapsed confidence (<= 0) ends
// the level even when the oracle reported pass.
func ApplyTurnResult(s models.GameSession, r models.TurnResult) models.GameSession {
	s.TurnPending = false
	s.Confidence = models.ClampConfidence(s.Confidence + models.ClampDelta(r.ConfidenceDelta))
	s.Log = append(s.Log,
		models.MessageEntry{Kind: models.EntryCoach, Text: r.CoachFeedback},
		models.MessageEntry{Kind: models.EntryNPC, Text: r.NPCResponse},
	)

	switch {
	case s.Confidence <= models.MinConfidence || r.Status == models.TurnStatusFail:
		s.Phase = models.PhaseGameOver
	case r.Status == models.TurnStatusPass:
		s.Phase = models.PhaseLevelSuccess
	default:
		s.Phase = models.PhasePlaying
	}
	return s
}

// VoidTurn handles an oracle failure: one generic error entry is appended,
// confidence and level are untouched, and play resumes as if the turn never
// happened.
func VoidTurn(s models.GameSession) models.GameSession {
	s.TurnPending = false
	s.Phase = models.PhasePlaying
	s.Log = append(s.Log, models.MessageEntry{Kind: models.EntryError, Text: OracleErrorNotice})
	return s
}

// AdvanceLevel moves a cleared session to the next level, or to victory when
// the final level was just cleared. next is nil past the end of the
// progression.
func AdvanceLevel(s models.GameSession, next *models.LevelConfig) models.GameSession {
	if next == nil {
		s.Phase = models.PhaseVictory
		s.TurnPending = false
		return s
	}
	s.LevelIndex++
	return StartLevel(s, *next)
}

// LastNPCLine returns the most recent NPC entry in the log, or "" when the
// log has none.
func LastNPCLine(log []models.MessageEntry) string {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Kind == models.EntryNPC {
			return log[i].Text
		}
	}
	return ""
}
