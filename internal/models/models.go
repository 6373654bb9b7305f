// Package models defines the core data structures for StandTall.
//
// It includes the game session state, level configuration, message log
// entries, and the structured turn result returned by the scoring oracle.
// These types are shared across modules.
package models

import (
	"errors"
	"time"
)

// GamePhase identifies which stage of the game a session is in.
// It gates which sequencer operations are legal.
type GamePhase string

const (
	// PhaseIntro is the initial phase before a level has been started.
	PhaseIntro GamePhase = "intro"
	// PhasePlaying means the level is active and turns may be submitted.
	PhasePlaying GamePhase = "playing"
	// PhaseFeedbackPending means a turn has been dispatched to the oracle
	// and its judgment has not arrived yet.
	PhaseFeedbackPending GamePhase = "feedback_pending"
	// PhaseLevelSuccess means the oracle reported a passing turn.
	PhaseLevelSuccess GamePhase = "level_success"
	// PhaseGameOver means confidence collapsed or the oracle reported failure.
	PhaseGameOver GamePhase = "game_over"
	// PhaseVictory means the final level was cleared.
	PhaseVictory GamePhase = "victory"
)

// TurnStatus is the outcome tag the oracle attaches to a scored turn.
type TurnStatus string

const (
	// TurnStatusContinue keeps the level going.
	TurnStatusContinue TurnStatus = "continue"
	// TurnStatusPass clears the level.
	TurnStatusPass TurnStatus = "pass"
	// TurnStatusFail ends the level immediately.
	TurnStatusFail TurnStatus = "fail"
)

// IsValidTurnStatus checks whether the given status is one the sequencer understands.
func IsValidTurnStatus(s TurnStatus) bool {
	switch s {
	case TurnStatusContinue, TurnStatusPass, TurnStatusFail:
		return true
	default:
		return false
	}
}

// EntryKind tags a message log entry by its speaker.
type EntryKind string

const (
	// EntryNPC is a line spoken by the scenario's non-player character.
	EntryNPC EntryKind = "npc"
	// EntryUser is an utterance submitted by the learner.
	EntryUser EntryKind = "user"
	// EntryCoach is assertiveness feedback from the coach.
	EntryCoach EntryKind = "coach"
	// EntryError is the generic notice appended when the oracle is unavailable.
	EntryError EntryKind = "error"
)

// MessageEntry is one line in a level's message log. The log is append-only
// within a level and reset whenever a level starts or restarts.
type MessageEntry struct {
	Kind EntryKind `json:"kind"`
	Text string    `json:"text"`
}

// Confidence bounds and per-level defaults.
const (
	// MinConfidence is the lower clamp bound; reaching it ends the level.
	MinConfidence = 0
	// MaxConfidence is the upper clamp bound.
	MaxConfidence = 100
	// StartingConfidence is the value every level (including retries) begins with.
	StartingConfidence = 50
	// MaxConfidenceDelta bounds the per-turn delta reported by the oracle.
	MaxConfidenceDelta = 20
	// MaxUtteranceLength defines the maximum accepted utterance length.
	MaxUtteranceLength = 2048
)

// TurnResult is the structured judgment the scoring oracle produces for one turn.
type TurnResult struct {
	NPCResponse     string     `json:"npcResponse"`
	CoachFeedback   string     `json:"coachFeedback"`
	ConfidenceDelta int        `json:"confidenceDelta"`
	Status          TurnStatus `json:"status"`
}

// LevelConfig is one scripted scenario. The four instances are a closed
// enumeration defined in the levels package; nothing mutates them at runtime.
type LevelConfig struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle"`
	Scenario     string   `json:"scenario"`
	Objective    string   `json:"objective"`
	PanicPhrases []string `json:"panic_phrases"`
	OpeningLine  string   `json:"opening_line"`
}

// GameSession is the single explicit state object the sequencer operates on.
// Transition functions take a session and return the updated session, so the
// transition table is testable without any rendering surface.
type GameSession struct {
	ID          string         `json:"id"`
	Phase       GamePhase      `json:"phase"`
	LevelIndex  int            `json:"level_index"`
	Confidence  int            `json:"confidence"`
	Turn        int            `json:"turn"`
	Epoch       int            `json:"epoch"` // bumped on every level start/retry/advance; stale oracle responses carry an older epoch
	TurnPending bool           `json:"turn_pending"`
	Log         []MessageEntry `json:"log"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Error variables for better error handling and testability
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTurnPending      = errors.New("a turn is already in flight for this session")
	ErrWrongPhase       = errors.New("operation not legal in current phase")
	ErrUtteranceTooLong = errors.New("utterance exceeds maximum length")
)

// ClampConfidence forces v into the [MinConfidence, MaxConfidence] range.
func ClampConfidence(v int) int {
	if v < MinConfidence {
		return MinConfidence
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}

// ClampDelta forces a per-turn confidence delta into [-MaxConfidenceDelta, MaxConfidenceDelta].
func ClampDelta(v int) int {
	if v < -MaxConfidenceDelta {
		return -MaxConfidenceDelta
	}
	if v > MaxConfidenceDelta {
		return MaxConfidenceDelta
	}
	return v
}

// TurnSubmissionRequest is the body of POST /sessions/{id}/turn.
// The utterance may come from a text box or a speech-to-text adapter;
// the sequencer does not care about its provenance.
type TurnSubmissionRequest struct {
	Utterance string `json:"utterance"`
}

// Validate checks a turn submission. Empty utterances are not an error;
// the sequencer ignores them silently, so only hard limits are checked here.
func (r *TurnSubmissionRequest) Validate() error {
	if len(r.Utterance) > MaxUtteranceLength {
		return ErrUtteranceTooLong
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed operation.
	APIStatusError APIStatus = "error"
)

// APIResponse is the uniform JSON envelope returned by all endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
