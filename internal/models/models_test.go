package models

import (
	"strings"
	"testing"
)

func TestClampConfidence(t *testing.T) {
	cases := map[int]int{-5: 0, 0: 0, 50: 50, 100: 100, 130: 100}
	for in, want := range cases {
		if got := ClampConfidence(in); got != want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestClampDelta(t *testing.T) {
	cases := map[int]int{-50: -20, -20: -20, 0: 0, 15: 15, 20: 20, 99: 20}
	for in, want := range cases {
		if got := ClampDelta(in); got != want {
			t.Errorf("ClampDelta(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestIsValidTurnStatus(t *testing.T) {
	for _, s := range []TurnStatus{TurnStatusContinue, TurnStatusPass, TurnStatusFail} {
		if !IsValidTurnStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if IsValidTurnStatus("maybe") {
		t.Error("expected 'maybe' to be invalid")
	}
}

func TestTurnSubmissionValidate(t *testing.T) {
	r := TurnSubmissionRequest{Utterance: "I booked a window seat."}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Empty is legal: the sequencer ignores it silently rather than erroring.
	empty := TurnSubmissionRequest{}
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty utterance should not be a validation error, got: %v", err)
	}

	long := TurnSubmissionRequest{Utterance: strings.Repeat("x", MaxUtteranceLength+1)}
	if err := long.Validate(); err != ErrUtteranceTooLong {
		t.Errorf("expected ErrUtteranceTooLong, got %v", err)
	}
}
