package session

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

var ErrInvalidState = errors.New("invalid session state")
var ErrValidation = errors.New("invalid match setup")

type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
)

type AbortReason string

const (
	AbortPeerDisconnected AbortReason = "peer_disconnected"
	AbortTransportFailed  AbortReason = "transport_failed"
	AbortKicked           AbortReason = "kicked"
	AbortOpponentLeft     AbortReason = "opponent_left"
	AbortKickedOpponent   AbortReason = "kicked_opponent"
	AbortLeft             AbortReason = "left"
	AbortInvalidStart     AbortReason = "invalid_start"
)

// Match is one complete two-player game. Puzzles are fixed once the match
// starts and are identical, in order, on both peers.
type Match struct {
	Role          Role
	Puzzles       []engine.Puzzle
	RoundCount    int
	RoundIndex    int
	ScoreSelf     int
	ScoreOpponent int
	Status        Status
	Reason        AbortReason
}

func validateSetup(puzzles []engine.Puzzle, rounds int) error {
	if len(puzzles) == 0 {
		return fmt.Errorf("%w: no puzzles", ErrValidation)
	}
	if rounds != len(puzzles) {
		return fmt.Errorf("%w: rounds %d does not match %d puzzles", ErrValidation, rounds, len(puzzles))
	}
	for i, p := range puzzles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: puzzle %d: %v", ErrValidation, i, err)
		}
	}
	return nil
}

func puzzlesFromWire(in []protocol.Puzzle) []engine.Puzzle {
	out := make([]engine.Puzzle, 0, len(in))
	for _, p := range in {
		out = append(out, engine.Puzzle{
			TLD:        p.TLD,
			Answers:    append([]string(nil), p.Answers...),
			Hints:      append([]string(nil), p.Hints...),
			Difficulty: p.Difficulty,
		})
	}
	return out
}

func puzzlesToWire(in []engine.Puzzle) []protocol.Puzzle {
	out := make([]protocol.Puzzle, 0, len(in))
	for _, p := range in {
		hints := p.Hints
		if hints == nil {
			hints = []string{}
		}
		out = append(out, protocol.Puzzle{TLD: p.TLD, Answers: p.Answers, Hints: hints, Difficulty: p.Difficulty})
	}
	return out
}

func outcomeFromWire(s protocol.RoundState) engine.Outcome {
	return engine.Outcome{Finished: s.Finished, Skipped: s.Skipped, Elapsed: s.Time, Points: s.Points}
}

func outcomeToWire(o engine.Outcome) protocol.RoundState {
	return protocol.RoundState{Finished: o.Finished, Skipped: o.Skipped, Time: o.Elapsed, Points: o.Points}
}
