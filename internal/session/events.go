package session

import "github.com/DoyleJ11/domainguessr-backend/internal/engine"

type EventType string

const (
	EvtRoundStarted     EventType = "RoundStarted"
	EvtOpponentFinished EventType = "OpponentFinished"
	EvtHintRevealed     EventType = "HintRevealed"
	EvtRoundResolved    EventType = "RoundResolved"
	EvtMatchCompleted   EventType = "MatchCompleted"
	EvtMatchAborted     EventType = "MatchAborted"
)

// Terminal reports whether t ends the event stream of a match.
func (t EventType) Terminal() bool {
	return t == EvtMatchCompleted || t == EvtMatchAborted
}

// Event is what the rendering layer sees. Only the fields relevant to Type
// are set.
type Event struct {
	Type  EventType
	Round int
	Total int

	Puzzle *engine.Puzzle
	Hint   string

	Result   *engine.PuzzleResult
	TimedOut bool

	ScoreSelf     int
	ScoreOpponent int
	Verdict       engine.Verdict

	Reason AbortReason
	Err    error
}

// View is a point-in-time copy of the controller's state.
type View struct {
	Role          Role
	Status        Status
	Reason        AbortReason
	RoundIndex    int
	RoundCount    int
	ScoreSelf     int
	ScoreOpponent int
	ActiveRound   int // -1 before the first round
	RoundState    engine.RoundState
}
