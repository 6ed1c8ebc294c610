package engine

import (
	"errors"
	"time"
)

var ErrRoundNotActive = errors.New("round not active")
var ErrRoundNotResolved = errors.New("round not resolved")

const (
	FirstFinisherBonus = 50
	OpponentWait       = 15 * time.Second
	SummaryDelay       = 5 * time.Second
)

type RoundState string

const (
	RoundActive    RoundState = "active"
	RoundLocalDone RoundState = "local_done"
	RoundResolved  RoundState = "resolved"
	RoundReported  RoundState = "reported"
)

// Outcome is one player's recorded performance on one round.
type Outcome struct {
	Finished bool
	Skipped  bool
	Elapsed  float64 // seconds
	Points   int
}

func (o Outcome) bonusEligible() bool { return o.Finished && !o.Skipped }

// PuzzleResult is the merged outcome of both players for one round.
type PuzzleResult struct {
	Round       int
	TLD         string
	Local       Outcome
	Remote      Outcome
	LocalBonus  int
	RemoteBonus int
}

func (r PuzzleResult) LocalTotal() int  { return r.Local.Points + r.LocalBonus }
func (r PuzzleResult) RemoteTotal() int { return r.Remote.Points + r.RemoteBonus }

/*
	SubmitLocal (remote unknown) -> EvtOutcomeReady -> EvtWaitArmed
	SubmitLocal (remote known)   -> EvtOutcomeReady -> EvtRoundResolved
	ReceiveRemote (active)       -> EvtRemoteRecorded
	ReceiveRemote (local done)   -> EvtRemoteRecorded -> EvtRoundResolved
	TimeoutFired (local done)    -> EvtRoundResolved
	anything else                -> no events
*/

type EventType string

const (
	EvtOutcomeReady   EventType = "OutcomeReady"
	EvtWaitArmed      EventType = "WaitArmed"
	EvtRemoteRecorded EventType = "RemoteRecorded"
	EvtRoundResolved  EventType = "RoundResolved"
)

type Event struct {
	Type    EventType
	Outcome Outcome       // EvtOutcomeReady, EvtRemoteRecorded
	Result  *PuzzleResult // EvtRoundResolved
}

// Round resolves one puzzle for both players. It does no I/O and keeps no
// timers; the owner acts on the returned events.
type Round struct {
	index       int
	puzzle      Puzzle
	state       RoundState
	local       Outcome
	remote      Outcome
	remoteKnown bool
	timedOut    bool
	result      *PuzzleResult
}

func NewRound(index int, p Puzzle) *Round {
	return &Round{index: index, puzzle: p, state: RoundActive}
}

func (r *Round) Index() int        { return r.index }
func (r *Round) Puzzle() Puzzle    { return r.puzzle }
func (r *Round) State() RoundState { return r.state }
func (r *Round) Local() Outcome    { return r.local }
func (r *Round) TimedOut() bool    { return r.timedOut }
func (r *Round) RemoteKnown() bool { return r.remoteKnown }
func (r *Round) Remote() Outcome   { return r.remote }

func (r *Round) Result() (PuzzleResult, bool) {
	if r.result == nil {
		return PuzzleResult{}, false
	}
	return *r.result, true
}

func (r *Round) SubmitLocal(isCorrect, skipped bool, elapsedSeconds float64) ([]Event, error) {
	if r.state != RoundActive {
		return nil, ErrRoundNotActive
	}

	elapsedSeconds = ClampElapsed(elapsedSeconds)
	score := Score(isCorrect, skipped, elapsedSeconds)
	r.local = Outcome{Finished: true, Skipped: skipped, Elapsed: elapsedSeconds, Points: score.Total}

	events := []Event{{Type: EvtOutcomeReady, Outcome: r.local}}
	if r.remoteKnown {
		return append(events, r.resolve()), nil
	}

	r.state = RoundLocalDone
	return append(events, Event{Type: EvtWaitArmed}), nil
}

// ReceiveRemote records the opponent's outcome. It may arrive before the
// local player has answered, in which case it is only held.
func (r *Round) ReceiveRemote(o Outcome) []Event {
	if r.remoteKnown || r.state == RoundResolved || r.state == RoundReported {
		return nil
	}

	r.remote = o
	r.remoteKnown = true

	events := []Event{{Type: EvtRemoteRecorded, Outcome: o}}
	if r.state == RoundLocalDone {
		events = append(events, r.resolve())
	}
	return events
}

// TimeoutFired substitutes a default remote outcome. A no-op unless the
// round is still waiting for the opponent.
func (r *Round) TimeoutFired() []Event {
	if r.state != RoundLocalDone {
		return nil
	}

	r.remote = DefaultRemoteOutcome()
	r.remoteKnown = true
	r.timedOut = true
	return []Event{r.resolve()}
}

func (r *Round) MarkReported() error {
	if r.state != RoundResolved {
		return ErrRoundNotResolved
	}
	r.state = RoundReported
	return nil
}

func (r *Round) resolve() Event {
	res := computeResult(r.index, r.puzzle.TLD, r.local, r.remote)
	r.result = &res
	r.state = RoundResolved

	out := res
	return Event{Type: EvtRoundResolved, Result: &out}
}

func computeResult(index int, tld string, local, remote Outcome) PuzzleResult {
	res := PuzzleResult{Round: index, TLD: tld, Local: local, Remote: remote}

	if local.bonusEligible() && remote.bonusEligible() {
		switch {
		case local.Elapsed < remote.Elapsed:
			res.LocalBonus = FirstFinisherBonus
		case remote.Elapsed < local.Elapsed:
			res.RemoteBonus = FirstFinisherBonus
		}
	}
	return res
}
