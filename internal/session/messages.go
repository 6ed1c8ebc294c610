package session

import (
	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

type Msg interface{ isSessionMsg() }

type InitInitiator struct {
	Puzzles []engine.Puzzle
	Rounds  int
	Reply   chan error
}

type InitResponder struct {
	Start protocol.Message
	Reply chan error
}

type LocalAnswer struct {
	IsCorrect bool
	Skipped   bool
	Elapsed   float64
	Reply     chan error
}

type Guess struct {
	Text  string
	Reply chan GuessReply
}

type GuessReply struct {
	Correct bool
	Err     error
}

// Skip gives up on the active round; elapsed time comes from the round clock.
type Skip struct {
	Reply chan error
}

type RevealHint struct {
	Reply chan HintReply
}

type HintReply struct {
	Hint string
	OK   bool
}

type Kick struct{ Reply chan error }

type Leave struct{ Reply chan error }

type GetState struct {
	Reply chan View
}

// waitExpired and summaryElapsed are posted by timers. Gen lets the loop
// drop fires that lost a race with Stop.
type waitExpired struct {
	Round int
	Gen   uint64
}

type summaryElapsed struct {
	Round int
	Gen   uint64
}

type shutdown struct{}

func (InitInitiator) isSessionMsg()  {}
func (InitResponder) isSessionMsg()  {}
func (LocalAnswer) isSessionMsg()    {}
func (Guess) isSessionMsg()          {}
func (Skip) isSessionMsg()           {}
func (RevealHint) isSessionMsg()     {}
func (Kick) isSessionMsg()           {}
func (Leave) isSessionMsg()          {}
func (GetState) isSessionMsg()       {}
func (waitExpired) isSessionMsg()    {}
func (summaryElapsed) isSessionMsg() {}
func (shutdown) isSessionMsg()       {}
