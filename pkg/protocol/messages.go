package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Peer -> Peer
// start (initiator -> responder, once):
//   domains: Puzzle[]
//   settings: { rounds: number }
//
// round_finished (either -> either, once per player per round):
//   round: number // zero-based round index
//   state: { finished: bool, skipped: bool, time: number, points: number }
//
// kicked (host -> guest): {}
//
// left (guest -> host): {}

var ErrUnknownType = errors.New("unknown message type")
var ErrMalformed = errors.New("malformed message")

type Type string

const (
	TypeStart         Type = "start"
	TypeRoundFinished Type = "round_finished"
	TypeKicked        Type = "kicked"
	TypeLeft          Type = "left"
)

type Puzzle struct {
	TLD        string   `json:"tld"`
	Answers    []string `json:"answers"`
	Hints      []string `json:"hints"`
	Difficulty int      `json:"difficulty"`
}

type Settings struct {
	Rounds int `json:"rounds"`
}

// RoundState is one player's self-reported result for a round.
type RoundState struct {
	Finished bool    `json:"finished"`
	Skipped  bool    `json:"skipped"`
	Time     float64 `json:"time"`
	Points   int     `json:"points"`
}

type Message struct {
	Type     Type        `json:"type"`
	Domains  []Puzzle    `json:"domains,omitempty"`
	Settings *Settings   `json:"settings,omitempty"`
	Round    *int        `json:"round,omitempty"`
	State    *RoundState `json:"state,omitempty"`
}

func NewStart(domains []Puzzle, rounds int) Message {
	return Message{Type: TypeStart, Domains: domains, Settings: &Settings{Rounds: rounds}}
}

func NewRoundFinished(round int, state RoundState) Message {
	return Message{Type: TypeRoundFinished, Round: &round, State: &state}
}

func NewKicked() Message { return Message{Type: TypeKicked} }

func NewLeft() Message { return Message{Type: TypeLeft} }

// Validate checks that the payload required by the message type is present.
// It does not check game rules (rounds vs. puzzle count is the session's job).
func (m Message) Validate() error {
	switch m.Type {
	case TypeStart:
		if m.Settings == nil {
			return fmt.Errorf("%w: start without settings", ErrMalformed)
		}
	case TypeRoundFinished:
		if m.Round == nil || m.State == nil {
			return fmt.Errorf("%w: round_finished without round or state", ErrMalformed)
		}
		if *m.Round < 0 {
			return fmt.Errorf("%w: negative round %d", ErrMalformed, *m.Round)
		}
	case TypeKicked, TypeLeft:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return nil
}

func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
