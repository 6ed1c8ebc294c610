package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
	"github.com/DoyleJ11/domainguessr-backend/internal/transport"
	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

const eventBuffer = 64

// Controller owns one match for one peer. All state lives on the loop
// goroutine; local commands, inbound messages and timer fires are handled
// one at a time in arrival order.
type Controller struct {
	inbox  chan Msg
	events chan Event
	ch     transport.Channel
	clock  Clock
	log    *zap.Logger
	cfg    Config

	match *Match
	round *engine.Round

	roundStarted time.Time
	hintsShown   int
	held         *heldOutcome

	waitTimer   Timer
	waitGen     uint64
	summaryGen  uint64
	summaryTime Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type heldOutcome struct {
	round   int
	outcome engine.Outcome
}

type Config struct {
	OpponentWait time.Duration
	SummaryDelay time.Duration
}

type Option func(*Controller)

func WithClock(c Clock) Option { return func(ctl *Controller) { ctl.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(ctl *Controller) { ctl.log = l } }

func WithConfig(cfg Config) Option {
	return func(ctl *Controller) {
		if cfg.OpponentWait > 0 {
			ctl.cfg.OpponentWait = cfg.OpponentWait
		}
		if cfg.SummaryDelay > 0 {
			ctl.cfg.SummaryDelay = cfg.SummaryDelay
		}
	}
}

func NewController(parent context.Context, role Role, ch transport.Channel, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(parent)

	c := &Controller{
		inbox:  make(chan Msg, 16),
		events: make(chan Event, eventBuffer),
		ch:     ch,
		clock:  realClock{},
		log:    zap.NewNop(),
		cfg:    Config{OpponentWait: engine.OpponentWait, SummaryDelay: engine.SummaryDelay},
		match:  &Match{Role: role, Status: StatusPending},
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("role", string(role)))

	go c.loop()
	return c
}

// Events is closed once the controller shuts down.
func (c *Controller) Events() <-chan Event { return c.events }

// Done is closed once the controller shuts down.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) InitializeAsInitiator(puzzles []engine.Puzzle, rounds int) error {
	reply := make(chan error, 1)
	if !c.post(InitInitiator{Puzzles: puzzles, Rounds: rounds, Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

func (c *Controller) InitializeAsResponder(start protocol.Message) error {
	reply := make(chan error, 1)
	if !c.post(InitResponder{Start: start, Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

func (c *Controller) OnLocalAnswer(isCorrect, skipped bool, elapsedSeconds float64) error {
	reply := make(chan error, 1)
	if !c.post(LocalAnswer{IsCorrect: isCorrect, Skipped: skipped, Elapsed: elapsedSeconds, Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

// SubmitGuess checks text against the active puzzle and submits the round
// when it matches. Wrong guesses are not submitted.
func (c *Controller) SubmitGuess(text string) (bool, error) {
	reply := make(chan GuessReply, 1)
	if !c.post(Guess{Text: text, Reply: reply}) {
		return false, ErrInvalidState
	}
	select {
	case r := <-reply:
		return r.Correct, r.Err
	case <-c.done:
		return false, ErrInvalidState
	}
}

func (c *Controller) Skip() error {
	reply := make(chan error, 1)
	if !c.post(Skip{Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

func (c *Controller) RevealHint() (string, bool) {
	reply := make(chan HintReply, 1)
	if !c.post(RevealHint{Reply: reply}) {
		return "", false
	}
	select {
	case r := <-reply:
		return r.Hint, r.OK
	case <-c.done:
		return "", false
	}
}

func (c *Controller) Kick() error {
	reply := make(chan error, 1)
	if !c.post(Kick{Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

func (c *Controller) Leave() error {
	reply := make(chan error, 1)
	if !c.post(Leave{Reply: reply}) {
		return ErrInvalidState
	}
	return c.awaitErr(reply)
}

func (c *Controller) Snapshot() View {
	reply := make(chan View, 1)
	if !c.post(GetState{Reply: reply}) {
		return View{Status: StatusAborted, ActiveRound: -1}
	}
	select {
	case v := <-reply:
		return v
	case <-c.done:
		return View{Status: StatusAborted, ActiveRound: -1}
	}
}

// Close stops the loop and closes the transport.
func (c *Controller) Close() error {
	c.post(shutdown{})
	<-c.done
	return c.ch.Close()
}

func (c *Controller) post(m Msg) bool {
	select {
	case c.inbox <- m:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) awaitErr(reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrInvalidState
	}
}

func (c *Controller) loop() {
	defer close(c.done)
	defer close(c.events)
	defer c.stopTimers()

	recv := c.ch.Receive()
	for {
		select {
		case <-c.ctx.Done():
			return

		case m, ok := <-recv:
			if !ok {
				recv = nil
				c.onTransportClosed()
				continue
			}
			c.onTransportMessage(m)

		case m := <-c.inbox:
			switch msg := m.(type) {
			case InitInitiator:
				msg.Reply <- c.initializeAsInitiator(msg.Puzzles, msg.Rounds)

			case InitResponder:
				msg.Reply <- c.initializeAsResponder(msg.Start)

			case LocalAnswer:
				msg.Reply <- c.submitLocal(msg.IsCorrect, msg.Skipped, msg.Elapsed)

			case Guess:
				msg.Reply <- c.guess(msg.Text)

			case Skip:
				msg.Reply <- c.submitLocal(false, true, c.elapsed())

			case RevealHint:
				msg.Reply <- c.revealHint()

			case Kick:
				msg.Reply <- c.kick()

			case Leave:
				msg.Reply <- c.leave()

			case GetState:
				msg.Reply <- c.view()

			case waitExpired:
				c.onWaitExpired(msg)

			case summaryElapsed:
				c.onSummaryElapsed(msg)

			case shutdown:
				c.cancel()
				return
			}
		}
	}
}

func (c *Controller) initializeAsInitiator(puzzles []engine.Puzzle, rounds int) error {
	if c.match.Role != RoleInitiator {
		return fmt.Errorf("%w: only the initiator starts a match", ErrInvalidState)
	}
	if c.match.Status != StatusPending {
		return fmt.Errorf("%w: match already %s", ErrInvalidState, c.match.Status)
	}
	if err := validateSetup(puzzles, rounds); err != nil {
		return err
	}

	if err := c.ch.Send(protocol.NewStart(puzzlesToWire(puzzles), rounds)); err != nil {
		c.abort(AbortTransportFailed, err)
		return fmt.Errorf("send start: %w", err)
	}

	c.begin(puzzles, rounds)
	return nil
}

func (c *Controller) initializeAsResponder(start protocol.Message) error {
	if c.match.Role != RoleResponder {
		return fmt.Errorf("%w: initiator received a start message", ErrInvalidState)
	}
	if c.match.Status != StatusPending {
		return fmt.Errorf("%w: match already %s", ErrInvalidState, c.match.Status)
	}

	err := start.Validate()
	if err == nil && start.Type != protocol.TypeStart {
		err = fmt.Errorf("unexpected %q message", start.Type)
	}
	var puzzles []engine.Puzzle
	if err == nil {
		puzzles = puzzlesFromWire(start.Domains)
		err = validateSetup(puzzles, start.Settings.Rounds)
	}
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			err = fmt.Errorf("%w: %v", ErrValidation, err)
		}
		c.log.Warn("start_rejected", zap.Error(err))
		c.abort(AbortInvalidStart, err)
		_ = c.ch.Close()
		return err
	}

	c.begin(puzzles, start.Settings.Rounds)
	return nil
}

func (c *Controller) begin(puzzles []engine.Puzzle, rounds int) {
	c.match.Puzzles = puzzles
	c.match.RoundCount = rounds
	c.match.RoundIndex = 0
	c.match.Status = StatusInProgress
	c.log.Info("match_started", zap.Int("rounds", rounds))
	c.advanceRound()
}

func (c *Controller) advanceRound() {
	m := c.match
	if m.Status != StatusInProgress {
		return
	}
	if m.RoundIndex >= m.RoundCount {
		c.complete()
		return
	}

	p := m.Puzzles[m.RoundIndex]
	c.round = engine.NewRound(m.RoundIndex, p)
	c.hintsShown = 0

	c.roundStarted = c.clock.Now()
	c.emit(Event{Type: EvtRoundStarted, Round: m.RoundIndex, Total: m.RoundCount, Puzzle: &p})

	if h := c.held; h != nil {
		c.held = nil
		if h.round == c.round.Index() {
			c.apply(c.round.ReceiveRemote(h.outcome))
		}
	}
}

func (c *Controller) complete() {
	m := c.match
	m.Status = StatusCompleted
	verdict := engine.DecideVerdict(m.ScoreSelf, m.ScoreOpponent)
	c.log.Info("match_completed",
		zap.Int("score_self", m.ScoreSelf),
		zap.Int("score_opponent", m.ScoreOpponent),
		zap.String("verdict", string(verdict)))
	c.emit(Event{
		Type:          EvtMatchCompleted,
		Round:         m.RoundIndex,
		Total:         m.RoundCount,
		ScoreSelf:     m.ScoreSelf,
		ScoreOpponent: m.ScoreOpponent,
		Verdict:       verdict,
	})
}

func (c *Controller) activeRound() (*engine.Round, error) {
	if c.match.Status != StatusInProgress || c.round == nil {
		return nil, fmt.Errorf("%w: no active round", ErrInvalidState)
	}
	return c.round, nil
}

func (c *Controller) submitLocal(isCorrect, skipped bool, elapsed float64) error {
	r, err := c.activeRound()
	if err != nil {
		return err
	}
	events, err := r.SubmitLocal(isCorrect, skipped, elapsed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	c.apply(events)
	return nil
}

func (c *Controller) guess(text string) GuessReply {
	r, err := c.activeRound()
	if err != nil {
		return GuessReply{Err: err}
	}
	if r.State() != engine.RoundActive {
		return GuessReply{Err: fmt.Errorf("%w: %v", ErrInvalidState, engine.ErrRoundNotActive)}
	}
	if !r.Puzzle().Matches(text) {
		return GuessReply{}
	}
	if err := c.submitLocal(true, false, c.elapsed()); err != nil {
		return GuessReply{Err: err}
	}
	return GuessReply{Correct: true}
}

func (c *Controller) elapsed() float64 {
	return c.clock.Now().Sub(c.roundStarted).Seconds()
}

func (c *Controller) revealHint() HintReply {
	r, err := c.activeRound()
	if err != nil || r.State() != engine.RoundActive {
		return HintReply{}
	}
	hint, ok := r.Puzzle().Hint(c.hintsShown)
	if !ok {
		return HintReply{}
	}
	c.hintsShown++
	c.emit(Event{Type: EvtHintRevealed, Round: r.Index(), Hint: hint})
	return HintReply{Hint: hint, OK: true}
}

// apply carries out what the round asked for, in order.
func (c *Controller) apply(events []engine.Event) {
	for _, ev := range events {
		if c.match.Status != StatusInProgress {
			return
		}
		switch ev.Type {
		case engine.EvtOutcomeReady:
			msg := protocol.NewRoundFinished(c.round.Index(), outcomeToWire(ev.Outcome))
			if err := c.ch.Send(msg); err != nil {
				c.abort(AbortTransportFailed, err)
				return
			}

		case engine.EvtWaitArmed:
			c.armWait()

		case engine.EvtRemoteRecorded:
			c.emit(Event{Type: EvtOpponentFinished, Round: c.round.Index()})

		case engine.EvtRoundResolved:
			c.report(*ev.Result)
		}
	}
}

func (c *Controller) report(res engine.PuzzleResult) {
	c.stopWait()

	m := c.match
	m.ScoreSelf += res.LocalTotal()
	m.ScoreOpponent += res.RemoteTotal()
	m.RoundIndex++

	if err := c.round.MarkReported(); err != nil {
		c.log.Error("round_report_failed", zap.Int("round", res.Round), zap.Error(err))
	}

	c.log.Info("round_resolved",
		zap.Int("round", res.Round),
		zap.Int("local", res.LocalTotal()),
		zap.Int("remote", res.RemoteTotal()),
		zap.Bool("timed_out", c.round.TimedOut()))

	c.summaryGen++
	gen, round := c.summaryGen, res.Round
	c.summaryTime = c.clock.AfterFunc(c.cfg.SummaryDelay, func() {
		c.post(summaryElapsed{Round: round, Gen: gen})
	})

	c.emit(Event{
		Type:          EvtRoundResolved,
		Round:         res.Round,
		Total:         m.RoundCount,
		Result:        &res,
		TimedOut:      c.round.TimedOut(),
		ScoreSelf:     m.ScoreSelf,
		ScoreOpponent: m.ScoreOpponent,
	})
}

func (c *Controller) armWait() {
	c.stopWait()
	gen, round := c.waitGen, c.round.Index()
	c.waitTimer = c.clock.AfterFunc(c.cfg.OpponentWait, func() {
		c.post(waitExpired{Round: round, Gen: gen})
	})
}

func (c *Controller) stopWait() {
	if c.waitTimer != nil {
		c.waitTimer.Stop()
		c.waitTimer = nil
	}
	c.waitGen++
}

func (c *Controller) stopTimers() {
	c.stopWait()
	if c.summaryTime != nil {
		c.summaryTime.Stop()
		c.summaryTime = nil
	}
	c.summaryGen++
}

func (c *Controller) onWaitExpired(msg waitExpired) {
	if msg.Gen != c.waitGen || c.round == nil || msg.Round != c.round.Index() {
		return
	}
	if c.match.Status != StatusInProgress {
		return
	}
	c.waitTimer = nil
	c.log.Info("opponent_wait_expired", zap.Int("round", msg.Round))
	c.apply(c.round.TimeoutFired())
}

func (c *Controller) onSummaryElapsed(msg summaryElapsed) {
	if msg.Gen != c.summaryGen || c.round == nil || msg.Round != c.round.Index() {
		return
	}
	if c.round.State() != engine.RoundReported {
		return
	}
	c.summaryTime = nil
	c.advanceRound()
}

func (c *Controller) onTransportMessage(m protocol.Message) {
	if m.Type != protocol.TypeStart {
		if err := m.Validate(); err != nil {
			c.log.Warn("message_dropped", zap.Error(err))
			return
		}
	}

	switch m.Type {
	case protocol.TypeStart:
		if err := c.initializeAsResponder(m); err != nil {
			c.log.Warn("start_ignored", zap.Error(err))
		}

	case protocol.TypeRoundFinished:
		c.onRoundFinished(*m.Round, outcomeFromWire(*m.State))

	case protocol.TypeKicked:
		c.abort(AbortKicked, nil)
		_ = c.ch.Close()

	case protocol.TypeLeft:
		c.abort(AbortOpponentLeft, nil)
		_ = c.ch.Close()
	}
}

func (c *Controller) onRoundFinished(round int, o engine.Outcome) {
	if c.match.Status != StatusInProgress || c.round == nil {
		c.log.Debug("round_finished_dropped", zap.Int("round", round), zap.String("status", string(c.match.Status)))
		return
	}

	current := c.round.Index()
	switch {
	case round == current:
		c.apply(c.round.ReceiveRemote(o))

	case round == current+1:
		// The opponent is a round ahead: it left the summary early or timed
		// us out. Only the first report is kept.
		if c.held == nil {
			c.held = &heldOutcome{round: round, outcome: o}
		}

	default:
		c.log.Warn("round_finished_mismatch", zap.Int("round", round), zap.Int("current", current))
	}
}

func (c *Controller) onTransportClosed() {
	switch c.match.Status {
	case StatusCompleted, StatusAborted:
		return
	}
	if c.finalRoundReported() {
		// Every score is known; the opponent just finished its summary first.
		c.log.Info("peer_closed_after_final_round")
		c.stopTimers()
		c.complete()
		return
	}
	err := c.ch.Err()
	if err == nil {
		err = transport.ErrClosed
	}
	c.abort(AbortPeerDisconnected, err)
}

func (c *Controller) finalRoundReported() bool {
	return c.round != nil &&
		c.round.State() == engine.RoundReported &&
		c.match.RoundIndex >= c.match.RoundCount
}

func (c *Controller) kick() error {
	if c.match.Role != RoleInitiator {
		return fmt.Errorf("%w: only the initiator can kick", ErrInvalidState)
	}
	return c.quit(protocol.NewKicked(), AbortKickedOpponent)
}

func (c *Controller) leave() error {
	if c.match.Role != RoleResponder {
		return fmt.Errorf("%w: only the responder can leave", ErrInvalidState)
	}
	return c.quit(protocol.NewLeft(), AbortLeft)
}

func (c *Controller) quit(msg protocol.Message, reason AbortReason) error {
	switch c.match.Status {
	case StatusCompleted, StatusAborted:
		return fmt.Errorf("%w: match already %s", ErrInvalidState, c.match.Status)
	}
	if err := c.ch.Send(msg); err != nil {
		c.log.Warn("quit_send_failed", zap.Error(err))
	}
	c.abort(reason, nil)
	return c.ch.Close()
}

func (c *Controller) abort(reason AbortReason, err error) {
	switch c.match.Status {
	case StatusCompleted, StatusAborted:
		return
	}
	c.stopTimers()
	c.match.Status = StatusAborted
	c.match.Reason = reason
	c.held = nil

	fields := []zap.Field{zap.String("reason", string(reason)), zap.Int("round_index", c.match.RoundIndex)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.log.Warn("match_aborted", fields...)

	c.emit(Event{
		Type:          EvtMatchAborted,
		Reason:        reason,
		Err:           err,
		ScoreSelf:     c.match.ScoreSelf,
		ScoreOpponent: c.match.ScoreOpponent,
	})
}

// emit never blocks the loop. The last buffer slot is kept for the single
// MatchCompleted or MatchAborted event, so a slow renderer can miss
// progress events but always learns how the match ended.
func (c *Controller) emit(ev Event) {
	if !ev.Type.Terminal() && len(c.events) >= cap(c.events)-1 {
		c.log.Warn("event_dropped", zap.String("type", string(ev.Type)))
		return
	}
	select {
	case c.events <- ev:
	default:
		c.log.Error("event_dropped", zap.String("type", string(ev.Type)))
	}
}

func (c *Controller) view() View {
	v := View{
		Role:          c.match.Role,
		Status:        c.match.Status,
		Reason:        c.match.Reason,
		RoundIndex:    c.match.RoundIndex,
		RoundCount:    c.match.RoundCount,
		ScoreSelf:     c.match.ScoreSelf,
		ScoreOpponent: c.match.ScoreOpponent,
		ActiveRound:   -1,
	}
	if c.round != nil {
		v.ActiveRound = c.round.Index()
		v.RoundState = c.round.State()
	}
	return v
}
