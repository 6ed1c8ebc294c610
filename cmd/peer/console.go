package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
	"github.com/DoyleJ11/domainguessr-backend/internal/session"
)

const help = "commands: /hint /skip /status /quit, host: /start /kick, guest: /leave; anything else is a guess"

// console renders session events as text and turns input lines into
// controller calls. Only run's goroutine writes to out.
type console struct {
	ctl   *session.Controller
	role  session.Role
	out   io.Writer
	start func() error
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	events := c.ctl.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if c.render(ev) {
				return nil
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			quit, err := c.handle(line)
			if err != nil {
				c.printf("! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *console) handle(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false, nil

	case "/help":
		c.printf("%s\n", help)

	case "/start":
		if c.role != session.RoleInitiator || c.start == nil {
			return false, errors.New("only the host starts the match")
		}
		return false, c.start()

	case "/hint":
		// The hint itself is printed from the HintRevealed event.
		if _, ok := c.ctl.RevealHint(); !ok {
			c.printf("No more hints.\n")
		}

	case "/skip":
		return false, c.ctl.Skip()

	case "/kick":
		return false, c.ctl.Kick()

	case "/leave":
		return false, c.ctl.Leave()

	case "/status":
		v := c.ctl.Snapshot()
		c.printf("%s, %s, round %d/%d, score %d to %d\n", v.Role, v.Status, v.RoundIndex, v.RoundCount, v.ScoreSelf, v.ScoreOpponent)

	case "/quit":
		return true, nil

	default:
		if strings.HasPrefix(line, "/") {
			return false, fmt.Errorf("unknown command %s, try /help", line)
		}
		correct, err := c.ctl.SubmitGuess(line)
		if errors.Is(err, session.ErrInvalidState) {
			return false, errors.New("no round in progress")
		}
		if err != nil {
			return false, err
		}
		if correct {
			c.printf("Correct!\n")
		} else {
			c.printf("Not quite.\n")
		}
	}
	return false, nil
}

// render prints ev and reports whether the match is over.
func (c *console) render(ev session.Event) bool {
	switch ev.Type {
	case session.EvtRoundStarted:
		c.printf("\nRound %d/%d: %s  (difficulty %d)\n", ev.Round+1, ev.Total, ev.Puzzle.TLD, ev.Puzzle.Difficulty)

	case session.EvtHintRevealed:
		c.printf("Hint: %s\n", ev.Hint)

	case session.EvtOpponentFinished:
		c.printf("Your opponent has finished this round.\n")

	case session.EvtRoundResolved:
		r := ev.Result
		c.printf("%s: you %s, opponent %s\n", r.TLD, describe(r.Local, r.LocalBonus), describe(r.Remote, r.RemoteBonus))
		if ev.TimedOut {
			c.printf("(opponent did not answer in time)\n")
		}
		c.printf("Score %d to %d\n", ev.ScoreSelf, ev.ScoreOpponent)
		if ev.Round+1 < ev.Total {
			c.printf("Next round in %s...\n", engine.SummaryDelay)
		}

	case session.EvtMatchCompleted:
		c.printf("\nMatch over: %d to %d. %s\n", ev.ScoreSelf, ev.ScoreOpponent, verdictText(ev.Verdict))
		return true

	case session.EvtMatchAborted:
		c.printf("\nMatch ended: %s.\n", reasonText(ev.Reason))
		return true
	}
	return false
}

func (c *console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func describe(o engine.Outcome, bonus int) string {
	switch {
	case o.Skipped:
		return "skipped"
	case !o.Finished:
		return "did not finish"
	case bonus > 0:
		return fmt.Sprintf("+%d (%.1fs, +%d first)", o.Points+bonus, o.Elapsed, bonus)
	default:
		return fmt.Sprintf("+%d (%.1fs)", o.Points, o.Elapsed)
	}
}

func verdictText(v engine.Verdict) string {
	switch v {
	case engine.VerdictWin:
		return "You win!"
	case engine.VerdictLoss:
		return "You lose."
	default:
		return "It's a draw."
	}
}

func reasonText(r session.AbortReason) string {
	switch r {
	case session.AbortPeerDisconnected:
		return "connection to your opponent was lost"
	case session.AbortTransportFailed:
		return "could not reach your opponent"
	case session.AbortKicked:
		return "the host removed you from the lobby"
	case session.AbortOpponentLeft:
		return "your opponent left"
	case session.AbortKickedOpponent:
		return "you removed your opponent"
	case session.AbortLeft:
		return "you left the lobby"
	case session.AbortInvalidStart:
		return "the host sent an invalid match"
	default:
		return string(r)
	}
}
