package engine

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidPuzzle = errors.New("invalid puzzle")

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

type Puzzle struct {
	TLD        string
	Answers    []string
	Hints      []string
	Difficulty int
}

func (p Puzzle) Validate() error {
	if strings.TrimSpace(p.TLD) == "" {
		return fmt.Errorf("%w: empty tld", ErrInvalidPuzzle)
	}
	if len(p.Answers) == 0 {
		return fmt.Errorf("%w: %s has no answers", ErrInvalidPuzzle, p.TLD)
	}
	for _, a := range p.Answers {
		// An empty answer would be a substring of every guess.
		if NormalizeGuess(a) == "" {
			return fmt.Errorf("%w: %s has an empty answer", ErrInvalidPuzzle, p.TLD)
		}
	}
	if p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %s difficulty %d out of range", ErrInvalidPuzzle, p.TLD, p.Difficulty)
	}
	return nil
}

// Matches reports whether any accepted answer is contained in the guess.
// Matching is loose: "germany!" and "i think germany" both hit.
func (p Puzzle) Matches(guess string) bool {
	g := NormalizeGuess(guess)
	if g == "" {
		return false
	}
	for _, a := range p.Answers {
		if strings.Contains(g, NormalizeGuess(a)) {
			return true
		}
	}
	return false
}

// Hint returns the i-th hint, if the puzzle has one.
func (p Puzzle) Hint(i int) (string, bool) {
	if i < 0 || i >= len(p.Hints) {
		return "", false
	}
	return p.Hints[i], true
}

func NormalizeGuess(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}
