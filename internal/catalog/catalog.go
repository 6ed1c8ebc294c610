package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
)

//go:embed domains.yaml
var embedded []byte

var ErrEmpty = errors.New("catalog has no puzzles")

type file struct {
	Domains []entry `yaml:"domains"`
}

type entry struct {
	TLD        string   `yaml:"tld"`
	Answers    []string `yaml:"answers"`
	Hints      []string `yaml:"hints"`
	Difficulty int      `yaml:"difficulty"`
}

// Catalog is an immutable list of puzzles.
type Catalog struct {
	puzzles []engine.Puzzle
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded domains.yaml: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Domains) == 0 {
		return nil, ErrEmpty
	}

	seen := make(map[string]bool, len(f.Domains))
	puzzles := make([]engine.Puzzle, 0, len(f.Domains))
	for i, e := range f.Domains {
		p := engine.Puzzle{TLD: e.TLD, Answers: e.Answers, Hints: e.Hints, Difficulty: e.Difficulty}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[p.TLD] {
			return nil, fmt.Errorf("entry %d: duplicate tld %s", i, p.TLD)
		}
		seen[p.TLD] = true
		puzzles = append(puzzles, p)
	}
	return &Catalog{puzzles: puzzles}, nil
}

func (c *Catalog) Len() int { return len(c.puzzles) }

func (c *Catalog) All() []engine.Puzzle {
	return append([]engine.Puzzle(nil), c.puzzles...)
}

// Pool returns the puzzles suitable for a player level. Beginners only see
// difficulty 1; the band moves up every five levels.
func (c *Catalog) Pool(level int) []engine.Puzzle {
	lo, hi := band(level)
	var out []engine.Puzzle
	for _, p := range c.puzzles {
		if p.Difficulty >= lo && p.Difficulty <= hi {
			out = append(out, p)
		}
	}
	return out
}

func band(level int) (lo, hi int) {
	switch {
	case level <= 5:
		return 1, 1
	case level <= 10:
		return engine.MinDifficulty, 2
	case level <= 15:
		return 2, 3
	case level <= 20:
		return 3, 4
	default:
		return 4, engine.MaxDifficulty
	}
}

// Pick shuffles pool and returns up to n puzzles. pool is not modified.
func Pick(pool []engine.Puzzle, n int, rng *rand.Rand) []engine.Puzzle {
	out := append([]engine.Puzzle(nil), pool...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:max(n, 0)]
	}
	return out
}

// Round builds the puzzle list for one match at the given level.
func (c *Catalog) Round(level, n int, rng *rand.Rand) ([]engine.Puzzle, error) {
	picked := Pick(c.Pool(level), n, rng)
	if len(picked) == 0 {
		return nil, fmt.Errorf("%w: level %d", ErrEmpty, level)
	}
	return picked, nil
}
