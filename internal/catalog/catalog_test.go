package catalog

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/domainguessr-backend/internal/engine"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()
	require.Greater(t, c.Len(), 20)
	for _, p := range c.All() {
		require.NoError(t, p.Validate())
	}
}

func TestPool_DifficultyBands(t *testing.T) {
	c := Default()

	cases := []struct {
		level  int
		lo, hi int
	}{
		{1, 1, 1},
		{5, 1, 1},
		{6, 1, 2},
		{10, 1, 2},
		{11, 2, 3},
		{15, 2, 3},
		{16, 3, 4},
		{20, 3, 4},
		{21, 4, 5},
		{99, 4, 5},
	}
	for _, tc := range cases {
		pool := c.Pool(tc.level)
		require.NotEmpty(t, pool, "level %d", tc.level)
		for _, p := range pool {
			if p.Difficulty < tc.lo || p.Difficulty > tc.hi {
				t.Fatalf("level %d: %s has difficulty %d, want %d..%d", tc.level, p.TLD, p.Difficulty, tc.lo, tc.hi)
			}
		}
	}
}

func TestPick(t *testing.T) {
	pool := Default().Pool(8)
	rng := rand.New(rand.NewPCG(1, 2))

	picked := Pick(pool, 5, rng)
	require.Len(t, picked, 5)

	seen := map[string]bool{}
	for _, p := range picked {
		assert.False(t, seen[p.TLD], "duplicate %s", p.TLD)
		seen[p.TLD] = true
	}

	assert.Len(t, Pick(pool, len(pool)+10, rng), len(pool))
	assert.Empty(t, Pick(pool, 0, rng))
	assert.Empty(t, Pick(nil, 3, rng))
}

func TestPick_Deterministic(t *testing.T) {
	pool := Default().All()
	a := Pick(pool, 10, rand.New(rand.NewPCG(7, 7)))
	b := Pick(pool, 10, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestRound(t *testing.T) {
	puzzles, err := Default().Round(1, 10, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	require.NotEmpty(t, puzzles)
	for _, p := range puzzles {
		assert.Equal(t, 1, p.Difficulty)
	}

	one, err := Parse([]byte("domains:\n  - {tld: .nu, answers: [niue], difficulty: 5}\n"))
	require.NoError(t, err)
	_, err = one.Round(1, 10, rand.New(rand.NewPCG(3, 4)))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":      "domains: []\n",
		"bad yaml":   "domains: [\n",
		"no answers": "domains:\n  - {tld: .de, answers: [], difficulty: 1}\n",
		"difficulty": "domains:\n  - {tld: .de, answers: [germany], difficulty: 9}\n",
		"duplicate":  "domains:\n  - {tld: .de, answers: [germany], difficulty: 1}\n  - {tld: .de, answers: [deutschland], difficulty: 1}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("domains:\n  - {tld: .de, answers: [], difficulty: 1}\n"))
	assert.ErrorIs(t, err, engine.ErrInvalidPuzzle)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domains:\n  - {tld: .tv, answers: [tuvalu], hints: [Pacific], difficulty: 3}\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"Pacific"}, c.All()[0].Hints)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
