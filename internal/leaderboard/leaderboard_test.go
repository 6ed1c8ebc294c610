package leaderboard

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		score   int
		want    string
		wantErr bool
	}{
		{"trims", "  Ada ", 10, "Ada", false},
		{"empty", "   ", 10, "", true},
		{"too long", strings.Repeat("x", MaxNameLen+1), 10, "", true},
		{"unicode counts runes", strings.Repeat("ü", MaxNameLen), 10, strings.Repeat("ü", MaxNameLen), false},
		{"negative", "Ada", -1, "", true},
		{"too big", "Ada", MaxScore + 1, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(tc.in, tc.score)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// storeContract runs the behaviour every Store must have.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Submit(ctx, "", 5)
	require.ErrorIs(t, err, ErrInvalid)

	for _, sub := range []struct {
		name  string
		score int
	}{
		{"ada", 300},
		{"bob", 900},
		{"cy", 300},
		{"dee", 50},
	} {
		e, err := s.Submit(ctx, sub.name, sub.score)
		require.NoError(t, err)
		require.NotZero(t, e.ID)
		require.False(t, e.CreatedAt.IsZero())
	}

	top, err := s.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"bob", "ada", "cy"}, names(top))

	all, err := s.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func names(es []Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name)
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, MaxLimit, clampLimit(MaxLimit*3))
}
