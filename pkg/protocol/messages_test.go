package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundFinishedKeepsRoundZero(t *testing.T) {
	raw, err := Encode(NewRoundFinished(0, RoundState{Finished: true, Time: 4.2, Points: 513}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"round":0`)

	m, err := Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, m.Round)
	assert.Equal(t, 0, *m.Round)
	assert.Equal(t, 513, m.State.Points)
}

func TestDecode_StartFromBrowserShape(t *testing.T) {
	raw := []byte(`{"type":"start","domains":[{"tld":".de","answers":["germany","deutschland"],"hints":["Europe"],"difficulty":1}],"settings":{"rounds":1}}`)

	m, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeStart, m.Type)
	require.Len(t, m.Domains, 1)
	assert.Equal(t, []string{"germany", "deutschland"}, m.Domains[0].Answers)
	assert.Equal(t, 1, m.Settings.Rounds)
}

func TestDecode_Rejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{name: "bad json", raw: `{"type":`, want: ErrMalformed},
		{name: "unknown type", raw: `{"type":"chat"}`, want: ErrUnknownType},
		{name: "round_finished without state", raw: `{"type":"round_finished","round":1}`, want: ErrMalformed},
		{name: "round_finished without round", raw: `{"type":"round_finished","state":{"finished":true}}`, want: ErrMalformed},
		{name: "start without settings", raw: `{"type":"start","domains":[]}`, want: ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecode_KickedAndLeftHaveNoPayload(t *testing.T) {
	for _, m := range []Message{NewKicked(), NewLeft()} {
		raw, err := Encode(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"`+string(m.Type)+`"}`, string(raw))
	}
}
