package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// takenStore refuses the first n codes.
type takenStore struct {
	n       int
	created map[string]Entry
	err     error
}

func (s *takenStore) Create(_ context.Context, code string, e Entry) error {
	if s.err != nil {
		return s.err
	}
	if s.n > 0 {
		s.n--
		return ErrCodeTaken
	}
	if s.created == nil {
		s.created = map[string]Entry{}
	}
	s.created[code] = e
	return nil
}

func (s *takenStore) Lookup(_ context.Context, code string) (Entry, error) {
	e, ok := s.created[code]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *takenStore) Remove(_ context.Context, code string) error {
	delete(s.created, code)
	return nil
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		require.NoError(t, ValidateCode(code))
	}
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("ABCD"))
	assert.ErrorIs(t, ValidateCode("AB"), ErrInvalid)
	assert.ErrorIs(t, ValidateCode("abc123"), ErrInvalid)
	assert.ErrorIs(t, ValidateCode("ABC-12"), ErrInvalid)
	assert.Equal(t, "ABC123", NormalizeCode("  abc123 "))
}

func TestRegister_RetriesCollisions(t *testing.T) {
	s := &takenStore{n: 3}
	code, err := Register(context.Background(), s, Entry{PeerID: "host"})
	require.NoError(t, err)
	assert.Equal(t, Entry{PeerID: "host"}, s.created[code])
}

func TestRegister_GivesUp(t *testing.T) {
	_, err := Register(context.Background(), &takenStore{n: 100}, Entry{PeerID: "host"})
	assert.ErrorIs(t, err, ErrCodeTaken)

	boom := errors.New("redis down")
	_, err = Register(context.Background(), &takenStore{err: boom}, Entry{PeerID: "host"})
	assert.ErrorIs(t, err, boom)
}
