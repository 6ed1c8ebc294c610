package directory

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrCodeTaken = errors.New("lobby code already taken")
	ErrNotFound  = errors.New("lobby not found")
	ErrInvalid   = errors.New("invalid lobby entry")
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Entry is what a responder needs to reach the initiator of a lobby.
// PeerID identifies the host; Address is where its peer link listens.
type Entry struct {
	PeerID  string `json:"peerId"`
	Address string `json:"address,omitempty"`
}

// Store maps lobby codes to hosts. Implementations expire entries on their
// own schedule; a missing or expired code is ErrNotFound.
type Store interface {
	Create(ctx context.Context, code string, e Entry) error
	Lookup(ctx context.Context, code string) (Entry, error)
	Remove(ctx context.Context, code string) error
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidateCode(code string) error {
	if len(code) < 4 || len(code) > 16 {
		return fmt.Errorf("%w: code must be 4-16 characters", ErrInvalid)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeCharset, r) {
			return fmt.Errorf("%w: code has character %q", ErrInvalid, r)
		}
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.PeerID) == "" {
		return fmt.Errorf("%w: missing peerId", ErrInvalid)
	}
	return nil
}

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// Register stores e under a freshly generated code, retrying on collisions.
func Register(ctx context.Context, s Store, e Entry) (string, error) {
	const attempts = 8
	for i := 0; i < attempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		err = s.Create(ctx, code, e)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeTaken, attempts)
}
