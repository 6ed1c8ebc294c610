package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrInvalid = errors.New("invalid leaderboard entry")

const (
	MaxNameLen = 32
	MaxScore   = 1_000_000
	MaxLimit   = 100
)

type Entry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:32;not null"`
	Score     int       `json:"score" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Entry) TableName() string { return "leaderboard_entries" }

// Store keeps submitted scores. Top returns the best limit entries, highest
// score first; ties go to the earlier submission.
type Store interface {
	Submit(ctx context.Context, name string, score int) (Entry, error)
	Top(ctx context.Context, limit int) ([]Entry, error)
}

func Validate(name string, score int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalid, MaxNameLen)
	}
	if score < 0 || score > MaxScore {
		return "", fmt.Errorf("%w: score %d out of range", ErrInvalid, score)
	}
	return name, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
