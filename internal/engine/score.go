package engine

import "math"

const (
	CorrectBase = 250

	// bonusWindowSec is where the multiplier reaches 1 and the time bonus
	// disappears; bonusPivotSec is where the multiplier is exactly 2.
	bonusWindowSec = 25.0
	bonusPivotSec  = 5.0
	bonusSlope     = 0.05
	bonusDivisor   = 20.0 // 1 / bonusSlope
)

type ScoreBreakdown struct {
	Base       int
	Multiplier float64
	TimeBonus  int
	Total      int
}

// Score turns one player's answer into points:
//
//	base       = 250 for a correct, non-skipped answer, else 0
//	multiplier = max(1, 2 - (elapsed-5)*0.05)
//	timeBonus  = round(base * (multiplier-1))
func Score(isCorrect, skipped bool, elapsedSeconds float64) ScoreBreakdown {
	elapsedSeconds = ClampElapsed(elapsedSeconds)

	base := 0
	if isCorrect && !skipped {
		base = CorrectBase
	}

	// No upper cap: under five seconds the multiplier goes above 2.
	multiplier := math.Max(1, 2-(elapsedSeconds-bonusPivotSec)*bonusSlope)

	// multiplier-1 == (25-t)/20; computed that way so 262.5 stays 262.5.
	timeBonus := 0
	if elapsedSeconds < bonusWindowSec {
		timeBonus = int(math.Round(float64(base) * (bonusWindowSec - elapsedSeconds) / bonusDivisor))
	}

	return ScoreBreakdown{
		Base:       base,
		Multiplier: multiplier,
		TimeBonus:  timeBonus,
		Total:      base + timeBonus,
	}
}

// ClampElapsed maps negative and NaN times to 0.
func ClampElapsed(seconds float64) float64 {
	if seconds < 0 || math.IsNaN(seconds) {
		return 0
	}
	return seconds
}
