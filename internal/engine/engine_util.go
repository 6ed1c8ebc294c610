package engine

// DefaultRemoteOutcome stands in for an opponent who never reported.
func DefaultRemoteOutcome() Outcome {
	return Outcome{}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func FindEvent(events []Event, eventType EventType) (Event, bool) {
	for _, event := range events {
		if event.Type == eventType {
			return event, true
		}
	}
	return Event{}, false
}

type Verdict string

const (
	VerdictWin  Verdict = "win"
	VerdictLoss Verdict = "loss"
	VerdictDraw Verdict = "draw"
)

// DecideVerdict compares cumulative scores from the local player's side.
func DecideVerdict(self, opponent int) Verdict {
	switch {
	case self > opponent:
		return VerdictWin
	case opponent > self:
		return VerdictLoss
	default:
		return VerdictDraw
	}
}
