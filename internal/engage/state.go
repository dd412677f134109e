package engage

// State is the controller's engagement state.
type State int

const (
	StateIdle State = iota
	StateChasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChasing:
		return "chasing"
	default:
		return "unknown"
	}
}

// LossReason records why an engagement ended.
type LossReason int

const (
	LossNone LossReason = iota
	LossInvalidated
	LossOutOfRange
	LossLeash
	LossDisengaged
	LossDisabled
	lossCount
)

func (r LossReason) String() string {
	switch r {
	case LossNone:
		return "none"
	case LossInvalidated:
		return "invalidated"
	case LossOutOfRange:
		return "out-of-range"
	case LossLeash:
		return "leash"
	case LossDisengaged:
		return "disengaged"
	case LossDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// resumes reports whether the loss hands control back to pre-combat intent.
func (r LossReason) resumes() bool {
	return r == LossInvalidated || r == LossOutOfRange || r == LossLeash
}

// Stats are per-controller engagement counters.
type Stats struct {
	Acquisitions [sourceCount]int
	Losses       [lossCount]int
	ShotsFired   int
	ShotsSkipped int
	Resumes      int
}

func (s Stats) Acquired(src Source) int {
	if src < 0 || src >= sourceCount {
		return 0
	}
	return s.Acquisitions[src]
}

func (s Stats) Lost(r LossReason) int {
	if r < 0 || r >= lossCount {
		return 0
	}
	return s.Losses[r]
}

// TotalAcquisitions sums every acquisition source.
func (s Stats) TotalAcquisitions() int {
	n := 0
	for _, v := range s.Acquisitions {
		n += v
	}
	return n
}

func (s Stats) TotalLosses() int {
	n := 0
	for _, v := range s.Losses {
		n += v
	}
	return n
}
