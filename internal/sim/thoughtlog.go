package sim

// ThoughtLogSize is the number of entries the thought log keeps.
const ThoughtLogSize = 60

// ThoughtEntry is a single line in the thought log.
type ThoughtEntry struct {
	Tick    int
	Label   string // e.g. "R1", "B3"
	Team    Team
	Message string
}

// ThoughtLog is a ring buffer of unit decision notes.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{
		entries: make([]ThoughtEntry, ThoughtLogSize),
	}
}

// Add appends an entry, overwriting the oldest once full.
func (tl *ThoughtLog) Add(tick int, label string, team Team, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Label:   label,
		Team:    team,
		Message: msg,
	}
	tl.head = (tl.head + 1) % ThoughtLogSize
	if tl.count < ThoughtLogSize {
		tl.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + ThoughtLogSize) % ThoughtLogSize
		result[i] = tl.entries[idx]
	}
	return result
}

func (tl *ThoughtLog) Len() int { return tl.count }
