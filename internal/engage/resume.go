package engage

// ResumeDestination is the travel intent captured when chasing began.
type ResumeDestination struct {
	Point     Vec3
	HasPoint  bool
	Following EntityID // non-empty when the unit was following a dynamic target
}

func (r ResumeDestination) IsZero() bool {
	return !r.HasPoint && r.Following == ""
}

// ResumeSource says which rule picked the post-combat destination.
type ResumeSource int

const (
	ResumeNothing ResumeSource = iota
	ResumeFollow
	ResumeHold
	ResumePinned
	ResumeCaptured
)

func (s ResumeSource) String() string {
	switch s {
	case ResumeNothing:
		return "nothing"
	case ResumeFollow:
		return "follow"
	case ResumeHold:
		return "hold"
	case ResumePinned:
		return "pinned"
	case ResumeCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// ResumeChoice is the single destination applied after combat.
type ResumeChoice struct {
	Source ResumeSource
	Point  Vec3
}

// ResolveResume applies the post-combat priority: a follow target defers to
// the follow behaviour, then hold point, then the latest pin, then the
// destination captured at acquisition.
func ResolveResume(captured ResumeDestination, following bool, hold *Vec3, pin Vec3, hasPin bool) ResumeChoice {
	switch {
	case following || captured.Following != "":
		return ResumeChoice{Source: ResumeFollow}
	case hold != nil:
		return ResumeChoice{Source: ResumeHold, Point: *hold}
	case hasPin:
		return ResumeChoice{Source: ResumePinned, Point: pin}
	case captured.HasPoint:
		return ResumeChoice{Source: ResumeCaptured, Point: captured.Point}
	default:
		return ResumeChoice{Source: ResumeNothing}
	}
}
