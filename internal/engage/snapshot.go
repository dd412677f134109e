package engage

// Snapshot is a read-only view of a controller for overlays and reports.
type Snapshot struct {
	ID           EntityID
	State        State
	Disabled     bool
	Opponent     EntityID
	Source       Source
	Forced       bool
	DesiredRange float64
	Inner        float64
	Outer        float64
	Steer        SteerKind
	Phase        CyclePhase
	PauseTimer   float64
	BurstTimer   float64
	StrafeSide   float64
	LoseTimer    float64
	Hold         *Vec3
	LeashRadius  float64
	Anchor       *Vec3
	TetherRadius float64
	Destination  Vec3
	HasIssued    bool
	Resume       ResumeDestination
	LastResume   ResumeChoice
	LastLoss     LossReason
	LastShot     ShotResult
	Speed        float64
	Yaw          float64
}

func (c *Controller) Snapshot() Snapshot {
	pause, burst := c.cycle.Timers()
	s := Snapshot{
		ID:           c.body.ID(),
		State:        c.state,
		Disabled:     c.disabled,
		Source:       c.source,
		Forced:       c.forced,
		DesiredRange: c.lastRange,
		Inner:        c.lastRange - c.cfg.RangeBuffer,
		Outer:        c.lastRange + c.cfg.RangeBuffer,
		Steer:        c.lastSteer,
		Phase:        c.cycle.Phase(),
		PauseTimer:   pause,
		BurstTimer:   burst,
		StrafeSide:   c.cycle.Side(),
		LoseTimer:    c.loseTimer,
		LeashRadius:  c.cfg.HoldLeashRadius,
		Destination:  c.lastIssued,
		HasIssued:    c.hasIssued,
		Resume:       c.resume,
		LastResume:   c.lastResume,
		LastLoss:     c.lastLoss,
		LastShot:     c.lastShot,
		Speed:        c.speed,
		Yaw:          c.body.Yaw(),
	}
	if c.opponent != nil {
		s.Opponent = c.opponent.ID()
	}
	if c.hold != nil {
		h := *c.hold
		s.Hold = &h
	}
	if c.state == StateChasing {
		anchor, size := c.tetherAnchor()
		if anchor != nil {
			s.Anchor = anchor
			s.TetherRadius = c.tether.Radius(size)
		}
	} else {
		s.DesiredRange = c.ranges.Current()
		s.Inner = s.DesiredRange - c.cfg.RangeBuffer
		s.Outer = s.DesiredRange + c.cfg.RangeBuffer
	}
	return s
}
