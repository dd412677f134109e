package engage

import "math"

// MotionSpeed is the animation speed signal: the larger of the agent's desired
// and actual planar speed. Non-finite readings count as standing still.
func MotionSpeed(agent MovementAgent) float64 {
	if agent == nil {
		return 0
	}
	desired := agent.DesiredVelocity().PlanarLen()
	actual := agent.Velocity().PlanarLen()
	if !finite(desired) {
		desired = 0
	}
	if !finite(actual) {
		actual = 0
	}
	return math.Max(desired, actual)
}

func pushAnimation(sink AnimationSink, agent MovementAgent, threshold float64) float64 {
	speed := MotionSpeed(agent)
	if sink != nil {
		sink.SetSpeed(speed)
		sink.SetMoving(speed > threshold)
	}
	return speed
}
