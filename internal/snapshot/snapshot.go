// Package snapshot defines the read-only per-tick state handed to the engine.
//
// Snapshots are produced by the embedding simulator's physics and sensor
// collaborators. The engine never mutates them and never retains them beyond
// the tick, except inside a mission's own trace buffers.
package snapshot

// Pose is a robot position and heading on the field.
type Pose struct {
	X     float64
	Y     float64
	Angle float64 // degrees
}

// RobotState is the robot portion of a tick snapshot.
type RobotState struct {
	Position         Pose
	Sensors          map[string]float64
	Speed            float64
	EnergyUsed       float64
	DistanceTraveled float64
}

// Object is a scored field element tracked by the environment.
type Object struct {
	X float64
	Y float64
}

// EnvironmentState is the field portion of a tick snapshot.
type EnvironmentState struct {
	Objects map[string]Object
}

// Sensor returns the named sensor reading and whether it exists.
func (r RobotState) Sensor(name string) (float64, bool) {
	value, ok := r.Sensors[name]
	return value, ok
}
