// Package scripting hosts Lua predicates behind the custom condition kind.
//
// Each predicate is a Lua chunk defining a global evaluate(robot, env)
// function. The chunk compiles once into its own interpreter state; every
// tick pushes fresh robot and environment tables and calls the function.
// Only the deterministic libraries (base, math, string, table) are opened,
// so a predicate cannot read the clock or the filesystem and scoring stays
// reproducible.
package scripting

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/robotrial/engine/internal/condition"
	"github.com/robotrial/engine/internal/snapshot"
)

const evaluateGlobal = "evaluate"

// Predicate is one compiled Lua predicate. Not safe for concurrent use;
// the engine serializes all evaluation.
type Predicate struct {
	name  string
	state *lua.State
}

// Compile loads a predicate chunk and verifies it defines evaluate().
func Compile(name, source string) (*Predicate, error) {
	state := lua.NewState()
	openDeterministicLibraries(state)

	if err := lua.DoString(state, source); err != nil {
		return nil, fmt.Errorf("predicate %s failed to load: %w", name, err)
	}

	state.Global(evaluateGlobal)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("predicate %s does not define %s(robot, env)", name, evaluateGlobal)
	}

	return &Predicate{name: name, state: state}, nil
}

func openDeterministicLibraries(state *lua.State) {
	lua.Require(state, "_G", lua.BaseOpen, true)
	state.Pop(1)
	lua.Require(state, "math", lua.MathOpen, true)
	state.Pop(1)
	lua.Require(state, "string", lua.StringOpen, true)
	state.Pop(1)
	lua.Require(state, "table", lua.TableOpen, true)
	state.Pop(1)
}

// Name returns the predicate's pack-level name.
func (p *Predicate) Name() string {
	return p.name
}

// Evaluate implements condition.Predicate.
func (p *Predicate) Evaluate(robot snapshot.RobotState, env snapshot.EnvironmentState) (bool, error) {
	p.state.Global(evaluateGlobal)
	if !p.state.IsFunction(-1) {
		p.state.Pop(1)
		return false, fmt.Errorf("predicate %s lost its %s function", p.name, evaluateGlobal)
	}

	pushRobot(p.state, robot)
	pushEnvironment(p.state, env)

	if err := p.state.ProtectedCall(2, 1, 0); err != nil {
		return false, fmt.Errorf("predicate %s: %w", p.name, err)
	}

	holds := p.state.ToBoolean(-1)
	p.state.Pop(1)
	return holds, nil
}

func pushRobot(state *lua.State, robot snapshot.RobotState) {
	state.NewTable()

	state.NewTable()
	setNumberField(state, "x", robot.Position.X)
	setNumberField(state, "y", robot.Position.Y)
	setNumberField(state, "angle", robot.Position.Angle)
	state.SetField(-2, "position")

	state.NewTable()
	for name, value := range robot.Sensors {
		setNumberField(state, name, value)
	}
	state.SetField(-2, "sensors")

	setNumberField(state, "speed", robot.Speed)
	setNumberField(state, "energy_used", robot.EnergyUsed)
	setNumberField(state, "distance_traveled", robot.DistanceTraveled)
}

func pushEnvironment(state *lua.State, env snapshot.EnvironmentState) {
	state.NewTable()

	state.NewTable()
	for id, object := range env.Objects {
		state.NewTable()
		setNumberField(state, "x", object.X)
		setNumberField(state, "y", object.Y)
		state.SetField(-2, id)
	}
	state.SetField(-2, "objects")
}

func setNumberField(state *lua.State, name string, value float64) {
	state.PushNumber(value)
	state.SetField(-2, name)
}

// Registry compiles and caches predicates by name. It satisfies the
// mission pack's resolver contract.
type Registry struct {
	predicates map[string]*Predicate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string]*Predicate)}
}

// ResolvePredicate returns the cached predicate for the name, compiling
// the source on first use.
func (r *Registry) ResolvePredicate(name, source string) (condition.Predicate, error) {
	if predicate, ok := r.predicates[name]; ok {
		return predicate, nil
	}
	predicate, err := Compile(name, source)
	if err != nil {
		return nil, err
	}
	r.predicates[name] = predicate
	return predicate, nil
}
