package physics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Scene groups the backend sub-scenes of all N replicas behind one
// batched interface. Entity registration order is preserved so that
// flattened state layouts are stable for the lifetime of the scene.
type Scene struct {
	sys     System
	numEnvs int
	cfg     SimConfig

	actors     map[string]*Actor
	actorOrder []string

	articulations map[string]*Articulation
	artOrder      []string

	// Ambient is the ambient light color used by the rasterizer
	Ambient [3]float64
}

// NewScene creates a scene over the given backend hosting numEnvs
// replicas
func NewScene(sys System, numEnvs int, cfg SimConfig) *Scene {
	sys.SetTimestep(1.0 / float64(cfg.SimFreq))
	return &Scene{
		sys:           sys,
		numEnvs:       numEnvs,
		cfg:           cfg,
		actors:        make(map[string]*Actor),
		articulations: make(map[string]*Articulation),
		Ambient:       [3]float64{0.3, 0.3, 0.3},
	}
}

// NumEnvs returns the number of replicas in the scene
func (s *Scene) NumEnvs() int { return s.numEnvs }

// Config returns the merged simulation configuration
func (s *Scene) Config() SimConfig { return s.cfg }

// Device returns the execution target of the backend
func (s *Scene) Device() Device { return s.sys.Device() }

// AddActor builds one rigid body per replica from cfg and registers
// the batch under cfg.Name
func (s *Scene) AddActor(cfg BodyConfig) (*Actor, error) {
	if _, ok := s.actors[cfg.Name]; ok {
		return nil, fmt.Errorf("addActor: duplicate actor name %q", cfg.Name)
	}
	bodies := make([]Body, s.numEnvs)
	for i := 0; i < s.numEnvs; i++ {
		b, err := s.sys.AddBody(i, cfg)
		if err != nil {
			return nil, fmt.Errorf("addActor %q: %w", cfg.Name, err)
		}
		bodies[i] = b
	}
	actor := &Actor{name: cfg.Name, cfg: cfg, bodies: bodies}
	s.actors[cfg.Name] = actor
	s.actorOrder = append(s.actorOrder, cfg.Name)
	return actor, nil
}

// AddArticulation builds one articulated body per replica from cfg
// and registers the batch under cfg.Name
func (s *Scene) AddArticulation(cfg ArticulationConfig) (*Articulation, error) {
	if _, ok := s.articulations[cfg.Name]; ok {
		return nil, fmt.Errorf("addArticulation: duplicate articulation "+
			"name %q", cfg.Name)
	}
	bodies := make([]ArticulationBody, s.numEnvs)
	for i := 0; i < s.numEnvs; i++ {
		b, err := s.sys.AddArticulation(i, cfg)
		if err != nil {
			return nil, fmt.Errorf("addArticulation %q: %w", cfg.Name, err)
		}
		bodies[i] = b
	}
	art := &Articulation{name: cfg.Name, cfg: cfg, bodies: bodies}
	s.articulations[cfg.Name] = art
	s.artOrder = append(s.artOrder, cfg.Name)
	return art, nil
}

// Actor returns the actor registered under name, or nil
func (s *Scene) Actor(name string) *Actor { return s.actors[name] }

// Actors returns all actors in registration order
func (s *Scene) Actors() []*Actor {
	out := make([]*Actor, len(s.actorOrder))
	for i, name := range s.actorOrder {
		out[i] = s.actors[name]
	}
	return out
}

// Articulation returns the articulation registered under name, or nil
func (s *Scene) Articulation(name string) *Articulation {
	return s.articulations[name]
}

// Articulations returns all articulations in registration order
func (s *Scene) Articulations() []*Articulation {
	out := make([]*Articulation, len(s.artOrder))
	for i, name := range s.artOrder {
		out[i] = s.articulations[name]
	}
	return out
}

// Step advances the physics of every replica by one fixed timestep
func (s *Scene) Step() { s.sys.Step() }

// ApplyWrites flushes queued state writes on accelerator-style
// backends. No-op on host backends.
func (s *Scene) ApplyWrites() { s.sys.ApplyWrites() }

// FetchResults pulls simulation results back into the read snapshot
// on accelerator-style backends. No-op on host backends.
func (s *Scene) FetchResults() { s.sys.FetchResults() }

// State returns a full kinematic snapshot of every entity in the
// scene
func (s *Scene) State() *State {
	st := &State{
		Actors:        make(map[string]*mat.Dense, len(s.actors)),
		Articulations: make(map[string]*mat.Dense, len(s.articulations)),
	}
	for _, name := range s.actorOrder {
		st.Actors[name] = s.actors[name].KinematicState()
	}
	for _, name := range s.artOrder {
		st.Articulations[name] = s.articulations[name].State()
	}
	return st
}

// SetState restores a snapshot produced by State on the replicas
// selected by ctx
func (s *Scene) SetState(ctx *ResetContext, st *State) error {
	for name, state := range st.Actors {
		actor, ok := s.actors[name]
		if !ok {
			return fmt.Errorf("setState: no actor named %q in scene", name)
		}
		actor.SetKinematicState(ctx, state)
	}
	for name, state := range st.Articulations {
		art, ok := s.articulations[name]
		if !ok {
			return fmt.Errorf("setState: no articulation named %q in scene",
				name)
		}
		art.SetState(ctx, state)
	}
	return nil
}

// ClearVelocities zeros all residual dynamic state. This is a full
// batch operation: backends read velocities globally, so it ignores
// any reset restriction.
func (s *Scene) ClearVelocities() {
	all := AllActive(s.numEnvs)
	for _, name := range s.actorOrder {
		actor := s.actors[name]
		if !actor.Dynamic() {
			continue
		}
		actor.SetLinearVelocity(all, [3]float64{})
		actor.SetAngularVelocity(all, [3]float64{})
	}
	for _, name := range s.artOrder {
		art := s.articulations[name]
		zero := make([]float64, art.Dof())
		art.SetQVel(all, zero)
		for i := 0; i < art.NumReplicas(); i++ {
			root := art.bodies[i].Root()
			root.SetLinearVelocity([3]float64{})
			root.SetAngularVelocity([3]float64{})
		}
	}
}

// Close releases all backend resources
func (s *Scene) Close() { s.sys.Close() }
