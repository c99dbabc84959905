package environment

import (
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/physics/batched"
	"github.com/manipgym/manipgym/physics/kinematic"
	"github.com/manipgym/manipgym/physics/planar"
)

func kinematicSystem(cfg physics.SimConfig) physics.System {
	return kinematic.New(cfg)
}

func batchedSystem(cfg physics.SimConfig) physics.System {
	return batched.New(cfg)
}

func planarSystem(cfg physics.SimConfig, numEnvs int) (physics.System, error) {
	return planar.New(cfg, numEnvs)
}
