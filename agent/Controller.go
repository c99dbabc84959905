package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/spec"
	"github.com/manipgym/manipgym/utils/floatutils"
)

// ControllerKind selects a controller implementation
type ControllerKind int

const (
	// PDJointPos drives joints toward absolute position targets
	PDJointPos ControllerKind = iota
	// PDJointDeltaPos drives joints toward targets offset from the
	// joint positions at action time
	PDJointDeltaPos
	// PDJointVel drives joints toward velocity targets
	PDJointVel
)

// ControllerConfig parameterizes a controller for one robot
type ControllerConfig struct {
	Kind ControllerKind
	// DeltaBound bounds the per-step target offset of PDJointDeltaPos
	DeltaBound float64
	// VelBound bounds the velocity targets of PDJointVel
	VelBound float64
}

// Controller converts validated actions into low-level joint targets
// queued for the next physics sub-steps
type Controller interface {
	// ActionSpace describes the expected single-replica action layout
	ActionSpace() spec.Space
	// SetAction validates an N x dim action batch and records the new
	// targets
	SetAction(action *mat.Dense) error
	// BeforeSimStep lets the controller interpolate or hold targets
	// across the physics sub-steps of one control step
	BeforeSimStep(substep, total int)
	// Reset clears controller state (e.g. the delta-control origin)
	// for the replicas selected by ctx
	Reset(ctx *physics.ResetContext)
}

func newController(art *physics.Articulation, cfg ControllerConfig) Controller {
	switch cfg.Kind {
	case PDJointVel:
		return &pdJointVel{art: art, cfg: cfg}
	case PDJointDeltaPos:
		return &pdJointPos{art: art, cfg: cfg, delta: true}
	default:
		return &pdJointPos{art: art, cfg: cfg}
	}
}

// pdJointPos implements both absolute and delta position control. In
// delta mode the origin is the joint configuration at action time.
type pdJointPos struct {
	art   *physics.Articulation
	cfg   ControllerConfig
	delta bool

	start  *mat.Dense // qpos at action time, for interpolation
	target *mat.Dense
}

func (c *pdJointPos) ActionSpace() spec.Space {
	dof := c.art.Dof()
	lower := make([]float64, dof)
	upper := make([]float64, dof)
	limits := c.art.Limits()
	for i := range lower {
		if c.delta {
			lower[i] = -c.cfg.DeltaBound
			upper[i] = c.cfg.DeltaBound
		} else {
			lower[i] = limits[i].Min
			upper[i] = limits[i].Max
		}
	}
	return spec.New([]int{dof}, spec.Action, mat.NewVecDense(dof, lower),
		mat.NewVecDense(dof, upper), spec.Continuous)
}

func (c *pdJointPos) SetAction(action *mat.Dense) error {
	n, dim := action.Dims()
	if dim != c.art.Dof() || n != c.art.NumReplicas() {
		return fmt.Errorf("%w: have (%v, %v), want (%v, %v)",
			ErrInvalidActionShape, n, dim, c.art.NumReplicas(), c.art.Dof())
	}
	qpos := c.art.QPos()
	limits := c.art.Limits()
	target := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			a := action.At(i, j)
			if c.delta {
				a = floatutils.Clip(a, -c.cfg.DeltaBound, c.cfg.DeltaBound)
				a += qpos.At(i, j)
			}
			target.Set(i, j, floatutils.ClipInterval(a, limits[j]))
		}
	}
	c.start = qpos
	c.target = target
	return nil
}

func (c *pdJointPos) BeforeSimStep(substep, total int) {
	if c.target == nil {
		return
	}
	// linear interpolation from the action-time configuration to the
	// target across the sub-steps of this control step
	frac := float64(substep+1) / float64(total)
	n, dim := c.target.Dims()
	interp := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			s := c.start.At(i, j)
			interp.Set(i, j, s+frac*(c.target.At(i, j)-s))
		}
	}
	c.art.SetDriveTargets(interp)
}

func (c *pdJointPos) Reset(ctx *physics.ResetContext) {
	c.start = nil
	c.target = nil
}

// pdJointVel drives joints toward bounded velocity targets
type pdJointVel struct {
	art    *physics.Articulation
	cfg    ControllerConfig
	target *mat.Dense
}

func (c *pdJointVel) ActionSpace() spec.Space {
	dof := c.art.Dof()
	lower := make([]float64, dof)
	upper := make([]float64, dof)
	for i := range lower {
		lower[i] = -c.cfg.VelBound
		upper[i] = c.cfg.VelBound
	}
	return spec.New([]int{dof}, spec.Action, mat.NewVecDense(dof, lower),
		mat.NewVecDense(dof, upper), spec.Continuous)
}

func (c *pdJointVel) SetAction(action *mat.Dense) error {
	n, dim := action.Dims()
	if dim != c.art.Dof() || n != c.art.NumReplicas() {
		return fmt.Errorf("%w: have (%v, %v), want (%v, %v)",
			ErrInvalidActionShape, n, dim, c.art.NumReplicas(), c.art.Dof())
	}
	target := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			target.Set(i, j, floatutils.Clip(action.At(i, j),
				-c.cfg.VelBound, c.cfg.VelBound))
		}
	}
	c.target = target
	return nil
}

func (c *pdJointVel) BeforeSimStep(substep, total int) {
	if c.target == nil {
		return
	}
	c.art.SetDriveVelocityTargets(c.target)
}

func (c *pdJointVel) Reset(ctx *physics.ResetContext) {
	c.target = nil
}
