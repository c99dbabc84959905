package environment

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/manipgym/manipgym/utils/matutils"
)

// ObsDict is a nested observation dictionary. Leaves are *mat.Dense
// for numeric blocks and *tensor.Dense for image-shaped blocks;
// branches are nested ObsDicts. Key order is irrelevant: flattening
// always walks keys in sorted order, so layouts are deterministic.
type ObsDict map[string]interface{}

// Flatten concatenates every numeric leaf of the dictionary into one
// N x D batch, walking keys in sorted order. Image-shaped leaves are
// skipped; flattening is only meaningful for state-structured
// observations.
func (o ObsDict) Flatten() *mat.Dense {
	var blocks []*mat.Dense
	o.collect(&blocks)
	if len(blocks) == 0 {
		return nil
	}
	return matutils.HStack(blocks...)
}

func (o ObsDict) collect(blocks *[]*mat.Dense) {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := o[k].(type) {
		case *mat.Dense:
			*blocks = append(*blocks, v)
		case ObsDict:
			v.collect(blocks)
		case map[string]*mat.Dense:
			inner := make(ObsDict, len(v))
			for ik, iv := range v {
				inner[ik] = iv
			}
			inner.collect(blocks)
		}
	}
}

// GetObs assembles the observation for the configured mode. A nil
// info recomputes the task evaluation first, matching the
// info-then-obs ordering of Step.
func (e *Env) GetObs(info Info) (ObsDict, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if info == nil {
		info = e.getInfo()
	}
	switch e.obsMode {
	case ObsNone:
		return ObsDict{}, nil
	case ObsState:
		return ObsDict{"state": e.stateObs(info, false).Flatten()}, nil
	case ObsStateDict:
		return e.stateObs(info, false), nil
	default:
		return e.sensorObs(info), nil
	}
}

// stateObs builds the ground-truth observation dictionary: agent
// proprioception plus the task's extra blocks
func (e *Env) stateObs(info Info, visual bool) ObsDict {
	obs := ObsDict{
		"agent": e.agentObs(),
		"extra": e.extraObs(info, visual),
	}
	return obs
}

func (e *Env) agentObs() ObsDict {
	if len(e.agents) == 1 {
		return proprioDict(e.agents[0].Proprioception())
	}
	multi := make(ObsDict, len(e.agents))
	for _, a := range e.agents {
		multi[a.UID()] = proprioDict(a.Proprioception())
	}
	return multi
}

func proprioDict(p map[string]*mat.Dense) ObsDict {
	d := make(ObsDict, len(p))
	for k, v := range p {
		d[k] = v
	}
	return d
}

func (e *Env) extraObs(info Info, visual bool) ObsDict {
	extra := ObsDict{}
	if t, ok := e.task.(ExtraObserver); ok {
		for k, v := range t.ObservationExtra(e, visual) {
			extra[k] = v
		}
	}
	return extra
}

// sensorObs builds the visual observation: proprioception and
// non-privileged extras plus captured camera frames and parameters
func (e *Env) sensorObs(info Info) ObsDict {
	e.captureSensors()

	obs := ObsDict{
		"agent": e.agentObs(),
		"extra": e.extraObs(info, true),
	}

	params := ObsDict{}
	for _, cam := range e.sensors {
		params[cam.Config().Name] = cam.Params()
	}
	obs["sensor_param"] = params

	switch e.obsMode {
	case ObsPointCloud:
		obs["pointcloud"] = e.mergedPointCloud()
	default:
		data := ObsDict{}
		for _, cam := range e.sensors {
			frame := cam.Frame()
			camObs := ObsDict{"rgb": frame.RGB}
			if e.obsMode != ObsRGB {
				camObs["depth"] = frame.Depth
			}
			data[cam.Config().Name] = camObs
		}
		obs["sensor_data"] = data
	}
	return obs
}

// captureSensors hides registered marker actors, captures every
// sensor, and restores visibility
func (e *Env) captureSensors() {
	for _, a := range e.hidden {
		a.Hide()
	}
	for _, cam := range e.sensors {
		cam.Capture(e.scene)
	}
	for _, a := range e.hidden {
		a.Show()
	}
}

// mergedPointCloud fuses the point clouds of all sensors along the
// point axis, keeping the replica axis outermost
func (e *Env) mergedPointCloud() ObsDict {
	type cloud struct {
		xyzw   []float32
		rgb    []uint8
		points int
	}
	var clouds []cloud
	points := 0
	for _, cam := range e.sensors {
		pc := cam.ToPointCloud()
		if pc == nil {
			continue
		}
		p := pc.XYZW.Shape()[1]
		points += p
		clouds = append(clouds, cloud{
			xyzw:   pc.XYZW.Data().([]float32),
			rgb:    pc.RGB.Data().([]uint8),
			points: p,
		})
	}
	if points == 0 {
		return ObsDict{}
	}
	xyzw := make([]float32, e.numEnvs*points*4)
	rgb := make([]uint8, e.numEnvs*points*3)
	for i := 0; i < e.numEnvs; i++ {
		off := i * points
		for _, c := range clouds {
			copy(xyzw[off*4:], c.xyzw[i*c.points*4:(i+1)*c.points*4])
			copy(rgb[off*3:], c.rgb[i*c.points*3:(i+1)*c.points*3])
			off += c.points
		}
	}
	return ObsDict{
		"xyzw": tensor.New(tensor.WithShape(e.numEnvs, points, 4),
			tensor.WithBacking(xyzw)),
		"rgb": tensor.New(tensor.WithShape(e.numEnvs, points, 3),
			tensor.WithBacking(rgb)),
	}
}
