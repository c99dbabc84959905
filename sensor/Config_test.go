package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manipgym/manipgym/physics"
)

func baseConfigs() []CameraConfig {
	return []CameraConfig{
		{Name: "base_camera", Width: 128, Height: 128, FovY: 1.57,
			Near: 0.01, Far: 100},
		{Name: "hand_camera", Width: 128, Height: 128, FovY: 1.57,
			Near: 0.01, Far: 10},
	}
}

func TestApplyOverrides_GlobalKeyAppliesToAllCameras(t *testing.T) {
	cfgs := ApplyOverrides(baseConfigs(), map[string]Override{
		"": {Width: 64, Height: 64},
	})
	for _, cfg := range cfgs {
		assert.Equal(t, 64, cfg.Width)
		assert.Equal(t, 64, cfg.Height)
		assert.Equal(t, 1.57, cfg.FovY, "untouched fields keep their value")
	}
}

func TestApplyOverrides_NamedKeyWinsOverGlobal(t *testing.T) {
	cfgs := ApplyOverrides(baseConfigs(), map[string]Override{
		"":            {Width: 64},
		"hand_camera": {Width: 32},
	})
	assert.Equal(t, 64, cfgs[0].Width)
	assert.Equal(t, 32, cfgs[1].Width)
}

func TestApplyOverrides_NilLeavesConfigsAlone(t *testing.T) {
	cfgs := ApplyOverrides(baseConfigs(), nil)
	assert.Equal(t, baseConfigs(), cfgs)
}

func TestLookAt_ForwardAxisPointsAtTarget(t *testing.T) {
	eye := [3]float64{1, 2, 3}
	target := [3]float64{0, 0, 0.5}
	pose := LookAt(eye, target)

	forward := physics.QuatRotate(pose.Q, [3]float64{1, 0, 0})
	want := [3]float64{target[0] - eye[0], target[1] - eye[1],
		target[2] - eye[2]}
	norm := math.Sqrt(want[0]*want[0] + want[1]*want[1] + want[2]*want[2])
	for i := range want {
		assert.InDelta(t, want[i]/norm, forward[i], 1e-9)
	}
}

func TestLookAt_KeepsUpRoughlyVertical(t *testing.T) {
	pose := LookAt([3]float64{0.5, 0, 0.5}, [3]float64{0, 0, 0})
	up := physics.QuatRotate(pose.Q, [3]float64{0, 0, 1})
	assert.Greater(t, up[2], 0.0)
}
