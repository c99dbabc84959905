package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuatAboutZ_RotatesXToY(t *testing.T) {
	q := QuatAboutZ(math.Pi / 2)
	v := QuatRotate(q, [3]float64{1, 0, 0})
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, 1, v[1], 1e-12)
	assert.InDelta(t, 0, v[2], 1e-12)
}

func TestQuatMul_ComposesRotations(t *testing.T) {
	q := QuatMul(QuatAboutZ(math.Pi/4), QuatAboutZ(math.Pi/4))
	v := QuatRotate(q, [3]float64{1, 0, 0})
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, 1, v[1], 1e-12)
}

func TestPoseMul_ComposesTransforms(t *testing.T) {
	a := NewPose([3]float64{1, 0, 0}, QuatAboutZ(math.Pi/2))
	b := NewPose([3]float64{1, 0, 0}, [4]float64{1, 0, 0, 0})
	c := a.Mul(b)
	assert.InDelta(t, 1, c.P[0], 1e-12)
	assert.InDelta(t, 1, c.P[1], 1e-12)
}

func TestPoseMul_IdentityIsNeutral(t *testing.T) {
	p := NewPose([3]float64{1, 2, 3}, QuatAboutZ(0.7))
	q := p.Mul(IdentityPose())
	assert.InDelta(t, p.P[0], q.P[0], 1e-12)
	assert.InDelta(t, p.P[1], q.P[1], 1e-12)
	assert.InDelta(t, p.P[2], q.P[2], 1e-12)
	for i := range p.Q {
		assert.InDelta(t, p.Q[i], q.Q[i], 1e-12)
	}
}

func TestPoseFlat_RoundTrip(t *testing.T) {
	p := NewPose([3]float64{0.1, -0.2, 0.3}, QuatAboutZ(1.1))
	flat := p.Flat()
	assert.Len(t, flat, 7)
	q := PoseFromFlat(flat)
	assert.Equal(t, p, q)
}

func TestPoseTransform_MovesPoint(t *testing.T) {
	p := NewPose([3]float64{0, 0, 1}, QuatAboutZ(math.Pi))
	v := p.Transform([3]float64{1, 0, 0})
	assert.InDelta(t, -1, v[0], 1e-12)
	assert.InDelta(t, 0, v[1], 1e-12)
	assert.InDelta(t, 1, v[2], 1e-12)
}
