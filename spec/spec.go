// Package spec implements specifications for the actions and
// observations of environments
package spec

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Type determines what kind of specification a Space is. A Space can
// specify the layout of an action, an observation, or a reward
type Type int

const (
	Action Type = iota
	Observation
	Reward
)

// Cardinality determines the cardinality of a space (discrete or
// continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Space implements a specification, which tells the type, shape, and
// bounds of an action, observation, or reward in an environment. The
// bounds are per-dimension and refer to a single replica; batched data
// adds a leading batch dimension on top of the shape described here.
type Space struct {
	Shape      []int
	Type       Type
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// New constructs a new Space. The shape argument outlines the shape of
// the data described by the specification for a single replica. The
// argument t outlines what the specification is describing (e.g.
// actions, observations). The cardinality argument describes whether
// the values that the space describes are continuous or discrete.
func New(shape []int, t Type, lowerBound, upperBound mat.Vector,
	cardinality Cardinality) Space {
	dim := dimOf(shape)
	if dim != lowerBound.Len() {
		panic(fmt.Sprintf("total shape size %v must match lower bounds "+
			"length %v", dim, lowerBound.Len()))
	}
	if dim != upperBound.Len() {
		panic(fmt.Sprintf("total shape size %v must match upper bounds "+
			"length %v", dim, upperBound.Len()))
	}
	return Space{shape, t, lowerBound, upperBound, cardinality}
}

// Dim returns the total number of scalars in the space for a single
// replica
func (s Space) Dim() int {
	return dimOf(s.Shape)
}

// Contains returns whether v lies within the per-dimension bounds of
// the space
func (s Space) Contains(v mat.Vector) bool {
	if v.Len() != s.Dim() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < s.LowerBound.AtVec(i) ||
			v.AtVec(i) > s.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}

func dimOf(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	dim := 1
	for _, s := range shape {
		dim *= s
	}
	return dim
}
