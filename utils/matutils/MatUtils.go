// Package matutils provides utilities for working with gonum matrices
package matutils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// VecToSlice copies the data of a vector into a new slice
func VecToSlice(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		data[i] = v.AtVec(i)
	}
	return data
}

// Tile returns an n x len(row) dense matrix with every row equal to
// the argument row
func Tile(n int, row []float64) *mat.Dense {
	out := mat.NewDense(n, len(row), nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, row)
	}
	return out
}

// RowNorms returns the Euclidean norm of every row of m
func RowNorms(m *mat.Dense) []float64 {
	r, c := m.Dims()
	norms := make([]float64, r)
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			sum += v * v
		}
		norms[i] = math.Sqrt(sum)
	}
	return norms
}

// HStack concatenates matrices with equal row counts along their
// columns, returning a new matrix
func HStack(ms ...*mat.Dense) *mat.Dense {
	if len(ms) == 0 {
		return &mat.Dense{}
	}
	rows, _ := ms[0].Dims()
	total := 0
	for _, m := range ms {
		r, c := m.Dims()
		if r != rows {
			panic("hStack: matrices must have the same number of rows")
		}
		total += c
	}
	out := mat.NewDense(rows, total, nil)
	offset := 0
	for _, m := range ms {
		_, c := m.Dims()
		for j := 0; j < c; j++ {
			for i := 0; i < rows; i++ {
				out.Set(i, offset+j, m.At(i, j))
			}
		}
		offset += c
	}
	return out
}

// SubRows returns rows a - b elementwise as a new matrix
func SubRows(a, b *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	out.Sub(a, b)
	return out
}
