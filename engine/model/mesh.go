package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list. Normals, texture coordinates and tangents are optional
// but, when present, have one entry per position.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	// Tangents holds the tangent direction in xyz and the bitangent handedness in w.
	Tangents []mgl32.Vec4
	Indices  []uint32
}

// TriangleCount returns the number of triangles in the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the axis-aligned bounding box of the positions.
//
// Returns:
//   - lo: minimum corner
//   - hi: maximum corner
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

// Transform applies an affine matrix to positions, normals and tangents in place.
//
// Parameters:
//   - m4: the transformation matrix
func (m *Mesh) Transform(m4 mgl32.Mat4) {
	nm := m4.Mat3().Inv().Transpose()
	for i, p := range m.Positions {
		m.Positions[i] = mgl32.TransformCoordinate(p, m4)
	}
	for i, n := range m.Normals {
		m.Normals[i] = safeNormalize(nm.Mul3x1(n))
	}
	for i, t := range m.Tangents {
		d := safeNormalize(m4.Mat3().Mul3x1(t.Vec3()))
		m.Tangents[i] = d.Vec4(t[3])
	}
}

// ComputeNormals replaces the normals by area-weighted averages of the adjacent face normals.
func (m *Mesh) ComputeNormals() {
	m.Normals = make([]mgl32.Vec3, len(m.Positions))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		n := m.Positions[b].Sub(m.Positions[a]).Cross(m.Positions[c].Sub(m.Positions[a]))
		m.Normals[a] = m.Normals[a].Add(n)
		m.Normals[b] = m.Normals[b].Add(n)
		m.Normals[c] = m.Normals[c].Add(n)
	}
	for i, n := range m.Normals {
		m.Normals[i] = safeNormalize(n)
	}
}

// ComputeTangents derives per-vertex tangents from texture coordinates.
// Meshes without texture coordinates or normals are left unchanged.
func (m *Mesh) ComputeTangents() {
	if len(m.TexCoords) != len(m.Positions) || len(m.Normals) != len(m.Positions) {
		return
	}
	tan := make([]mgl32.Vec3, len(m.Positions))
	bitan := make([]mgl32.Vec3, len(m.Positions))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		e1 := m.Positions[i1].Sub(m.Positions[i0])
		e2 := m.Positions[i2].Sub(m.Positions[i0])
		d1 := m.TexCoords[i1].Sub(m.TexCoords[i0])
		d2 := m.TexCoords[i2].Sub(m.TexCoords[i0])
		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det == 0 {
			continue
		}
		r := 1 / det
		sd := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		td := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, i := range []uint32{i0, i1, i2} {
			tan[i] = tan[i].Add(sd)
			bitan[i] = bitan[i].Add(td)
		}
	}
	m.Tangents = make([]mgl32.Vec4, len(m.Positions))
	for i, n := range m.Normals {
		t := safeNormalize(tan[i].Sub(n.Mul(n.Dot(tan[i]))))
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		m.Tangents[i] = t.Vec4(w)
	}
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
