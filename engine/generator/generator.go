// Package generator builds procedural primitives and adds them to a scene.
//
// Every primitive fits into the cube [-1,1]^3 and is centered at the origin; a
// transformation passed to one of the AddXToScene functions is baked into the vertices.
package generator

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultSlices           = 40
	DefaultStacks           = 20
	DefaultDiskInnerRadius  = 0.2
	DefaultTorusInnerRadius = 0.4
)

const (
	halfPi = math.Pi / 2
	twoPi  = 2 * math.Pi
)

// Quad returns a square in the z=0 plane facing +Z, subdivided into slices x slices cells.
//
// Parameters:
//   - slices: subdivisions per side, at least 1
//
// Returns:
//   - *model.Mesh: the quad mesh
func Quad(slices int) *model.Mesh {
	require(slices >= 1, "quad needs at least 1 slice, got %d", slices)
	m := &model.Mesh{}
	step := float32(slices) / 2
	for i := 0; i <= slices; i++ {
		ty := float32(i) / step
		for j := 0; j <= slices; j++ {
			tx := float32(j) / step
			m.Positions = append(m.Positions, mgl32.Vec3{-1 + tx, -1 + ty, 0})
			m.Normals = append(m.Normals, mgl32.Vec3{0, 0, 1})
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{tx / 2, ty / 2})
		}
	}
	m.Indices = gridIndices(0, slices, slices)
	return finish(m)
}

// Cube returns an axis-aligned cube with each side subdivided into slices x slices cells.
//
// Parameters:
//   - slices: subdivisions per side edge, at least 1
//
// Returns:
//   - *model.Mesh: the cube mesh
func Cube(slices int) *model.Mesh {
	require(slices >= 1, "cube needs at least 1 slice, got %d", slices)
	m := &model.Mesh{}
	step := float32(slices) / 2
	perSide := uint32((slices + 1) * (slices + 1))
	for side := 0; side < 6; side++ {
		n := cubeNormals[side]
		for i := 0; i <= slices; i++ {
			ty := float32(i) / step
			for j := 0; j <= slices; j++ {
				tx := float32(j) / step
				m.Positions = append(m.Positions, cubeSide(side, tx, ty))
				m.Normals = append(m.Normals, n)
				m.TexCoords = append(m.TexCoords, mgl32.Vec2{tx / 2, ty / 2})
			}
		}
		m.Indices = append(m.Indices, gridIndices(uint32(side)*perSide, slices, slices)...)
	}
	return finish(m)
}

// front, back, left, right, top, bottom
var cubeNormals = [6]mgl32.Vec3{
	{0, 0, 1}, {0, 0, -1}, {-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, -1, 0},
}

// cubeSide maps the side-local grid coordinates in [0,2] onto the cube surface so that
// every side winds counter-clockwise when seen from outside.
func cubeSide(side int, tx, ty float32) mgl32.Vec3 {
	switch side {
	case 0:
		return mgl32.Vec3{-1 + tx, -1 + ty, 1}
	case 1:
		return mgl32.Vec3{1 - tx, -1 + ty, -1}
	case 2:
		return mgl32.Vec3{-1, -1 + ty, -1 + tx}
	case 3:
		return mgl32.Vec3{1, -1 + ty, 1 - tx}
	case 4:
		return mgl32.Vec3{-1 + ty, 1, -1 + tx}
	default:
		return mgl32.Vec3{1 - ty, -1, -1 + tx}
	}
}

// Disk returns a flat ring in the z=0 plane facing +Z with outer radius 1. An inner radius of
// zero yields a full disk.
//
// Parameters:
//   - innerRadius: the radius of the hole, in [0,1]
//   - slices: angular subdivisions, at least 4
//
// Returns:
//   - *model.Mesh: the disk mesh
func Disk(innerRadius float32, slices int) *model.Mesh {
	require(innerRadius >= 0 && innerRadius <= 1, "disk inner radius %g outside [0,1]", innerRadius)
	require(slices >= 4, "disk needs at least 4 slices, got %d", slices)
	const loops = 1
	m := &model.Mesh{}
	for i := 0; i <= loops; i++ {
		ty := float32(i) / loops
		r := innerRadius + ty*(1-innerRadius)
		for j := 0; j <= slices; j++ {
			tx := float32(j) / float32(slices)
			alpha := float64(tx)*twoPi + halfPi
			m.Positions = append(m.Positions, mgl32.Vec3{r * cos(alpha), r * sin(alpha), 0})
			m.Normals = append(m.Normals, mgl32.Vec3{0, 0, 1})
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{1 - tx, ty})
		}
	}
	// rows run from the inner to the outer loop, so the grid winding is mirrored
	w := uint32(slices + 1)
	for i := uint32(0); i < loops; i++ {
		for j := uint32(0); j < uint32(slices); j++ {
			a, b := i*w+j, (i+1)*w+j
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return finish(m)
}

// Sphere returns the unit sphere.
//
// Parameters:
//   - slices: subdivisions around the Y axis, at least 4
//   - stacks: subdivisions from pole to pole, at least 2
//
// Returns:
//   - *model.Mesh: the sphere mesh
func Sphere(slices, stacks int) *model.Mesh {
	require(slices >= 4, "sphere needs at least 4 slices, got %d", slices)
	require(stacks >= 2, "sphere needs at least 2 stacks, got %d", stacks)
	m := &model.Mesh{}
	for i := 0; i <= stacks; i++ {
		ty := float32(i) / float32(stacks)
		lat := float64(ty) * math.Pi
		for j := 0; j <= slices; j++ {
			tx := float32(j) / float32(slices)
			lon := float64(tx)*twoPi - halfPi
			p := mgl32.Vec3{sin(lat) * cos(lon), cos(lat), sin(lat) * sin(lon)}
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, p)
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{1 - tx, 1 - ty})
		}
	}
	m.Indices = gridIndices(0, stacks, slices)
	return finish(m)
}

// Cylinder returns an open cylinder of radius 1 around the Y axis from y=-1 to y=1.
//
// Parameters:
//   - slices: subdivisions around the Y axis, at least 4
//
// Returns:
//   - *model.Mesh: the cylinder mesh
func Cylinder(slices int) *model.Mesh {
	require(slices >= 4, "cylinder needs at least 4 slices, got %d", slices)
	const stacks = 1
	m := &model.Mesh{}
	for i := 0; i <= stacks; i++ {
		ty := float32(i) / stacks
		for j := 0; j <= slices; j++ {
			tx := float32(j) / float32(slices)
			alpha := float64(tx)*twoPi - halfPi
			x, z := cos(alpha), sin(alpha)
			m.Positions = append(m.Positions, mgl32.Vec3{x, -(ty*2 - 1), z})
			m.Normals = append(m.Normals, mgl32.Vec3{x, 0, z})
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{1 - tx, 1 - ty})
		}
	}
	m.Indices = gridIndices(0, stacks, slices)
	return finish(m)
}

// Cone returns an open cone around the Y axis with its apex at y=1 and a base of radius 1
// at y=-1.
//
// Parameters:
//   - slices: subdivisions around the Y axis, at least 4
//   - stacks: subdivisions from apex to base, at least 2
//
// Returns:
//   - *model.Mesh: the cone mesh
func Cone(slices, stacks int) *model.Mesh {
	require(slices >= 4, "cone needs at least 4 slices, got %d", slices)
	require(stacks >= 2, "cone needs at least 2 stacks, got %d", stacks)
	m := &model.Mesh{}
	for i := 0; i <= stacks; i++ {
		ty := float32(i) / float32(stacks)
		for j := 0; j <= slices; j++ {
			tx := float32(j) / float32(slices)
			alpha := float64(tx)*twoPi - halfPi
			c, s := cos(alpha), sin(alpha)
			m.Positions = append(m.Positions, mgl32.Vec3{ty * c, -(ty*2 - 1), ty * s})
			// the flank drops 2 units per unit of radius
			m.Normals = append(m.Normals, mgl32.Vec3{c, 0.5, s}.Normalize())
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{1 - tx, 1 - ty})
		}
	}
	m.Indices = gridIndices(0, stacks, slices)
	return finish(m)
}

// Torus returns a torus around the Z axis with outer radius 1.
//
// Parameters:
//   - innerRadius: the radius of the hole, in [0,1)
//   - sides: subdivisions around the Z axis, at least 4
//   - rings: subdivisions around the tube, at least 4
//
// Returns:
//   - *model.Mesh: the torus mesh
func Torus(innerRadius float32, sides, rings int) *model.Mesh {
	require(innerRadius >= 0 && innerRadius < 1, "torus inner radius %g outside [0,1)", innerRadius)
	require(sides >= 4, "torus needs at least 4 sides, got %d", sides)
	require(rings >= 4, "torus needs at least 4 rings, got %d", rings)
	ringRadius := (1 - innerRadius) / 2
	ringCenter := innerRadius + ringRadius
	m := &model.Mesh{}
	for i := 0; i <= sides; i++ {
		ty := float32(i) / float32(sides)
		alpha := float64(ty)*twoPi - halfPi
		c, s := cos(alpha), sin(alpha)
		center := mgl32.Vec3{c * ringCenter, -s * ringCenter, 0}
		for j := 0; j <= rings; j++ {
			tx := float32(j) / float32(rings)
			beta := float64(tx)*twoPi - math.Pi
			x := ringCenter + ringRadius*cos(beta)
			p := mgl32.Vec3{c * x, -s * x, ringRadius * sin(beta)}
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, p.Sub(center).Normalize())
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{1 - tx, 1 - ty})
		}
	}
	m.Indices = gridIndices(0, sides, rings)
	return finish(m)
}

// gridIndices triangulates a (rows+1) x (cols+1) vertex grid stored row by row.
func gridIndices(base uint32, rows, cols int) []uint32 {
	w := uint32(cols + 1)
	idx := make([]uint32, 0, rows*cols*6)
	for i := uint32(0); i < uint32(rows); i++ {
		for j := uint32(0); j < uint32(cols); j++ {
			a, b := base+i*w+j, base+(i+1)*w+j
			idx = append(idx, a, a+1, b, a+1, b+1, b)
		}
	}
	return idx
}

func finish(m *model.Mesh) *model.Mesh {
	m.ComputeTangents()
	return m
}

func require(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("generator: "+format, args...))
	}
}

func sin(a float64) float32 { return float32(math.Sin(a)) }
func cos(a float64) float32 { return float32(math.Cos(a)) }

// AddToScene bakes a transformation into a mesh and adds it to a scene as a single-shape object.
// The mesh is modified in place.
//
// Parameters:
//   - s: the target scene
//   - name: the object name
//   - mesh: the mesh to add
//   - materialIndex: index into the scene's materials
//   - t: the transformation applied to the vertices
//   - anim: optional object animation
//
// Returns:
//   - int: the index of the new object
func AddToScene(s scene.Scene, name string, mesh *model.Mesh, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	mesh.Transform(t.Matrix())
	return s.AddObject(model.NewObject(model.WithName(name), model.WithShape(mesh, materialIndex)), anim...)
}

// AddQuadToScene adds a quad with DefaultSlices subdivisions.
func AddQuadToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "quad", Quad(DefaultSlices), materialIndex, t, anim...)
}

// AddCubeToScene adds a cube with DefaultSlices subdivisions per side.
func AddCubeToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "cube", Cube(DefaultSlices), materialIndex, t, anim...)
}

// AddDiskToScene adds a disk with DefaultDiskInnerRadius.
func AddDiskToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "disk", Disk(DefaultDiskInnerRadius, DefaultSlices), materialIndex, t, anim...)
}

func AddSphereToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "sphere", Sphere(DefaultSlices, DefaultStacks), materialIndex, t, anim...)
}

func AddCylinderToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "cylinder", Cylinder(DefaultSlices), materialIndex, t, anim...)
}

func AddConeToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "cone", Cone(DefaultSlices, DefaultStacks), materialIndex, t, anim...)
}

// AddTorusToScene adds a torus with DefaultTorusInnerRadius.
func AddTorusToScene(s scene.Scene, materialIndex int, t animation.Transformation, anim ...*animation.Animation) int {
	return AddToScene(s, "torus", Torus(DefaultTorusInnerRadius, DefaultSlices, DefaultSlices), materialIndex, t, anim...)
}
