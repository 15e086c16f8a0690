package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PowerFactorMap is an angular raster of factors applied to a light's emitted power.
// The raster spans the given horizontal and vertical angles around the light direction,
// with the first row at AngleBottom.
type PowerFactorMap struct {
	Width, Height int
	// AngleLeft, AngleRight, AngleBottom and AngleTop bound the raster in degrees.
	AngleLeft, AngleRight, AngleBottom, AngleTop float32
	// Factors holds Width*Height values in row-major order.
	Factors []float32
}

// IsEmpty reports whether the map holds no factors.
func (m PowerFactorMap) IsEmpty() bool {
	return len(m.Factors) == 0 || m.Width <= 0 || m.Height <= 0
}

// Lookup returns the bilinearly interpolated factor for an emission direction given in the
// light frame (x right, y up, -z forward). Directions outside the raster get factor zero.
// An empty map returns one.
//
// Parameters:
//   - d: emission direction in the light frame
//
// Returns:
//   - float32: the power factor
func (m PowerFactorMap) Lookup(d mgl32.Vec3) float32 {
	if m.IsEmpty() {
		return 1
	}
	if d[2] >= 0 {
		return 0
	}
	h := mgl32.RadToDeg(float32(math.Atan2(float64(d[0]), float64(-d[2]))))
	v := mgl32.RadToDeg(float32(math.Atan2(float64(d[1]), float64(-d[2]))))
	if h < m.AngleLeft || h > m.AngleRight || v < m.AngleBottom || v > m.AngleTop {
		return 0
	}
	fx := (h-m.AngleLeft)/(m.AngleRight-m.AngleLeft)*float32(m.Width) - 0.5
	fy := (v-m.AngleBottom)/(m.AngleTop-m.AngleBottom)*float32(m.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	ax := fx - float32(x0)
	ay := fy - float32(y0)
	at := func(x, y int) float32 {
		x = min(max(x, 0), m.Width-1)
		y = min(max(y, 0), m.Height-1)
		return m.Factors[y*m.Width+x]
	}
	bottom := at(x0, y0)*(1-ax) + at(x0+1, y0)*ax
	top := at(x0, y0+1)*(1-ax) + at(x0+1, y0+1)*ax
	return bottom*(1-ay) + top*ay
}

// AngularRadianceProvider regenerates a light's power factor map over time.
// Update is invoked once per temporal sample with the current timestamp in microseconds
// and reports whether the map changed; when it did not, the previous map stays in use.
type AngularRadianceProvider interface {
	Update(timestamp int64) (PowerFactorMap, bool)
}

// AngularRadianceProviderFunc adapts a function to the AngularRadianceProvider interface.
type AngularRadianceProviderFunc func(timestamp int64) (PowerFactorMap, bool)

// Update calls f(timestamp).
func (f AngularRadianceProviderFunc) Update(timestamp int64) (PowerFactorMap, bool) {
	return f(timestamp)
}
