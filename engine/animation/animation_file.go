package animation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidToken is wrapped by Load when a line of an animation description cannot be parsed.
var ErrInvalidToken = errors.New("invalid animation token")

// tokenArgs lists the number of numeric arguments following each animation token.
var tokenArgs = map[string]int{
	"time":          1,
	"pos:cart":      3,
	"pos:cyl":       3,
	"pos:sph":       3,
	"rot:axisangle": 4,
	"rot:dir":       6,
	"rot:euler":     3,
	"scale":         3,
}

// LoadFile replaces the animation's keyframes with the ones described in the named file.
// See Load for the format.
//
// Parameters:
//   - path: animation description file
//
// Returns:
//   - error: if the file cannot be read or contains an invalid token
func (a *Animation) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("animation file %s: %w", path, err)
	}
	defer f.Close()

	if err := a.Load(f); err != nil {
		return fmt.Errorf("animation file %s: %w", path, err)
	}
	return nil
}

// Load replaces the animation's keyframes with the ones read from r.
//
// Each non-empty line not starting with '#' describes one keyframe as a sequence of tokens:
//
//	time <seconds>
//	pos:cart <x> <y> <z>
//	pos:cyl <radius> <angle deg> <y>
//	pos:sph <radius> <horizontal angle deg> <elevation deg>
//	rot:axisangle <angle deg> <x> <y> <z>
//	rot:dir <dir x> <dir y> <dir z> <up x> <up y> <up z>
//	rot:euler <pitch deg> <yaw deg> <roll deg>
//	scale <x> <y> <z>
//
// Positions accumulate, rotations compose and scales multiply within a line.
// On error the previous keyframes are restored.
//
// Parameters:
//   - r: source of the description
//
// Returns:
//   - error: wrapping ErrInvalidToken with the offending line number
func (a *Animation) Load(r io.Reader) error {
	backup := a.keyframes
	a.keyframes = nil

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		kf, err := parseKeyframe(strings.Fields(text))
		if err != nil {
			a.keyframes = backup
			return fmt.Errorf("line %d: %w", line, err)
		}
		a.AddKeyframe(kf.Timestamp, kf.Transformation)
	}
	if err := scanner.Err(); err != nil {
		a.keyframes = backup
		return err
	}
	return nil
}

func parseKeyframe(tokens []string) (Keyframe, error) {
	kf := Keyframe{Transformation: Identity()}
	tr := &kf.Transformation

	for i := 0; i < len(tokens); {
		name := tokens[i]
		n, ok := tokenArgs[name]
		if !ok || i+n >= len(tokens) {
			return kf, fmt.Errorf("%w %d (%q)", ErrInvalidToken, i, name)
		}
		args := make([]float64, n)
		for k := range args {
			v, err := strconv.ParseFloat(tokens[i+1+k], 64)
			if err != nil {
				return kf, fmt.Errorf("%w %d (%q): %v", ErrInvalidToken, i, name, err)
			}
			args[k] = v
		}
		i += n + 1

		switch name {
		case "time":
			kf.Timestamp += int64(math.Round(args[0] * 1e6))
		case "pos:cart":
			tr.Translation = tr.Translation.Add(vec3(args[0], args[1], args[2]))
		case "pos:cyl":
			phi := -mgl32.DegToRad(float32(args[1]))
			r := float32(args[0])
			tr.Translation = tr.Translation.Add(mgl32.Vec3{r * sin(phi), float32(args[2]), -r * cos(phi)})
		case "pos:sph":
			phi := -mgl32.DegToRad(float32(args[1]))
			theta := mgl32.DegToRad(float32(args[2]))
			r := float32(args[0])
			tr.Translation = tr.Translation.Add(mgl32.Vec3{r * cos(theta) * sin(phi), r * sin(theta), r * cos(theta) * cos(phi)})
		case "rot:axisangle":
			axis := vec3(args[1], args[2], args[3]).Normalize()
			tr.Rotation = tr.Rotation.Mul(mgl32.QuatRotate(mgl32.DegToRad(float32(args[0])), axis))
		case "rot:dir":
			tr.Rotation = tr.Rotation.Mul(QuatFromDirection(vec3(args[0], args[1], args[2]), vec3(args[3], args[4], args[5])))
		case "rot:euler":
			tr.Rotation = tr.Rotation.Mul(QuatFromEuler(float32(args[0]), float32(args[1]), float32(args[2])))
		case "scale":
			s := vec3(args[0], args[1], args[2])
			tr.Scale = mgl32.Vec3{tr.Scale[0] * s[0], tr.Scale[1] * s[1], tr.Scale[2] * s[2]}
		}
	}
	tr.Rotation = tr.Rotation.Normalize()
	return kf, nil
}

// QuatFromDirection returns the rotation that maps the +Z axis onto dir with +Y as close to up as possible.
//
// Parameters:
//   - dir: target direction for the local z axis
//   - up: approximate target direction for the local y axis
//
// Returns:
//   - mgl32.Quat: the rotation, or identity if dir is zero or parallel to up
func QuatFromDirection(dir, up mgl32.Vec3) mgl32.Quat {
	if dir.Len() == 0 {
		return mgl32.QuatIdent()
	}
	z := dir.Normalize()
	x := up.Cross(z)
	if x.Len() == 0 {
		return mgl32.QuatIdent()
	}
	x = x.Normalize()
	y := z.Cross(x)
	return mgl32.Mat4ToQuat(mgl32.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// QuatFromEuler builds a rotation from angles in degrees applied as roll about z, then pitch
// about x, then yaw about y.
func QuatFromEuler(pitch, yaw, roll float32) mgl32.Quat {
	qy := mgl32.QuatRotate(mgl32.DegToRad(yaw), mgl32.Vec3{0, 1, 0})
	qx := mgl32.QuatRotate(mgl32.DegToRad(pitch), mgl32.Vec3{1, 0, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(roll), mgl32.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

func vec3(x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

func sin(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos(x float32) float32 { return float32(math.Cos(float64(x))) }
