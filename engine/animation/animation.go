package animation

import (
	"sort"
)

// Keyframe pins a transformation to a timestamp in microseconds.
type Keyframe struct {
	Timestamp      int64
	Transformation Transformation
}

// Animation is a list of keyframes kept sorted by ascending, unique timestamps.
// An empty animation yields the identity transformation at every time.
type Animation struct {
	keyframes []Keyframe
}

// NewAnimation creates an animation from the given keyframes. Keyframes may be passed in any order;
// later duplicates overwrite earlier ones.
//
// Parameters:
//   - keyframes: initial keyframes
//
// Returns:
//   - *Animation: the populated animation
func NewAnimation(keyframes ...Keyframe) *Animation {
	a := &Animation{}
	for _, kf := range keyframes {
		a.AddKeyframe(kf.Timestamp, kf.Transformation)
	}
	return a
}

// AddKeyframe inserts a keyframe while keeping the list sorted. Inserting at an existing
// timestamp replaces that keyframe's transformation.
//
// Parameters:
//   - t: timestamp in microseconds
//   - tr: the pose at that time
func (a *Animation) AddKeyframe(t int64, tr Transformation) {
	kf := Keyframe{Timestamp: t, Transformation: tr}
	n := len(a.keyframes)
	switch {
	case n == 0 || t > a.keyframes[n-1].Timestamp:
		a.keyframes = append(a.keyframes, kf)
	case t < a.keyframes[0].Timestamp:
		a.keyframes = append([]Keyframe{kf}, a.keyframes...)
	default:
		i := sort.Search(n, func(i int) bool { return a.keyframes[i].Timestamp >= t })
		if a.keyframes[i].Timestamp == t {
			a.keyframes[i] = kf
			return
		}
		a.keyframes = append(a.keyframes, Keyframe{})
		copy(a.keyframes[i+1:], a.keyframes[i:])
		a.keyframes[i] = kf
	}
}

// Interpolate returns the pose at time t. Times outside the keyframe range clamp to the
// nearest endpoint.
//
// Parameters:
//   - t: timestamp in microseconds
//
// Returns:
//   - Transformation: the interpolated pose, or Identity for an empty animation
func (a *Animation) Interpolate(t int64) Transformation {
	if a == nil || len(a.keyframes) == 0 {
		return Identity()
	}
	n := len(a.keyframes)
	if t <= a.keyframes[0].Timestamp {
		return a.keyframes[0].Transformation
	}
	if t >= a.keyframes[n-1].Timestamp {
		return a.keyframes[n-1].Transformation
	}
	hi := sort.Search(n, func(i int) bool { return a.keyframes[i].Timestamp >= t })
	if a.keyframes[hi].Timestamp == t {
		return a.keyframes[hi].Transformation
	}
	lo := hi - 1
	alpha := 1 - float32(a.keyframes[hi].Timestamp-t)/float32(a.keyframes[hi].Timestamp-a.keyframes[lo].Timestamp)
	return Interpolate(a.keyframes[lo].Transformation, a.keyframes[hi].Transformation, alpha)
}

// StartTime returns the first keyframe's timestamp, or 0 for an empty animation.
func (a *Animation) StartTime() int64 {
	if a == nil || len(a.keyframes) == 0 {
		return 0
	}
	return a.keyframes[0].Timestamp
}

// EndTime returns the last keyframe's timestamp, or 0 for an empty animation.
func (a *Animation) EndTime() int64 {
	if a == nil || len(a.keyframes) == 0 {
		return 0
	}
	return a.keyframes[len(a.keyframes)-1].Timestamp
}

// Len returns the number of keyframes.
func (a *Animation) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keyframes)
}

// IsEmpty reports whether the animation has no keyframes.
func (a *Animation) IsEmpty() bool {
	return a.Len() == 0
}

// Keyframes returns a copy of the sorted keyframe list.
func (a *Animation) Keyframes() []Keyframe {
	if a == nil {
		return nil
	}
	return append([]Keyframe(nil), a.keyframes...)
}

// Clear removes all keyframes.
func (a *Animation) Clear() {
	a.keyframes = nil
}
