package loader

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithTransformation sets a global transformation applied to all imported geometry,
// lights and cameras, e.g. to convert units or axis conventions.
//
// Parameters:
//   - m: the transformation matrix
//
// Returns:
//   - LoaderBuilderOption: a function that applies the transformation option to a loader
func WithTransformation(m mgl32.Mat4) LoaderBuilderOption {
	return func(l *loader) {
		l.opts.transform = m
	}
}

// WithAnimationClip selects which animation of a file drives object, light and camera
// animations. A negative index imports every node at its rest pose.
//
// Parameters:
//   - index: the animation index (default 0)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the clip option to a loader
func WithAnimationClip(index int) LoaderBuilderOption {
	return func(l *loader) {
		l.opts.clip = index
	}
}

// WithResult pre-populates the cache.
//
// Parameters:
//   - key: the cache key
//   - r: the result to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the result option to a loader
func WithResult(key string, r *Result) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = r
	}
}
