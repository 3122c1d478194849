// Package animation drives node transforms from keyframed clips.
package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Path is the transform property a track animates.
type Path int

const (
	Translation Path = iota
	Rotation
	Scale
)

// Track animates one property of the node named NodeName. Values holds
// three components per key for Translation and Scale and four (x, y, z, w)
// for Rotation.
type Track struct {
	NodeName string
	Path     Path
	Times    []float32
	Values   []float32
}

func (t Track) stride() int {
	if t.Path == Rotation {
		return 4
	}
	return 3
}

// Clip is a named set of tracks.
type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

// NewClip builds a clip whose duration is the last key time of its tracks.
func NewClip(name string, tracks []Track) *Clip {
	c := &Clip{Name: name, Tracks: tracks}
	for _, t := range tracks {
		if n := len(t.Times); n > 0 && t.Times[n-1] > c.Duration {
			c.Duration = t.Times[n-1]
		}
	}
	return c
}

// keyframe returns the pair of keys surrounding time and the blend factor.
func (t Track) keyframe(time float32) (int, int, float32) {
	n := len(t.Times)
	if n == 0 {
		return 0, 0, 0
	}
	if time <= t.Times[0] {
		return 0, 0, 0
	}
	if time >= t.Times[n-1] {
		return n - 1, n - 1, 0
	}
	i := sort.Search(n, func(i int) bool { return t.Times[i] > time })
	lo, hi := i-1, i
	span := t.Times[hi] - t.Times[lo]
	if span <= 0 {
		return hi, hi, 0
	}
	return lo, hi, (time - t.Times[lo]) / span
}

func (t Track) vec3(i int) mgl32.Vec3 {
	o := i * 3
	return mgl32.Vec3{t.Values[o], t.Values[o+1], t.Values[o+2]}
}

func (t Track) quat(i int) mgl32.Quat {
	o := i * 4
	return mgl32.Quat{W: t.Values[o+3], V: mgl32.Vec3{t.Values[o], t.Values[o+1], t.Values[o+2]}}
}

// valid reports whether the value buffer matches the key count.
func (t Track) valid() bool {
	return len(t.Times) > 0 && len(t.Values) == len(t.Times)*t.stride()
}

// SampleVec3 interpolates a Translation or Scale track.
func (t Track) SampleVec3(time float32) mgl32.Vec3 {
	lo, hi, f := t.keyframe(time)
	a, b := t.vec3(lo), t.vec3(hi)
	return a.Add(b.Sub(a).Mul(f))
}

// SampleQuat spherically interpolates a Rotation track.
func (t Track) SampleQuat(time float32) mgl32.Quat {
	lo, hi, f := t.keyframe(time)
	if lo == hi {
		return t.quat(lo).Normalize()
	}
	return mgl32.QuatSlerp(t.quat(lo), t.quat(hi), f)
}
