package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"render-assets/scene"
)

// LoopMode controls what an action does when it reaches the clip end.
type LoopMode int

const (
	LoopRepeat LoopMode = iota
	LoopOnce
)

// Action is a playable handle on one clip within one mixer.
type Action struct {
	Loop      LoopMode
	Weight    float32
	TimeScale float32

	clip    *Clip
	mixer   *Mixer
	time    float32
	running bool
}

func (a *Action) Clip() *Clip     { return a.clip }
func (a *Action) Time() float32   { return a.time }
func (a *Action) IsRunning() bool { return a.running }

// Play starts or resumes the action.
func (a *Action) Play() *Action {
	if a.mixer != nil {
		a.running = true
	}
	return a
}

// Stop halts the action and rewinds it.
func (a *Action) Stop() *Action {
	a.running = false
	a.time = 0
	return a
}

// Mixer plays actions against the node tree under its root. Actions and
// resolved node bindings are cached until uncached.
type Mixer struct {
	root     *scene.Node
	actions  map[*Clip]*Action
	bindings map[string]*scene.Node
}

func NewMixer(root *scene.Node) *Mixer {
	return &Mixer{
		root:     root,
		actions:  make(map[*Clip]*Action),
		bindings: make(map[string]*scene.Node),
	}
}

func (m *Mixer) Root() *scene.Node { return m.root }

// ClipAction returns the cached action for clip, creating it on first use.
// It returns nil once the root has been uncached.
func (m *Mixer) ClipAction(clip *Clip) *Action {
	if m.root == nil || clip == nil {
		return nil
	}
	if a, ok := m.actions[clip]; ok {
		return a
	}
	a := &Action{Weight: 1, TimeScale: 1, clip: clip, mixer: m}
	m.actions[clip] = a
	return a
}

// StopAllAction stops every cached action.
func (m *Mixer) StopAllAction() {
	for _, a := range m.actions {
		a.Stop()
	}
}

// UncacheClip drops the action for clip and detaches it from the mixer.
func (m *Mixer) UncacheClip(clip *Clip) {
	if a, ok := m.actions[clip]; ok {
		a.Stop()
		a.mixer = nil
		delete(m.actions, clip)
	}
}

// UncacheRoot drops every binding and action tied to root. After the mixer's
// own root is uncached, Update does nothing.
func (m *Mixer) UncacheRoot(root *scene.Node) {
	if root == nil || root != m.root {
		return
	}
	for clip := range m.actions {
		m.UncacheClip(clip)
	}
	clear(m.bindings)
	m.root = nil
}

// CachedActions and CachedBindings report the cache sizes.
func (m *Mixer) CachedActions() int  { return len(m.actions) }
func (m *Mixer) CachedBindings() int { return len(m.bindings) }

func (m *Mixer) bind(name string) *scene.Node {
	if n, ok := m.bindings[name]; ok {
		return n
	}
	n := m.root.Find(name)
	if n != nil {
		m.bindings[name] = n
	}
	return n
}

// Update advances every running action by dt seconds and writes the sampled
// transforms to the bound nodes.
func (m *Mixer) Update(dt float32) {
	if m.root == nil {
		return
	}
	for _, a := range m.actions {
		if !a.running {
			continue
		}
		a.advance(dt)
		m.apply(a)
	}
}

func (a *Action) advance(dt float32) {
	d := a.clip.Duration
	a.time += dt * a.TimeScale
	if d <= 0 {
		a.time = 0
		return
	}
	switch a.Loop {
	case LoopOnce:
		if a.time >= d {
			a.time = d
			a.running = false
		}
	default:
		a.time = float32(math.Mod(float64(a.time), float64(d)))
		if a.time < 0 {
			a.time += d
		}
	}
}

func (m *Mixer) apply(a *Action) {
	w := a.Weight
	for _, tr := range a.clip.Tracks {
		if !tr.valid() {
			continue
		}
		n := m.bind(tr.NodeName)
		if n == nil {
			continue
		}
		switch tr.Path {
		case Translation:
			v := tr.SampleVec3(a.time)
			n.SetPosition(lerp3(n.Transform.Position, v, w))
		case Scale:
			v := tr.SampleVec3(a.time)
			n.SetScale(lerp3(n.Transform.Scale, v, w))
		case Rotation:
			q := tr.SampleQuat(a.time)
			if w < 1 {
				q = mgl32.QuatSlerp(n.Transform.Rotation, q, w)
			}
			n.SetRotation(q)
		}
	}
}

func lerp3(a, b mgl32.Vec3, w float32) mgl32.Vec3 {
	if w >= 1 {
		return b
	}
	return a.Add(b.Sub(a).Mul(w))
}
