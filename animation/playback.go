package animation

import (
	"render-assets/scene"
)

// Playback pairs a mixer with one action per clip, keyed by clip name.
type Playback struct {
	Mixer   *Mixer
	Actions map[string]*Action
}

// NewPlayback creates a mixer on root with an action for every clip. It
// returns nil when there are no clips.
func NewPlayback(root *scene.Node, clips []*Clip) *Playback {
	if len(clips) == 0 {
		return nil
	}
	p := &Playback{
		Mixer:   NewMixer(root),
		Actions: make(map[string]*Action, len(clips)),
	}
	for _, c := range clips {
		p.Actions[c.Name] = p.Mixer.ClipAction(c)
	}
	return p
}

// Play starts the named action and reports whether it exists.
func (p *Playback) Play(name string) bool {
	a, ok := p.Actions[name]
	if !ok {
		return false
	}
	a.Play()
	return true
}

// Update advances the mixer.
func (p *Playback) Update(dt float32) {
	p.Mixer.Update(dt)
}

// Dispose stops every action, flushes the mixer caches for the root and
// each clip, and drops the references.
func (p *Playback) Dispose() {
	if p == nil || p.Mixer == nil {
		return
	}
	m := p.Mixer
	root := m.Root()
	m.StopAllAction()
	m.UncacheRoot(root)
	for _, a := range p.Actions {
		if c := a.Clip(); c != nil {
			m.UncacheClip(c)
		}
	}
	p.Actions = nil
	p.Mixer = nil
}
