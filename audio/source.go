// Package audio models playable sound sources attached to scene nodes.
package audio

import (
	"errors"
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/go-gl/mathgl/mgl32"

	"render-assets/scene"
)

// ErrNoBuffer is returned by Play when no buffer is set.
var ErrNoBuffer = errors.New("audio: source has no buffer")

// Listener is the ear of the scene. Its node is usually parented to the
// active camera.
type Listener struct {
	Node *scene.Node
}

func NewListener() *Listener {
	return &Listener{Node: scene.NewNode("AudioListener")}
}

// AttachTo reparents the listener node under target.
func (l *Listener) AttachTo(target *scene.Node) {
	if target == nil {
		l.Node.RemoveFromParent()
		return
	}
	target.AddChild(l.Node)
}

// Source is a decoded sound with its own control, pan and gain stages.
// Positional sources pan according to their node's position relative to
// the listener.
type Source struct {
	Name       string
	Node       *scene.Node
	Positional bool

	listener *Listener
	buffer   *beep.Buffer
	loop     bool
	gain     float64

	ctrl   *beep.Ctrl
	pan    *effects.Pan
	volume *effects.Volume
}

func NewSource(name string, listener *Listener, positional bool) *Source {
	return &Source{
		Name:       name,
		Node:       scene.NewNode(name),
		Positional: positional,
		listener:   listener,
		gain:       1,
	}
}

// SetBuffer replaces the sound data. A nil buffer clears it and stops
// playback.
func (s *Source) SetBuffer(b *beep.Buffer) {
	if b == nil {
		s.Stop()
	}
	s.buffer = b
}

func (s *Source) Buffer() *beep.Buffer { return s.buffer }

func (s *Source) SetLoop(loop bool) { s.loop = loop }
func (s *Source) Loop() bool        { return s.loop }

// SetVolume sets the linear gain, clamped to zero or above.
func (s *Source) SetVolume(gain float64) {
	s.gain = max(gain, 0)
	if s.volume != nil {
		s.applyGain()
	}
}

func (s *Source) Volume() float64 { return s.gain }

func (s *Source) SetListener(l *Listener) { s.listener = l }
func (s *Source) Listener() *Listener     { return s.listener }

// Play builds the playback chain and returns the streamer to hand to the
// speaker or a mixer.
func (s *Source) Play() (beep.Streamer, error) {
	if s.buffer == nil {
		return nil, ErrNoBuffer
	}
	var st beep.Streamer = s.buffer.Streamer(0, s.buffer.Len())
	if s.loop {
		st = beep.Loop(-1, s.buffer.Streamer(0, s.buffer.Len()))
	}
	s.ctrl = &beep.Ctrl{Streamer: st}
	s.pan = &effects.Pan{Streamer: s.ctrl}
	s.volume = &effects.Volume{Streamer: s.pan, Base: 2}
	s.applyGain()
	s.UpdatePan()
	return s.volume, nil
}

func (s *Source) applyGain() {
	if s.gain == 0 {
		s.volume.Silent = true
		return
	}
	s.volume.Silent = false
	s.volume.Volume = math.Log2(s.gain)
}

// Stop pauses the chain and drops the underlying stream.
func (s *Source) Stop() {
	if s.ctrl == nil {
		return
	}
	s.ctrl.Paused = true
	s.ctrl.Streamer = nil
}

func (s *Source) IsPlaying() bool {
	return s.ctrl != nil && s.ctrl.Streamer != nil && !s.ctrl.Paused
}

// UpdatePan recomputes the stereo pan of a positional source from the
// listener's point of view.
func (s *Source) UpdatePan() {
	if s.pan == nil {
		return
	}
	if !s.Positional || s.listener == nil {
		s.pan.Pan = 0
		return
	}
	lm := s.listener.Node.WorldMatrix()
	right := lm.Col(0).Vec3()
	if right.Len() == 0 {
		s.pan.Pan = 0
		return
	}
	dir := s.Node.WorldPosition().Sub(s.listener.Node.WorldPosition())
	if dir.Len() == 0 {
		s.pan.Pan = 0
		return
	}
	s.pan.Pan = float64(mgl32.Clamp(dir.Normalize().Dot(right.Normalize()), -1, 1))
}

// Disconnect tears the chain down. The source can be played again after a
// new call to Play.
func (s *Source) Disconnect() {
	s.Stop()
	s.ctrl = nil
	s.pan = nil
	s.volume = nil
}

// Connected reports whether a playback chain exists.
func (s *Source) Connected() bool {
	return s.volume != nil
}
