package audio

import (
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-assets/scene"
)

func silentBuffer(samples int) *beep.Buffer {
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(beep.Silence(samples))
	return buf
}

func TestPlayRequiresBuffer(t *testing.T) {
	s := NewSource("ping", NewListener(), false)
	_, err := s.Play()
	assert.ErrorIs(t, err, ErrNoBuffer)
}

func TestPlayStopDisconnect(t *testing.T) {
	s := NewSource("ping", NewListener(), false)
	s.SetBuffer(silentBuffer(64))
	s.SetVolume(0.5)

	st, err := s.Play()
	require.NoError(t, err)
	assert.True(t, s.IsPlaying())

	samples := make([][2]float64, 16)
	n, ok := st.Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 16, n)

	s.Stop()
	assert.False(t, s.IsPlaying())

	s.SetBuffer(nil)
	assert.Nil(t, s.Buffer())
	s.Disconnect()
	assert.False(t, s.Connected())
}

func TestLoopingSourceKeepsStreaming(t *testing.T) {
	s := NewSource("loop", NewListener(), false)
	s.SetBuffer(silentBuffer(8))
	s.SetLoop(true)

	st, err := s.Play()
	require.NoError(t, err)
	samples := make([][2]float64, 32)
	n, ok := st.Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 32, n)
}

func TestPositionalPan(t *testing.T) {
	listener := NewListener()
	camera := scene.NewNode("camera")
	listener.AttachTo(camera)
	assert.Same(t, camera, listener.Node.Parent)

	s := NewSource("engine", listener, true)
	s.SetBuffer(silentBuffer(8))
	s.Node.SetPosition(mgl32.Vec3{5, 0, 0})
	_, err := s.Play()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.pan.Pan, 1e-6)

	s.Node.SetPosition(mgl32.Vec3{-5, 0, 0})
	s.UpdatePan()
	assert.InDelta(t, -1.0, s.pan.Pan, 1e-6)

	other := NewListener()
	s.SetListener(other)
	assert.Same(t, other, s.Listener())
}

func TestBufferDuration(t *testing.T) {
	buf := silentBuffer(44100)
	assert.Equal(t, time.Second, buf.Format().SampleRate.D(buf.Len()))
}
