package scene

import (
	"github.com/jinzhu/copier"

	"render-assets/core"
)

// TextureSlot names one of the texture-carrying properties of a Material.
type TextureSlot int

const (
	MapSlot TextureSlot = iota
	NormalMapSlot
	SpecularMapSlot
	EmissiveMapSlot
	LightMapSlot
	AOMapSlot
	DisplacementMapSlot
	RoughnessMapSlot
	MetalnessMapSlot
	AlphaMapSlot
	EnvMapSlot

	numTextureSlots
)

// TextureSlots lists every slot in declaration order.
var TextureSlots = [numTextureSlots]TextureSlot{
	MapSlot, NormalMapSlot, SpecularMapSlot, EmissiveMapSlot, LightMapSlot,
	AOMapSlot, DisplacementMapSlot, RoughnessMapSlot, MetalnessMapSlot,
	AlphaMapSlot, EnvMapSlot,
}

var textureSlotNames = [numTextureSlots]string{
	"map", "normalMap", "specularMap", "emissiveMap", "lightMap", "aoMap",
	"displacementMap", "roughnessMap", "metalnessMap", "alphaMap", "envMap",
}

func (s TextureSlot) String() string {
	if s < 0 || s >= numTextureSlots {
		return "unknown"
	}
	return textureSlotNames[s]
}

// TextureObserver is notified whenever a material slot changes.
type TextureObserver interface {
	TextureChanged(m *Material, slot TextureSlot, prev, next *Texture)
}

// Material describes surface appearance properties for a mesh.
// Supports both Phong shading and PBR (Cook-Torrance BRDF).
type Material struct {
	Name      string
	Albedo    core.Color // base diffuse color (multiplied with the map if set)
	Specular  core.Color
	Shininess float32
	Unlit     bool

	UsePBR        bool
	Metallic      float32
	Roughness     float32
	EmissiveColor core.Color

	// Program is the backend shader/uniform handle, set on first draw.
	Program uint32

	textures [numTextureSlots]*Texture
	observer TextureObserver
	disposed bool
}

// DefaultMaterial returns a plain white matte Phong material.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "Default",
		Albedo:    core.ColorWhite,
		Specular:  core.Color{R: 0.3, G: 0.3, B: 0.3, A: 1},
		Shininess: 32,
		Roughness: 0.5,
	}
}

// NewMaterial creates a Phong material with the given albedo color.
func NewMaterial(name string, albedo core.Color) *Material {
	return &Material{
		Name:      name,
		Albedo:    albedo,
		Specular:  core.Color{R: 0.5, G: 0.5, B: 0.5, A: 1},
		Shininess: 32,
		Roughness: 0.5,
	}
}

// NewPBRMaterial creates a PBR material with the given albedo, metallic, and roughness.
func NewPBRMaterial(name string, albedo core.Color, metallic, roughness float32) *Material {
	return &Material{
		Name:      name,
		Albedo:    albedo,
		Metallic:  metallic,
		Roughness: roughness,
		UsePBR:    true,
	}
}

func (m *Material) Texture(slot TextureSlot) *Texture {
	return m.textures[slot]
}

// SetTexture assigns tex to slot and notifies the observer, if any.
func (m *Material) SetTexture(slot TextureSlot, tex *Texture) {
	old := m.textures[slot]
	if old == tex {
		return
	}
	m.textures[slot] = tex
	if m.observer != nil {
		m.observer.TextureChanged(m, slot, old, tex)
	}
}

// Textures calls fn for every occupied slot.
func (m *Material) Textures(fn func(TextureSlot, *Texture)) {
	for _, slot := range TextureSlots {
		if t := m.textures[slot]; t != nil {
			fn(slot, t)
		}
	}
}

// Uses reports whether tex occupies any slot of m.
func (m *Material) Uses(tex *Texture) bool {
	for _, t := range m.textures {
		if t != nil && t == tex {
			return true
		}
	}
	return false
}

// Observe installs o as the slot observer. Passing nil removes it.
func (m *Material) Observe(o TextureObserver) {
	m.observer = o
}

func (m *Material) Observer() TextureObserver {
	return m.observer
}

// Clone copies the shading parameters into a new material. Textures are
// shared with m; the observer and GPU program are not carried over.
func (m *Material) Clone() *Material {
	c := &Material{}
	if err := copier.Copy(c, m); err != nil {
		*c = *m
		c.observer = nil
		c.disposed = false
	}
	c.Program = 0
	c.textures = m.textures
	return c
}

func (m *Material) Dispose(r Releaser) {
	if m == nil || m.disposed {
		return
	}
	r.ReleaseMaterial(m)
	m.Program = 0
	m.disposed = true
}

func (m *Material) Disposed() bool {
	return m.disposed
}
