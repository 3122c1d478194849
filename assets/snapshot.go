package assets

import (
	"render-assets/registry"
)

// ModelSummary describes one source model and its live clones.
type ModelSummary struct {
	Name        string              `yaml:"name"`
	ID          registry.Identity   `yaml:"id"`
	Animated    bool                `yaml:"animated"`
	Clones      map[string][]string `yaml:"clones,omitempty"`
	NextOrdinal map[string]int      `yaml:"nextOrdinal,omitempty"`
}

// TextureSummary describes one source texture and its live clones.
type TextureSummary struct {
	Name   string            `yaml:"name"`
	ID     registry.Identity `yaml:"id"`
	Width  int               `yaml:"width"`
	Height int               `yaml:"height"`
	HDR    bool              `yaml:"hdr"`
	Clones []string          `yaml:"clones,omitempty"`
}

// Snapshot is a point-in-time listing of everything registered.
type Snapshot struct {
	Models      []ModelSummary   `yaml:"models"`
	Textures    []TextureSummary `yaml:"textures"`
	CubeMaps    []string         `yaml:"cubeMaps"`
	HDRCubeMaps []string         `yaml:"hdrCubeMaps"`
	HDRIs       []string         `yaml:"hdris"`
	Fonts       []string         `yaml:"fonts"`
	Audios      []string         `yaml:"audios"`
	Bindings    int              `yaml:"bindings"`
}

func (a *Assets) Snapshot() Snapshot {
	var s Snapshot
	for _, rec := range a.reg.Models() {
		m := ModelSummary{
			Name:     rec.Source.Name,
			ID:       rec.Source.ID,
			Animated: rec.Source.Playback != nil,
		}
		for _, k := range registry.CloneKinds {
			if n := rec.NextOrdinal(k); n > 0 {
				if m.NextOrdinal == nil {
					m.NextOrdinal = make(map[string]int)
				}
				m.NextOrdinal[k.String()] = n
			}
			for _, c := range rec.Clones(k) {
				if m.Clones == nil {
					m.Clones = make(map[string][]string)
				}
				m.Clones[k.String()] = append(m.Clones[k.String()], c.Name)
			}
		}
		s.Models = append(s.Models, m)
	}
	for _, rec := range a.reg.Textures() {
		t := TextureSummary{
			Name:   rec.Source.Name,
			ID:     rec.Source.ID,
			Width:  rec.Source.Texture.Width,
			Height: rec.Source.Texture.Height,
			HDR:    rec.Source.Texture.IsHDR(),
		}
		for _, c := range rec.Clones() {
			t.Clones = append(t.Clones, c.Name)
		}
		s.Textures = append(s.Textures, t)
	}
	for _, c := range a.reg.CubeMaps() {
		s.CubeMaps = append(s.CubeMaps, c.Name)
	}
	for _, c := range a.reg.HDRCubeMaps() {
		s.HDRCubeMaps = append(s.HDRCubeMaps, c.Name)
	}
	for _, h := range a.reg.HDRIs() {
		s.HDRIs = append(s.HDRIs, h.Name)
	}
	for _, f := range a.reg.Fonts() {
		s.Fonts = append(s.Fonts, f.Name)
	}
	for _, au := range a.reg.Audios() {
		s.Audios = append(s.Audios, au.Name)
	}
	s.Bindings = a.reg.Len()
	return s
}
