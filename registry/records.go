package registry

import (
	"cmp"
	"slices"

	"golang.org/x/image/font/sfnt"

	"render-assets/animation"
	"render-assets/audio"
	"render-assets/scene"
)

// Category is the asset family a record belongs to.
type Category uint8

const (
	CategoryModel Category = iota + 1
	CategoryTexture
	CategoryCubeMap
	CategoryHDRCubeMap
	CategoryHDRI
	CategoryFont
	CategoryAudio
)

func (c Category) String() string {
	switch c {
	case CategoryModel:
		return "model"
	case CategoryTexture:
		return "texture"
	case CategoryCubeMap:
		return "cubeMap"
	case CategoryHDRCubeMap:
		return "hdrCubeMap"
	case CategoryHDRI:
		return "hdri"
	case CategoryFont:
		return "font"
	case CategoryAudio:
		return "audio"
	}
	return "unknown"
}

// State is the lifecycle position of a record.
type State uint8

const (
	Registered State = iota
	Disposing
	Removed
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Disposing:
		return "disposing"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// ref describes what a bound name points at.
type ref struct {
	category Category
	base     string
	kind     CloneKind
	clone    bool
	ordinal  int
}

// ModelData is what a loader hands over for a decoded model.
type ModelData struct {
	Name  string
	Node  *scene.Node
	Clips []*animation.Clip
}

// SourceModel is the first-loaded instance of a model.
type SourceModel struct {
	ID       Identity
	Name     string
	Node     *scene.Node
	Clips    []*animation.Clip
	Playback *animation.Playback
}

// CloneRecord is one derived copy of a source model.
type CloneRecord struct {
	ID         Identity
	ParentID   Identity
	ParentName string
	Name       string
	Kind       CloneKind
	Ordinal    int
	Node       *scene.Node
	Playback   *animation.Playback
}

// Key returns the explicit key of the clone.
func (c *CloneRecord) Key() ModelKey {
	return ModelKey{Base: c.ParentName, Kind: c.Kind, Ordinal: c.Ordinal}
}

// ModelRecord groups a source model with all of its clones. The counters
// only ever grow; they seed the ordinal of the next clone of each kind.
type ModelRecord struct {
	Source             SourceModel
	DeepCloneCount     int
	ShallowCloneCount  int
	SkeletonCloneCount int

	clones map[CloneKind]map[string]*CloneRecord
	state  State
}

func newModelRecord(src SourceModel) *ModelRecord {
	rec := &ModelRecord{
		Source: src,
		clones: make(map[CloneKind]map[string]*CloneRecord, len(CloneKinds)),
	}
	for _, k := range CloneKinds {
		rec.clones[k] = make(map[string]*CloneRecord)
	}
	return rec
}

func (m *ModelRecord) State() State { return m.state }

func (m *ModelRecord) counter(kind CloneKind) *int {
	switch kind {
	case DeepClone:
		return &m.DeepCloneCount
	case ShallowClone:
		return &m.ShallowCloneCount
	case SkeletonClone:
		return &m.SkeletonCloneCount
	}
	return nil
}

// Clones returns the live clones of kind ordered by ordinal.
func (m *ModelRecord) Clones(kind CloneKind) []*CloneRecord {
	out := make([]*CloneRecord, 0, len(m.clones[kind]))
	for _, c := range m.clones[kind] {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *CloneRecord) int { return cmp.Compare(a.Ordinal, b.Ordinal) })
	return out
}

// AllClones returns every live clone, deep first, then shallow, then skeleton.
func (m *ModelRecord) AllClones() []*CloneRecord {
	var out []*CloneRecord
	for _, k := range CloneKinds {
		out = append(out, m.Clones(k)...)
	}
	return out
}

// Clone looks a clone up by its derived name.
func (m *ModelRecord) Clone(name string) (*CloneRecord, bool) {
	for _, k := range CloneKinds {
		if c, ok := m.clones[k][name]; ok {
			return c, true
		}
	}
	return nil, false
}

// NextOrdinal is the ordinal the next clone of kind will get.
func (m *ModelRecord) NextOrdinal(kind CloneKind) int {
	if p := m.counter(kind); p != nil {
		return *p
	}
	return 0
}

// CloneCount reports how many clones of kind are live.
func (m *ModelRecord) CloneCount(kind CloneKind) int {
	return len(m.clones[kind])
}

// TextureEntry is a single GPU texture tracked by the registry, either a
// source or a clone.
type TextureEntry struct {
	ID      Identity
	Name    string
	Ordinal int
	Texture *scene.Texture
}

// TextureRecord groups a source texture with its clones. CloneCount only
// grows; clone ordinals start at one.
type TextureRecord struct {
	Source     TextureEntry
	CloneCount int

	clones map[string]*TextureEntry
	state  State
}

func (t *TextureRecord) State() State { return t.state }

// Clones returns the live texture clones ordered by ordinal.
func (t *TextureRecord) Clones() []*TextureEntry {
	out := make([]*TextureEntry, 0, len(t.clones))
	for _, c := range t.clones {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *TextureEntry) int { return cmp.Compare(a.Ordinal, b.Ordinal) })
	return out
}

func (t *TextureRecord) Clone(name string) (*TextureEntry, bool) {
	c, ok := t.clones[name]
	return c, ok
}

// CubeMapRecord tracks a cube map or an HDR cube map.
type CubeMapRecord struct {
	ID   Identity
	Name string
	Cube *scene.CubeTexture
}

// HDRIRecord tracks an equirectangular HDR image: Environment is the
// filtered map used for lighting, Original the texture shown as background.
type HDRIRecord struct {
	ID          Identity
	Name        string
	Environment *scene.Texture
	Original    *scene.Texture
}

type FontRecord struct {
	ID   Identity
	Name string
	Font *sfnt.Font
}

type AudioRecord struct {
	ID     Identity
	Name   string
	Source *audio.Source
}
