package registry

import (
	"strconv"
	"strings"
)

// CloneKind distinguishes a source model from its three clone flavours.
type CloneKind uint8

const (
	Source CloneKind = iota
	DeepClone
	ShallowClone
	SkeletonClone
)

// CloneKinds lists the clone flavours in disposal order.
var CloneKinds = [...]CloneKind{DeepClone, ShallowClone, SkeletonClone}

func (k CloneKind) String() string {
	switch k {
	case Source:
		return "Source"
	case DeepClone:
		return "DeepClone"
	case ShallowClone:
		return "ShallowClone"
	case SkeletonClone:
		return "SkeletonClone"
	}
	return "CloneKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseCloneKind maps a kind name back to its value.
func ParseCloneKind(s string) (CloneKind, bool) {
	for _, k := range CloneKinds {
		if strings.EqualFold(s, k.String()) || strings.EqualFold(s, strings.TrimSuffix(k.String(), "Clone")) {
			return k, true
		}
	}
	return Source, false
}

// ModelKey addresses a model source or one of its clones explicitly.
type ModelKey struct {
	Base    string
	Kind    CloneKind
	Ordinal int
}

// SourceKey addresses the source record named name.
func SourceKey(name string) ModelKey {
	return ModelKey{Base: name}
}

func (k ModelKey) IsClone() bool {
	return k.Kind != Source
}

// Name renders the key as a registered name: the base for sources,
// base+Kind+ordinal for clones.
func (k ModelKey) Name() string {
	if !k.IsClone() {
		return k.Base
	}
	return k.Base + k.Kind.String() + strconv.Itoa(k.Ordinal)
}

func (k ModelKey) String() string { return k.Name() }

const textureCloneTag = "Texture"

// TextureKey addresses a texture source or one of its clones explicitly.
type TextureKey struct {
	Base    string
	Clone   bool
	Ordinal int
}

func TextureSourceKey(name string) TextureKey {
	return TextureKey{Base: name}
}

func (k TextureKey) Name() string {
	if !k.Clone {
		return k.Base
	}
	return k.Base + textureCloneTag + strconv.Itoa(k.Ordinal)
}

func (k TextureKey) String() string { return k.Name() }

// ParseModelName splits name into a model key by matching a trailing
// <Kind><ordinal> suffix. The match is purely syntactic: a source whose own
// name ends in such a suffix is read as a clone, so source names must not
// end that way.
func ParseModelName(name string) ModelKey {
	for _, k := range CloneKinds {
		if base, ord, ok := splitSuffix(name, k.String()); ok {
			return ModelKey{Base: base, Kind: k, Ordinal: ord}
		}
	}
	return SourceKey(name)
}

// ParseTextureName is the texture counterpart of ParseModelName, matching a
// trailing Texture<ordinal>.
func ParseTextureName(name string) TextureKey {
	if base, ord, ok := splitSuffix(name, textureCloneTag); ok {
		return TextureKey{Base: base, Clone: true, Ordinal: ord}
	}
	return TextureSourceKey(name)
}

// LooksLikeClone reports whether name would be parsed as a clone of any kind.
func LooksLikeClone(name string) bool {
	return ParseModelName(name).IsClone() || ParseTextureName(name).Clone
}

// splitSuffix matches name against base+tag+digits with a non-empty base and
// a canonical decimal ordinal.
func splitSuffix(name, tag string) (string, int, bool) {
	i := strings.LastIndex(name, tag)
	if i <= 0 {
		return "", 0, false
	}
	digits := name[i+len(tag):]
	if digits == "" {
		return "", 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", 0, false
		}
	}
	ord, err := strconv.Atoi(digits)
	if err != nil || strconv.Itoa(ord) != digits {
		return "", 0, false
	}
	return name[:i], ord, true
}
