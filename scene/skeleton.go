package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Skeleton binds a skinned mesh to its bone nodes. BoneInverses[i] is the
// inverse bind matrix of Bones[i].
type Skeleton struct {
	Bones        []*Node
	BoneInverses []mgl32.Mat4

	disposed bool
}

func NewSkeleton(bones []*Node, inverses []mgl32.Mat4) *Skeleton {
	if inverses == nil {
		inverses = make([]mgl32.Mat4, len(bones))
		for i := range inverses {
			inverses[i] = mgl32.Ident4()
		}
	}
	return &Skeleton{Bones: bones, BoneInverses: inverses}
}

// BoneMatrices returns world * inverseBind for every bone.
func (s *Skeleton) BoneMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		out[i] = b.WorldMatrix().Mul4(s.BoneInverses[i])
	}
	return out
}

// Dispose drops the bone bindings. Bones themselves belong to the node tree.
func (s *Skeleton) Dispose() {
	if s == nil || s.disposed {
		return
	}
	s.BoneInverses = nil
	s.Bones = nil
	s.disposed = true
}

func (s *Skeleton) Disposed() bool {
	return s.disposed
}
