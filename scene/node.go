package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"render-assets/core"
)

// Node is one element of a scene graph. Model roots, skeleton bones and the
// audio listener are all nodes.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	Id        uint32

	// UserData carries application values attached to the node. It is
	// dropped when the owning asset is disposed.
	UserData map[string]any

	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

// Loaders build nodes from several goroutines at once.
var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Visible:          true,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

// AddChild attaches child to n, detaching it from its previous parent first.
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.InvalidateWorld()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.InvalidateWorld()
			return
		}
	}
}

// RemoveFromParent detaches n from its parent, if it has one.
func (n *Node) RemoveFromParent() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// IsDescendantOf reports whether n sits strictly beneath root, following
// parent pointers. A node is not its own descendant.
func (n *Node) IsDescendantOf(root *Node) bool {
	if n == nil || root == nil {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// WorldMatrix composes the local transforms from the root down to n. The
// result is cached until n or one of its ancestors moves.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if !n.worldMatrixDirty {
		return n.worldMatrix
	}
	local := n.Transform.GetMatrix()
	if n.Parent != nil {
		local = n.Parent.WorldMatrix().Mul4(local)
	}
	n.worldMatrix = local
	n.worldMatrixDirty = false
	return local
}

// WorldPosition returns the translation column of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// InvalidateWorld drops the cached world matrix of n and its subtree.
func (n *Node) InvalidateWorld() {
	n.walk(func(c *Node) bool {
		c.worldMatrixDirty = true
		return true
	})
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.InvalidateWorld()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.InvalidateWorld()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.InvalidateWorld()
}

// walk visits n and its subtree depth first until fn returns false. It
// reports whether the walk ran to completion.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Traverse calls fn for n and every node below it, parents first.
func (n *Node) Traverse(fn func(*Node)) {
	n.walk(func(c *Node) bool {
		fn(c)
		return true
	})
}

// Find returns the first node named name in depth-first order, n included.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}
