package registry

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"render-assets/animation"
	"render-assets/scene"
)

func (r *Registry) warnMissing(c Category, name string) {
	r.log.WithFields(logrus.Fields{"asset": name, "category": c}).Warn("dispose: asset not found")
}

// checkBinding confirms id and name are bound to each other.
func (r *Registry) checkBinding(id Identity, name string) error {
	if got, ok := r.idToName[id]; !ok || got != name {
		return fmt.Errorf("%w: %q is not bound to identity %d", ErrCorrupt, name, id)
	}
	return nil
}

func (r *Registry) checkFamily(rec *ModelRecord) error {
	if err := r.checkBinding(rec.Source.ID, rec.Source.Name); err != nil {
		return err
	}
	for _, k := range CloneKinds {
		for name, c := range rec.clones[k] {
			if err := r.checkBinding(c.ID, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// teardown releases one model instance: it is detached, its playback is
// stopped and flushed, and every geometry, material, skeleton and texture
// that no other tracked instance or tracked scene needs is released.
// Registry-owned textures are left to their own records.
func (r *Registry) teardown(id Identity, node *scene.Node, pb *animation.Playback) {
	node.RemoveFromParent()
	pb.Dispose()

	orph := r.index.remove(id)
	for _, m := range orph.materials {
		m.Textures(func(_ scene.TextureSlot, t *scene.Texture) {
			if r.Owns(t) || r.index.textureInUse(t) || r.usedByTrackedScene(t) {
				return
			}
			t.Dispose(r.releaser)
		})
		m.Dispose(r.releaser)
	}
	for _, g := range orph.geometries {
		g.Dispose(r.releaser)
	}
	for _, s := range orph.skeletons {
		s.Dispose()
	}
	node.Traverse(func(n *scene.Node) {
		n.UserData = nil
	})
}

// DisposeSourceModel disposes the model named name together with every
// clone of every kind. A missing name is logged and ignored.
func (r *Registry) DisposeSourceModel(name string) error {
	rec, ok := r.models[name]
	if !ok {
		r.warnMissing(CategoryModel, name)
		return nil
	}
	if err := r.checkFamily(rec); err != nil {
		return err
	}
	rec.state = Disposing
	delete(r.models, name)

	clones := 0
	for _, k := range CloneKinds {
		for _, cname := range sortedKeys(rec.clones[k]) {
			c := rec.clones[k][cname]
			delete(rec.clones[k], cname)
			r.teardown(c.ID, c.Node, c.Playback)
			c.Playback = nil
			if err := r.unbind(c.ID, cname); err != nil {
				return err
			}
			clones++
		}
	}
	r.teardown(rec.Source.ID, rec.Source.Node, rec.Source.Playback)
	rec.Source.Playback = nil
	if err := r.unbind(rec.Source.ID, name); err != nil {
		return err
	}
	rec.state = Removed
	r.log.WithFields(logrus.Fields{"asset": name, "clones": clones}).Info("model disposed")
	return r.checked(nil)
}

// DisposeClone disposes exactly one model clone. Its source and siblings
// are untouched.
func (r *Registry) DisposeClone(name string) error {
	rf, ok := r.refs[name]
	if !ok {
		r.warnMissing(CategoryModel, name)
		return nil
	}
	if rf.category != CategoryModel || !rf.clone {
		return fmt.Errorf("%w: %q is not a model clone", ErrInvalidArgument, name)
	}
	rec, ok := r.models[rf.base]
	if !ok {
		return fmt.Errorf("%w: clone %q has no source %q", ErrCorrupt, name, rf.base)
	}
	c, ok := rec.clones[rf.kind][name]
	if !ok {
		return fmt.Errorf("%w: clone %q is bound but missing from %q", ErrCorrupt, name, rf.base)
	}
	if err := r.checkBinding(c.ID, name); err != nil {
		return err
	}
	delete(rec.clones[rf.kind], name)
	r.teardown(c.ID, c.Node, c.Playback)
	c.Playback = nil
	if err := r.unbind(c.ID, name); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"asset": name, "kind": c.Kind}).Info("clone disposed")
	return r.checked(nil)
}

// DisposeModelsByScene disposes what root holds: a model family whose
// source is attached under root goes entirely, otherwise only the clones
// attached under root go. Textures used under root are handled afterwards
// by DisposeTexturesByScene.
func (r *Registry) DisposeModelsByScene(root *scene.Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidArgument)
	}
	used := make(map[*scene.Texture]bool)
	var errs []error
	for _, name := range sortedKeys(r.models) {
		rec, ok := r.models[name]
		if !ok {
			continue
		}
		if IsReachable(rec.Source.Node, root) {
			r.ownedTexturesUnder(rec.Source.Node, used)
			for _, c := range rec.AllClones() {
				if IsReachable(c.Node, root) {
					r.ownedTexturesUnder(c.Node, used)
				}
			}
			errs = append(errs, r.DisposeSourceModel(name))
			continue
		}
		for _, c := range rec.AllClones() {
			if IsReachable(c.Node, root) {
				r.ownedTexturesUnder(c.Node, used)
				errs = append(errs, r.DisposeClone(c.Name))
			}
		}
	}
	errs = append(errs, r.disposeTexturesByScene(root, used))
	return errors.Join(errs...)
}

// DisposeTexturesByScene disposes the texture clones, and then the sources,
// used under root by tracked models or any other renderable. Textures not
// used under root, or still needed outside it, are left alone.
func (r *Registry) DisposeTexturesByScene(root *scene.Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidArgument)
	}
	return r.disposeTexturesByScene(root, nil)
}

func (r *Registry) disposeTexturesByScene(root *scene.Node, used map[*scene.Texture]bool) error {
	inUse := func(t *scene.Texture) bool {
		return used[t] || r.textureUsedUnder(root, t)
	}
	var errs []error
	for _, name := range sortedKeys(r.textures) {
		rec, ok := r.textures[name]
		if !ok {
			continue
		}
		sourceUsed := inUse(rec.Source.Texture)

		var usedClones []*TextureEntry
		for _, c := range rec.Clones() {
			if inUse(c.Texture) {
				usedClones = append(usedClones, c)
			}
		}
		for _, c := range usedClones {
			if r.textureUsedElsewhere(root, c.Texture) {
				r.log.WithField("asset", c.Name).Warn("texture still used outside the disposed root; kept")
				continue
			}
			if err := r.DisposeCloneTexture(c.Name); err != nil {
				errs = append(errs, err)
				continue
			}
			clearTextureUnder(root, c.Texture)
		}
		if !sourceUsed {
			continue
		}
		if r.familyUsedElsewhere(root, rec) {
			r.log.WithField("asset", name).Warn("texture still used outside the disposed root; kept")
			continue
		}
		family := []*scene.Texture{rec.Source.Texture}
		for _, c := range rec.Clones() {
			family = append(family, c.Texture)
		}
		if err := r.DisposeSourceTexture(name); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, t := range family {
			clearTextureUnder(root, t)
		}
	}
	return errors.Join(errs...)
}

// clearTextureUnder empties every material slot below root that still holds
// tex. Renderables the registry does not track are only reachable this way.
func clearTextureUnder(root *scene.Node, tex *scene.Texture) {
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		for _, m := range n.Mesh.Materials {
			if m == nil || !m.Uses(tex) {
				continue
			}
			for _, slot := range scene.TextureSlots {
				if m.Texture(slot) == tex {
					m.SetTexture(slot, nil)
				}
			}
		}
	})
}

// familyUsedElsewhere reports whether the source or any remaining clone of
// rec is needed outside root.
func (r *Registry) familyUsedElsewhere(root *scene.Node, rec *TextureRecord) bool {
	if r.textureUsedElsewhere(root, rec.Source.Texture) {
		return true
	}
	for _, c := range rec.clones {
		if r.textureUsedElsewhere(root, c.Texture) {
			return true
		}
	}
	return false
}

// detachTexture clears every tracked reference to tex so nothing renders a
// released texture.
func (r *Registry) detachTexture(tex *scene.Texture) {
	cleared := 0
	for _, m := range r.index.materialsUsing(tex) {
		for _, slot := range scene.TextureSlots {
			if m.Texture(slot) == tex {
				m.SetTexture(slot, nil)
				cleared++
			}
		}
	}
	for _, s := range r.scenes {
		if s.ClearTexture(tex) {
			cleared++
		}
	}
	if cleared > 0 {
		r.log.WithFields(logrus.Fields{"texture": tex.Name, "references": cleared}).Debug("texture references cleared")
	}
}

func (r *Registry) releaseTexture(tex *scene.Texture) {
	r.detachTexture(tex)
	tex.Dispose(r.releaser)
	delete(r.owned, tex)
}

// DisposeSourceTexture disposes the texture named name and all its clones.
func (r *Registry) DisposeSourceTexture(name string) error {
	rec, ok := r.textures[name]
	if !ok {
		r.warnMissing(CategoryTexture, name)
		return nil
	}
	if err := r.checkBinding(rec.Source.ID, name); err != nil {
		return err
	}
	for cname, c := range rec.clones {
		if err := r.checkBinding(c.ID, cname); err != nil {
			return err
		}
	}
	rec.state = Disposing
	delete(r.textures, name)
	for _, cname := range sortedKeys(rec.clones) {
		c := rec.clones[cname]
		delete(rec.clones, cname)
		r.releaseTexture(c.Texture)
		if err := r.unbind(c.ID, cname); err != nil {
			return err
		}
	}
	r.releaseTexture(rec.Source.Texture)
	if err := r.unbind(rec.Source.ID, name); err != nil {
		return err
	}
	rec.state = Removed
	r.log.WithField("asset", name).Info("texture disposed")
	return r.checked(nil)
}

// DisposeCloneTexture disposes a single texture clone.
func (r *Registry) DisposeCloneTexture(name string) error {
	rf, ok := r.refs[name]
	if !ok {
		r.warnMissing(CategoryTexture, name)
		return nil
	}
	if rf.category != CategoryTexture || !rf.clone {
		return fmt.Errorf("%w: %q is not a texture clone", ErrInvalidArgument, name)
	}
	rec, ok := r.textures[rf.base]
	if !ok {
		return fmt.Errorf("%w: texture clone %q has no source %q", ErrCorrupt, name, rf.base)
	}
	c, ok := rec.clones[name]
	if !ok {
		return fmt.Errorf("%w: texture clone %q is bound but missing from %q", ErrCorrupt, name, rf.base)
	}
	if err := r.checkBinding(c.ID, name); err != nil {
		return err
	}
	delete(rec.clones, name)
	r.releaseTexture(c.Texture)
	if err := r.unbind(c.ID, name); err != nil {
		return err
	}
	r.log.WithField("asset", name).Info("texture clone disposed")
	return r.checked(nil)
}

// DisposeAllTextures disposes every texture record.
func (r *Registry) DisposeAllTextures() error {
	var errs []error
	for _, name := range sortedKeys(r.textures) {
		errs = append(errs, r.DisposeSourceTexture(name))
	}
	return errors.Join(errs...)
}

// DisposeCubeMap releases a cube map after clearing tracked scenes that
// show it.
func (r *Registry) DisposeCubeMap(name string) error {
	return r.disposeCube(r.cubeMaps, CategoryCubeMap, name, nil)
}

func (r *Registry) DisposeHDRCubeMap(name string) error {
	return r.disposeCube(r.hdrCubeMaps, CategoryHDRCubeMap, name, nil)
}

// disposeCube releases a cube record. s, when not nil, is cleared along with
// the tracked scenes.
func (r *Registry) disposeCube(m map[string]*CubeMapRecord, c Category, name string, s *scene.Scene) error {
	rec, ok := m[name]
	if !ok {
		r.warnMissing(c, name)
		return nil
	}
	if err := r.checkBinding(rec.ID, name); err != nil {
		return err
	}
	delete(m, name)
	if s != nil {
		s.ClearCubeTexture(rec.Cube)
	}
	for _, ts := range r.scenes {
		ts.ClearCubeTexture(rec.Cube)
	}
	rec.Cube.Dispose(r.releaser)
	for _, f := range rec.Cube.Faces {
		if f != nil {
			r.releaseTexture(f)
		}
	}
	if err := r.unbind(rec.ID, name); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"asset": name, "category": c}).Info("cube map disposed")
	return r.checked(nil)
}

// DisposeHDRI releases both textures of an HDRI record. The given scene and
// every tracked scene first lose any background or environment pointing at
// either texture. s may be nil.
func (r *Registry) DisposeHDRI(name string, s *scene.Scene) error {
	rec, ok := r.hdris[name]
	if !ok {
		r.warnMissing(CategoryHDRI, name)
		return nil
	}
	if err := r.checkBinding(rec.ID, name); err != nil {
		return err
	}
	delete(r.hdris, name)
	if s != nil {
		s.ClearTexture(rec.Environment)
		s.ClearTexture(rec.Original)
	}
	r.releaseTexture(rec.Environment)
	r.releaseTexture(rec.Original)
	if err := r.unbind(rec.ID, name); err != nil {
		return err
	}
	r.log.WithField("asset", name).Info("hdri disposed")
	return r.checked(nil)
}

// DisposeFont forgets a font.
func (r *Registry) DisposeFont(name string) error {
	rec, ok := r.fonts[name]
	if !ok {
		r.warnMissing(CategoryFont, name)
		return nil
	}
	if err := r.checkBinding(rec.ID, name); err != nil {
		return err
	}
	delete(r.fonts, name)
	if err := r.unbind(rec.ID, name); err != nil {
		return err
	}
	r.log.WithField("asset", name).Info("font disposed")
	return r.checked(nil)
}

// DisposeAudio stops the source, detaches it, drops its buffer and tears
// its playback chain down.
func (r *Registry) DisposeAudio(name string) error {
	rec, ok := r.audios[name]
	if !ok {
		r.warnMissing(CategoryAudio, name)
		return nil
	}
	if err := r.checkBinding(rec.ID, name); err != nil {
		return err
	}
	delete(r.audios, name)
	src := rec.Source
	src.Stop()
	src.Node.RemoveFromParent()
	src.SetBuffer(nil)
	src.Disconnect()
	if err := r.unbind(rec.ID, name); err != nil {
		return err
	}
	r.log.WithField("asset", name).Info("audio disposed")
	return r.checked(nil)
}

// DisposeEverything tears the registry down: models, textures, audio, cube
// maps, HDR cube maps, HDRIs and fonts, in that order, then clears the
// identity maps. s may be nil.
func (r *Registry) DisposeEverything(s *scene.Scene) error {
	var errs []error
	for _, name := range sortedKeys(r.models) {
		errs = append(errs, r.DisposeSourceModel(name))
	}
	errs = append(errs, r.DisposeAllTextures())
	for _, name := range sortedKeys(r.audios) {
		errs = append(errs, r.DisposeAudio(name))
	}
	for _, name := range sortedKeys(r.cubeMaps) {
		errs = append(errs, r.disposeCube(r.cubeMaps, CategoryCubeMap, name, s))
	}
	for _, name := range sortedKeys(r.hdrCubeMaps) {
		errs = append(errs, r.disposeCube(r.hdrCubeMaps, CategoryHDRCubeMap, name, s))
	}
	for _, name := range sortedKeys(r.hdris) {
		errs = append(errs, r.DisposeHDRI(name, s))
	}
	for _, name := range sortedKeys(r.fonts) {
		errs = append(errs, r.DisposeFont(name))
	}
	if n := len(r.nameToID); n > 0 {
		r.log.WithField("names", n).Warn("identity bindings left after full teardown")
	}
	clear(r.idToName)
	clear(r.nameToID)
	clear(r.refs)
	clear(r.owned)
	r.log.Info("all assets disposed")
	return errors.Join(errs...)
}
