package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityGeneratorUniqueUnderConcurrency(t *testing.T) {
	g := NewIdentityGenerator()
	const workers, per = 8, 500

	var mu sync.Mutex
	seen := make(map[Identity]bool, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Identity, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				assert.False(t, seen[id], "duplicate identity %d", id)
				seen[id] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*per)
}

func TestIdentityGeneratorSeed(t *testing.T) {
	g := NewIdentityGeneratorFrom(41)
	assert.Equal(t, Identity(42), g.Next())
	assert.Equal(t, "43", g.Next().String())
}

func TestParseModelName(t *testing.T) {
	tests := []struct {
		name string
		want ModelKey
	}{
		{"car", SourceKey("car")},
		{"carShallowClone0", ModelKey{Base: "car", Kind: ShallowClone, Ordinal: 0}},
		{"carDeepClone12", ModelKey{Base: "car", Kind: DeepClone, Ordinal: 12}},
		{"heroSkeletonClone3", ModelKey{Base: "hero", Kind: SkeletonClone, Ordinal: 3}},
		{"DeepClone1", SourceKey("DeepClone1")},
		{"carDeepClone", SourceKey("carDeepClone")},
		{"carDeepClone01", SourceKey("carDeepClone01")},
		{"carDeepClone1x", SourceKey("carDeepClone1x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseModelName(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.Name())
		})
	}
}

func TestParseTextureName(t *testing.T) {
	assert.Equal(t, TextureKey{Base: "wall", Clone: true, Ordinal: 2}, ParseTextureName("wallTexture2"))
	assert.Equal(t, TextureSourceKey("wall"), ParseTextureName("wall"))
	assert.Equal(t, TextureSourceKey("Texture1"), ParseTextureName("Texture1"))
	assert.True(t, LooksLikeClone("brickTexture7"))
	assert.False(t, LooksLikeClone("brick"))
}

func TestParseCloneKind(t *testing.T) {
	k, ok := ParseCloneKind("shallow")
	assert.True(t, ok)
	assert.Equal(t, ShallowClone, k)

	k, ok = ParseCloneKind("SkeletonClone")
	assert.True(t, ok)
	assert.Equal(t, SkeletonClone, k)

	_, ok = ParseCloneKind("mirror")
	assert.False(t, ok)
}
