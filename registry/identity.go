package registry

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Identity is the process-unique number assigned to every tracked record.
type Identity uint64

func (id Identity) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IdentityGenerator hands out identities from an atomic counter seeded with
// the session start time, so identities from different sessions rarely
// overlap. Safe for concurrent use.
type IdentityGenerator struct {
	next atomic.Uint64
}

// NewIdentityGenerator seeds the counter from the current time.
func NewIdentityGenerator() *IdentityGenerator {
	return NewIdentityGeneratorFrom(uint64(time.Now().UnixMilli()) << 16)
}

// NewIdentityGeneratorFrom starts counting after seed.
func NewIdentityGeneratorFrom(seed uint64) *IdentityGenerator {
	g := &IdentityGenerator{}
	g.next.Store(seed)
	return g
}

// Next returns an identity never returned before by g.
func (g *IdentityGenerator) Next() Identity {
	return Identity(g.next.Add(1))
}
