package mutate

import (
	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/pkg/rng"
)

// reservoir keeps up to k proposals drawn uniformly from a stream of
// unknown length in O(k) memory. The first k proposals fill the slots;
// proposal i > k overwrites the slot drawn uniformly from [0, i) iff that
// slot index is below k. The kept set is distributed as a uniform sample
// without replacement over the whole stream.
type reservoir struct {
	rand  *rng.Rand
	slots []core.Value
	n     int
}

func newReservoir(rand *rng.Rand, k int) *reservoir {
	return &reservoir{rand: rand, slots: make([]core.Value, 0, k)}
}

func (r *reservoir) offer(v core.Value) {
	r.n++
	if len(r.slots) < cap(r.slots) {
		r.slots = append(r.slots, v)
		return
	}
	j := r.rand.Intn(r.n)
	if j < len(r.slots) {
		r.slots[j] = v
	}
}

// count returns how many proposals have been offered so far.
func (r *reservoir) count() int { return r.n }

// values returns the sampled proposals.
func (r *reservoir) values() []core.Value {
	out := make([]core.Value, len(r.slots))
	copy(out, r.slots)
	return out
}
