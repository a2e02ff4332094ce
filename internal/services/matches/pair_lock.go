package matches

import (
	"sync"

	"github.com/ivankudzin/commitdating/internal/domain/model"
)

const pairLockStripes = 64

// pairLocks serializes work on an unordered user pair. Unrelated pairs may
// share a stripe, which only costs some parallelism.
type pairLocks struct {
	stripes [pairLockStripes]sync.Mutex
}

func newPairLocks() *pairLocks {
	return &pairLocks{}
}

func (p *pairLocks) lock(a, b int64) func() {
	lo, hi := model.OrderedPair(a, b)
	h := uint64(lo)*0x9E3779B97F4A7C15 ^ uint64(hi)
	mu := &p.stripes[h%pairLockStripes]
	mu.Lock()
	return mu.Unlock
}
