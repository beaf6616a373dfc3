package bpu

// lruInfo tracks per-set recency order across ways, so CacheTagArray can
// pick an eviction victim on write and promote a way to most-recently-used
// on a read hit. The original cache_tag_array.cpp leaves LRUInfo's own
// implementation out of the retrieved source; this is a standard
// recency-stack implementation of the same "lru->update(set)" /
// "lru->update(set, way)" contract its call sites rely on.
type lruInfo struct {
	ways       uint64
	setsPerWay uint64
	// order[set] lists ways from least-recently-used to most-recently-used.
	order [][]uint64
}

func newLRUInfo(ways, setsPerWay uint64) *lruInfo {
	order := make([][]uint64, setsPerWay)
	for s := range order {
		order[s] = make([]uint64, ways)
		for w := uint64(0); w < ways; w++ {
			order[s][w] = w
		}
	}

	return &lruInfo{ways: ways, setsPerWay: setsPerWay, order: order}
}

// touch promotes way to most-recently-used within set.
func (l *lruInfo) touch(set, way uint64) {
	ord := l.order[set]
	for i, w := range ord {
		if w == way {
			ord = append(ord[:i], ord[i+1:]...)
			break
		}
	}

	l.order[set] = append(ord, way)
}

// victim returns the least-recently-used way in set and promotes it to
// most-recently-used, matching the allocate-on-write semantics of
// CacheTagArray::write.
func (l *lruInfo) victim(set uint64) uint64 {
	way := l.order[set][0]
	l.touch(set, way)

	return way
}
