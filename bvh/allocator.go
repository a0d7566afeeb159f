package bvh

// resultAllocator hands out CollisionResult records from chunks it never releases. Freed records
// go back on a singly linked free chain threaded through their next pointers, so every record is
// either on exactly one result list or on the free chain.
type resultAllocator struct {
	chunkSize int
	chunks    [][]CollisionResult
	free      *CollisionResult
	capacity  int
	available int
}

func newResultAllocator(initialSize, chunkSize int) *resultAllocator {
	a := &resultAllocator{chunkSize: chunkSize}
	if initialSize > 0 {
		a.grow(initialSize)
	}
	return a
}

func (a *resultAllocator) grow(n int) {
	chunk := make([]CollisionResult, n)
	for i := range chunk {
		chunk[i].next = a.free
		a.free = &chunk[i]
	}
	a.chunks = append(a.chunks, chunk)
	a.capacity += n
	a.available += n
}

// allocate returns a zeroed record.
func (a *resultAllocator) allocate() *CollisionResult {
	if a.free == nil {
		a.grow(a.chunkSize)
	}
	r := a.free
	a.free = r.next
	a.available--
	*r = CollisionResult{}
	return r
}

func (a *resultAllocator) deallocate(r *CollisionResult) {
	*r = CollisionResult{next: a.free}
	a.free = r
	a.available++
}

// PoolStats reports the result allocator's occupancy.
type PoolStats struct {
	Capacity int
	Free     int
}

func (a *resultAllocator) stats() PoolStats {
	return PoolStats{Capacity: a.capacity, Free: a.available}
}
