package search

import "container/heap"

type entry struct {
	primary   float64
	secondary float64
	seq       uint64
	ns        *NodeState
}

// frontier is a min-heap of NodeStates. Entries are never updated in place:
// an improved NodeState is pushed again and the stale entry is skipped once
// the NodeState is closed.
type frontier struct {
	entries entryHeap
	seq     uint64
}

func (f *frontier) push(primary, secondary float64, ns *NodeState) {
	f.seq++
	heap.Push(&f.entries, entry{primary: primary, secondary: secondary, seq: f.seq, ns: ns})
}

// dropClosed discards stale entries from the top.
func (f *frontier) dropClosed() {
	for len(f.entries) > 0 && f.entries[0].ns.closed {
		heap.Pop(&f.entries)
	}
}

func (f *frontier) empty() bool {
	f.dropClosed()
	return len(f.entries) == 0
}

func (f *frontier) peek() entry { return f.entries[0] }

func (f *frontier) pop() entry { return heap.Pop(&f.entries).(entry) }

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.primary != b.primary {
		return a.primary < b.primary
	}

	if a.secondary != b.secondary {
		return a.secondary < b.secondary
	}

	return a.seq < b.seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]

	return e
}
