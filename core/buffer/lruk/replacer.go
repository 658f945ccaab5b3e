// Package lruk implements the LRU-K eviction policy: a tracked frame's
// K-distance is infinite until it has been accessed K times (tie-broken by
// earliest first access), and the backward distance to its K-th most recent
// access afterward (tie-broken by smallest such timestamp).
package lruk

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/sushant-115/pagecore/core/storage/dberrors"
	"github.com/sushant-115/pagecore/core/storage/page"
)

// node is the per-frame access history. history holds up to k-1 recorded
// timestamps while the frame has fewer than k accesses; once it reaches k,
// the frame moves into the buffered bucket and history holds exactly the
// last k accesses (oldest first), so history[0] is the k-th-most-recent.
type node struct {
	frame     page.FrameID
	history   []int64
	evictable bool

	// elem is this node's element in whichever of the replacer's two lists
	// currently holds it (history or buffered), or nil if untracked.
	elem *list.Element
	list *list.List
}

func (n *node) buffered(k int) bool { return len(n.history) >= k }

func (n *node) recordAccess(ts int64, k int) {
	n.history = append(n.history, ts)
	if len(n.history) > k {
		n.history = n.history[len(n.history)-k:]
	}
}

// Replacer tracks one node per frame ever touched and picks an evict victim
// under the LRU-K policy. All operations take a single internal latch.
type Replacer struct {
	mu sync.Mutex

	capacity int
	k        int
	ts       int64

	history  *list.List // elements are *node, ordered by first-access time
	buffered *list.List // elements are *node, ordered by k-th-most-recent time
	nodes    map[page.FrameID]*node

	currSize int
}

// New constructs a replacer for a pool of numFrames frames using a history
// depth of k.
func New(numFrames, k int) *Replacer {
	return &Replacer{
		capacity: numFrames,
		k:        k,
		history:  list.New(),
		buffered: list.New(),
		nodes:    make(map[page.FrameID]*node),
	}
}

// RecordAccess assigns a fresh logical timestamp and appends it to frame_id's
// history, creating its node on first sight. Returns ErrInvalidFrameID if
// frame_id is outside [0, capacity).
func (r *Replacer) RecordAccess(frameID page.FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(frameID) >= r.capacity || frameID < 0 {
		return fmt.Errorf("%w: frame %d, capacity %d", dberrors.ErrInvalidFrameID, frameID, r.capacity)
	}

	r.ts++
	n, ok := r.nodes[frameID]
	if !ok {
		n = &node{frame: frameID}
		r.nodes[frameID] = n
		n.recordAccess(r.ts, r.k)
		n.list = r.history
		n.elem = r.history.PushBack(n)
		return nil
	}

	n.recordAccess(r.ts, r.k)

	// History is ordered by first access, so a node still short of k
	// accesses keeps its place. Buffered is kept sorted by each node's
	// k-th-most-recent access (history[0]), oldest first.
	if !n.buffered(r.k) {
		return nil
	}
	n.list.Remove(n.elem)
	n.list = r.buffered
	mark := r.buffered.Back()
	for mark != nil && mark.Value.(*node).history[0] > n.history[0] {
		mark = mark.Prev()
	}
	if mark == nil {
		n.elem = r.buffered.PushFront(n)
	} else {
		n.elem = r.buffered.InsertAfter(n, mark)
	}
	return nil
}

// SetEvictable marks frame_id evictable or not. Idempotent; unknown frames
// are a no-op.
func (r *Replacer) SetEvictable(frameID page.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[frameID]
	if !ok || n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Evict picks a victim per the K-distance policy: the history bucket (every
// member has +inf K-distance) is scanned front-to-back first, then the
// buffered bucket, each time returning the first evictable node found.
func (r *Replacer) Evict() (page.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	if victim := scanEvictable(r.history); victim != nil {
		return r.evictNode(victim), true
	}
	if victim := scanEvictable(r.buffered); victim != nil {
		return r.evictNode(victim), true
	}
	return 0, false
}

func scanEvictable(l *list.List) *node {
	for e := l.Front(); e != nil; e = e.Next() {
		n := e.Value.(*node)
		if n.evictable {
			return n
		}
	}
	return nil
}

func (r *Replacer) evictNode(n *node) page.FrameID {
	n.list.Remove(n.elem)
	delete(r.nodes, n.frame)
	r.currSize--
	return n.frame
}

// Remove drops frame_id's tracked state entirely. Unknown frames are
// silently ignored; a tracked-but-non-evictable frame raises
// ErrFrameNotEvictable.
func (r *Replacer) Remove(frameID page.FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if !n.evictable {
		return fmt.Errorf("%w: frame %d", dberrors.ErrFrameNotEvictable, frameID)
	}
	n.list.Remove(n.elem)
	delete(r.nodes, frameID)
	r.currSize--
	return nil
}

// Size returns the current count of evictable frames.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
