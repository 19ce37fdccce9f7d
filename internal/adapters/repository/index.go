package repository

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/okian/wpr/internal/domain/types"
)

// Treap-backed leaderboard index.
//
// Ordering: score DESC, then athlete id ASC. "less" means ranks earlier, so
// an in-order walk yields the leaderboard from best to worst.

// scoreScale keeps 12 decimal places of a progress score in [0,1].
const scoreScale = 1e12

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= 1 {
		return scoreScale
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1} //nolint:gosec // treap balance only
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

type indexEntry struct {
	score      scoreFP
	bottleneck string
}

// leaderboard orders athletes by overall progress score. Athletes with equal
// scores share a rank and the next distinct score takes the next rank.
type leaderboard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]indexEntry
}

func newLeaderboard() *leaderboard {
	return &leaderboard{byID: make(map[string]indexEntry)}
}

func (l *leaderboard) upsert(id string, score float64, bottleneck string) {
	fp := toFixedPoint(score)

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.byID[id]; ok {
		if old.score == fp {
			l.byID[id] = indexEntry{score: fp, bottleneck: bottleneck}
			return
		}
		l.root = deleteNode(l.root, id, old.score)
	}
	l.byID[id] = indexEntry{score: fp, bottleneck: bottleneck}
	l.root = insert(l.root, id, fp)
}

func (l *leaderboard) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.byID[id]; ok {
		l.root = deleteNode(l.root, id, old.score)
		delete(l.byID, id)
	}
}

func (l *leaderboard) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return nsize(l.root)
}

// top returns up to n entries in rank order.
func (l *leaderboard) top(n int) []types.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, nsize(l.root)))
	rank := 0
	var prev scoreFP = -1
	walk(l.root, func(nd *node) bool {
		if len(out) >= n {
			return false
		}
		if nd.score != prev {
			rank++
			prev = nd.score
		}
		out = append(out, l.entry(nd, rank))
		return true
	})
	return out
}

// rank returns the entry for id, false when it is not indexed.
func (l *leaderboard) rank(id string) (types.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	target, ok := l.byID[id]
	if !ok {
		return types.Entry{}, false
	}
	rank := 0
	var prev scoreFP = -1
	var found types.Entry
	walk(l.root, func(nd *node) bool {
		if nd.score != prev {
			rank++
			prev = nd.score
		}
		if nd.score == target.score {
			found = l.entry(nd, rank)
			found.AthleteID = id
			found.Bottleneck = target.bottleneck
			return false
		}
		return true
	})
	return found, true
}

func (l *leaderboard) entry(nd *node, rank int) types.Entry {
	return types.Entry{
		Rank:       rank,
		AthleteID:  nd.id,
		Score:      toFloat(nd.score),
		Bottleneck: l.byID[nd.id].bottleneck,
	}
}
