// Package cycle verifies that a submitted vertex sequence is a Hamiltonian
// cycle in a graph, and, after an activation time, additionally enforces a
// "2-opt ground state" structural restriction. The activation time is
// compared against an injected Unix-seconds clock rather than the wall
// clock directly, so tests can exercise both sides of the gate.
package cycle

import "github.com/tos-network/powvalidator/internal/graph"

// Sentinel marks an "absent" vertex in a path-buffer; it must never appear
// inside a reported cycle.
const Sentinel = uint16(0xFFFF)

// ActivationTime is the Unix-seconds timestamp at which the 2-opt
// ground-state check starts being enforced.
const ActivationTime int64 = 1766797200

// Verify reports whether path is a Hamiltonian cycle in g starting at
// vertex 0, and, once now has reached ActivationTime, whether it also
// satisfies the 2-opt ground-state predicate.
func Verify(g *graph.Graph, path []uint16, now int64) bool {
	n := g.N()
	if n == 0 || len(path) != n || path[0] != 0 {
		return false
	}

	seen := make([]bool, n)
	for _, v := range path {
		if v == Sentinel {
			return false
		}
		if int(v) >= n || seen[v] {
			return false
		}
		seen[v] = true
	}

	for i := 1; i < n; i++ {
		if !g.Get(int(path[i-1]), int(path[i])) {
			return false
		}
	}
	if !g.Get(int(path[n-1]), int(path[0])) {
		return false
	}

	if now >= ActivationTime && violatesGroundState(g, path) {
		return false
	}

	return true
}

// violatesGroundState implements the time-gated 2-opt predicate: a pair of
// indices i < j, both at most n-2, such that both G[path[i]][path[j]] and
// G[path[i+1]][path[j+1]] hold, and path[j] < path[i+1], would admit a
// cost-reducing 2-opt swap under the canonical vertex-id ordering. The
// wrap-around case j = n-1 is deliberately excluded, matching the reference
// predicate exactly.
func violatesGroundState(g *graph.Graph, path []uint16) bool {
	n := len(path)
	for i := 0; i <= n-2; i++ {
		for j := i + 1; j <= n-2; j++ {
			if g.Get(int(path[i]), int(path[j])) &&
				g.Get(int(path[i+1]), int(path[j+1])) &&
				path[j] < path[i+1] {
				return true
			}
		}
	}
	return false
}
