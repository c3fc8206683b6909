// Package graph builds the dependency graph over resolved elements and
// computes per-node and aggregate metrics. The graph keeps a dense index
// arena for fast adjacency work and mirrors it into a gonum directed graph
// for the algorithms that want one.
package graph

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/arcgraph/arcgraph/pkg/models"
)

// Weights are the coefficients of the complexity score.
type Weights struct {
	Edge   float64
	FanOut float64
	Cycle  float64
}

// Metrics are the per-node instability numbers. Afferent counts distinct
// dependents, efferent counts distinct dependencies, impact is the fraction
// of the graph transitively affected by a change to the node.
type Metrics struct {
	Afferent    int     `json:"afferent" toon:"afferent"`
	Efferent    int     `json:"efferent" toon:"efferent"`
	Instability float64 `json:"instability" toon:"instability"`
	Impact      float64 `json:"impact" toon:"impact"`
}

// Graph is an immutable dependency graph over one element set.
type Graph struct {
	elements []models.Element
	rels     []models.Relationship
	index    map[string]int
	out      [][]int
	in       [][]int
	selfLoop []bool
	directed *simple.DirectedGraph

	diagnostics []models.Diagnostic
}

// Build indexes the elements and installs every relationship whose endpoints
// both exist. Dangling relationships are dropped and reported as integrity
// diagnostics instead of failing the build. Bidirectional relationships are
// materialized as a mirrored pair of directed edges.
func Build(elements []models.Element, rels []models.Relationship) *Graph {
	g := &Graph{
		elements: elements,
		index:    make(map[string]int, len(elements)),
		out:      make([][]int, len(elements)),
		in:       make([][]int, len(elements)),
		selfLoop: make([]bool, len(elements)),
		directed: simple.NewDirectedGraph(),
	}
	for i, el := range elements {
		g.index[el.ID] = i
		g.directed.AddNode(simple.Node(i))
	}

	for _, rel := range rels {
		src, okSrc := g.index[rel.SourceID]
		dst, okDst := g.index[rel.TargetID]
		if !okSrc || !okDst {
			g.diagnostics = append(g.diagnostics, models.Diagnostic{
				Kind:    models.DiagGraphIntegrity,
				Message: fmt.Sprintf("dropping %s edge %s: endpoint not in element set", rel.Kind, rel.ID),
			})
			continue
		}
		g.rels = append(g.rels, rel)
		g.addEdge(src, dst)
		if rel.Bidirectional {
			g.addEdge(dst, src)
		}
	}
	return g
}

func (g *Graph) addEdge(src, dst int) {
	if src == dst {
		g.selfLoop[src] = true
		return
	}
	for _, t := range g.out[src] {
		if t == dst {
			return
		}
	}
	g.out[src] = append(g.out[src], dst)
	g.in[dst] = append(g.in[dst], src)
	g.directed.SetEdge(simple.Edge{F: simple.Node(src), T: simple.Node(dst)})
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.elements) }

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, adj := range g.out {
		n += len(adj)
	}
	return n
}

// Elements returns the indexed element slice. Callers must not mutate it.
func (g *Graph) Elements() []models.Element { return g.elements }

// Relationships returns the installed relationships, dangling edges removed.
func (g *Graph) Relationships() []models.Relationship { return g.rels }

// Diagnostics returns the integrity problems found while building.
func (g *Graph) Diagnostics() []models.Diagnostic { return g.diagnostics }

// IndexOf returns the dense index of an element id.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Dependencies returns the dense indices this node points at.
func (g *Graph) Dependencies(i int) []int { return g.out[i] }

// Dependents returns the dense indices pointing at this node.
func (g *Graph) Dependents(i int) []int { return g.in[i] }

// NodeMetrics computes afferent/efferent coupling, instability, and impact
// for every node. Impact is the share of all nodes reachable by walking
// dependent edges from the node, computed with reachability bitsets.
func (g *Graph) NodeMetrics() map[string]Metrics {
	n := len(g.elements)
	metrics := make(map[string]Metrics, n)
	if n == 0 {
		return metrics
	}

	for i, el := range g.elements {
		ca := len(g.in[i])
		ce := len(g.out[i])
		m := Metrics{Afferent: ca, Efferent: ce}
		if ca+ce > 0 {
			m.Instability = float64(ce) / float64(ca+ce)
		}
		m.Impact = float64(g.reach(i).GetCardinality()) / float64(n)
		metrics[el.ID] = m
	}
	return metrics
}

// reach returns the set of nodes transitively dependent on node i,
// excluding i itself.
func (g *Graph) reach(i int) *roaring.Bitmap {
	visited := roaring.New()
	stack := append([]int(nil), g.in[i]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == i || visited.Contains(uint32(cur)) {
			continue
		}
		visited.Add(uint32(cur))
		stack = append(stack, g.in[cur]...)
	}
	return visited
}

// Cycles returns the strongly connected components that form dependency
// cycles: components with more than one member, plus single nodes with a
// self edge. Groups and their members are sorted by element id.
func (g *Graph) Cycles() [][]string {
	var groups [][]string
	for _, scc := range topo.TarjanSCC(g.directed) {
		if len(scc) < 2 {
			i := int(scc[0].ID())
			if !g.selfLoop[i] {
				continue
			}
		}
		ids := make([]string, len(scc))
		for j, node := range scc {
			ids[j] = g.elements[int(node.ID())].ID
		}
		sort.Strings(ids)
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// MaxDepth returns the length of the longest acyclic dependency chain.
// Edges that would close a cycle are skipped during the walk.
func (g *Graph) MaxDepth() int {
	n := len(g.elements)
	memo := make([]int, n)
	onStack := make([]bool, n)

	var depth func(i int) int
	depth = func(i int) int {
		if memo[i] != 0 {
			return memo[i]
		}
		onStack[i] = true
		best := 1
		for _, t := range g.out[i] {
			if onStack[t] {
				continue
			}
			if d := depth(t) + 1; d > best {
				best = d
			}
		}
		onStack[i] = false
		memo[i] = best
		return best
	}

	max := 0
	for i := range g.elements {
		if d := depth(i); d > max {
			max = d
		}
	}
	return max
}

// Summary computes the aggregate graph numbers for the result.
func (g *Graph) Summary(cycles [][]string) models.GraphSummary {
	n := len(g.elements)
	edges := g.EdgeCount()
	summary := models.GraphSummary{
		TotalNodes: n,
		TotalEdges: edges,
		CycleCount: len(cycles),
	}
	if n > 1 {
		summary.Density = float64(edges) / float64(n*(n-1))
		summary.MaxDepth = g.MaxDepth()
	} else if n == 1 {
		summary.MaxDepth = 1
	}
	return summary
}

// Complexity scores a unit by its edge count, fan-out, and cycle membership
// under the configured coefficients. Higher is worse.
func Complexity(edges, fanOut, cycleMembers int, w Weights) float64 {
	return float64(edges)*w.Edge + float64(fanOut)*w.FanOut + float64(cycleMembers)*w.Cycle
}
