// Package boundary groups graph elements into service boundaries. Clustering
// runs Louvain community detection over an undirected projection of the
// dependency graph, then classifies each cluster with the configured pattern
// rules and scores its cohesion, coupling, and complexity.
package boundary

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/graph"
	"github.com/arcgraph/arcgraph/pkg/models"
)

// residualName is the boundary that absorbs clusters below the minimum size.
const residualName = "shared-utilities"

// Detector runs boundary detection with one compiled configuration.
type Detector struct {
	cfg     config.BoundaryConfig
	rules   []config.CompiledRule
	weights graph.Weights
}

// New compiles the configured classification rules.
func New(cfg *config.Config) (*Detector, error) {
	rules, err := cfg.CompiledRules()
	if err != nil {
		return nil, err
	}
	return &Detector{
		cfg:   cfg.Boundary,
		rules: rules,
		weights: graph.Weights{
			Edge:   cfg.Analysis.EdgeWeight,
			FanOut: cfg.Analysis.FanOutWeight,
			Cycle:  cfg.Analysis.CycleWeight,
		},
	}, nil
}

// Detect clusters the graph's internal elements and returns the scored
// boundaries sorted by name. External stubs never join a boundary. The same
// graph always yields the same boundaries: the Louvain pass runs with a
// fixed random source and every later step orders by element id.
func (d *Detector) Detect(g *graph.Graph, cycles [][]string) []models.ServiceBoundary {
	elements := g.Elements()

	var internal []int
	for i, el := range elements {
		if !el.External() {
			internal = append(internal, i)
		}
	}
	if len(internal) == 0 {
		return nil
	}

	clusters := d.cluster(g, internal)
	clusters = d.applySizeLimits(clusters, elements)

	inCycle := make(map[string]bool)
	for _, group := range cycles {
		for _, id := range group {
			inCycle[id] = true
		}
	}

	boundaries := make([]models.ServiceBoundary, 0, len(clusters))
	memberOf := make(map[int]int, len(internal))
	for ci, cluster := range clusters {
		for _, i := range cluster.members {
			memberOf[i] = ci
		}
	}

	for _, cluster := range clusters {
		b := d.score(g, cluster, inCycle)
		boundaries = append(boundaries, b)
	}

	d.nameBoundaries(boundaries, clusters, elements)
	d.linkDependencies(boundaries, clusters, memberOf, g)

	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Name < boundaries[j].Name })
	return boundaries
}

type cluster struct {
	members  []int
	residual bool
}

// cluster projects the directed graph onto a weighted undirected one and
// runs Louvain over it.
func (d *Detector) cluster(g *graph.Graph, internal []int) []cluster {
	und := simple.NewWeightedUndirectedGraph(0, 0)
	keep := make(map[int]bool, len(internal))
	for _, i := range internal {
		keep[i] = true
		und.AddNode(simple.Node(i))
	}
	for _, rel := range g.Relationships() {
		si, _ := g.IndexOf(rel.SourceID)
		ti, _ := g.IndexOf(rel.TargetID)
		if si == ti || !keep[si] || !keep[ti] {
			continue
		}
		w := rel.Strength
		if e := und.WeightedEdge(int64(si), int64(ti)); e != nil {
			w += e.Weight()
		}
		und.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(si), T: simple.Node(ti), W: w})
	}

	reduced := community.Modularize(und, 1.0, rand.NewPCG(1, 1))

	var clusters []cluster
	for _, comm := range reduced.Communities() {
		members := make([]int, len(comm))
		for j, node := range comm {
			members[j] = int(node.ID())
		}
		sort.Ints(members)
		clusters = append(clusters, cluster{members: members})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].members[0] < clusters[j].members[0]
	})
	return clusters
}

// applySizeLimits folds clusters below the minimum size into a residual set
// and splits any cluster above the maximum, the residual included, into
// id-ordered chunks.
func (d *Detector) applySizeLimits(clusters []cluster, elements []models.Element) []cluster {
	var kept []cluster
	var residual []int

	for _, c := range clusters {
		switch {
		case len(c.members) < d.cfg.MinClusterSize:
			residual = append(residual, c.members...)
		case len(c.members) > d.cfg.MaxClusterSize:
			for _, chunk := range chunkByID(c.members, d.cfg.MaxClusterSize, elements) {
				kept = append(kept, cluster{members: chunk})
			}
		default:
			kept = append(kept, c)
		}
	}

	for _, chunk := range chunkByID(residual, d.cfg.MaxClusterSize, elements) {
		kept = append(kept, cluster{members: chunk, residual: true})
	}
	return kept
}

// chunkByID orders members by element id and splits them into chunks of at
// most max members.
func chunkByID(members []int, max int, elements []models.Element) [][]int {
	if len(members) == 0 {
		return nil
	}
	sorted := append([]int(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		return elements[sorted[i]].ID < elements[sorted[j]].ID
	})
	var chunks [][]int
	for start := 0; start < len(sorted); start += max {
		end := min(start+max, len(sorted))
		chunk := append([]int(nil), sorted[start:end]...)
		sort.Ints(chunk)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// score computes the boundary record for one cluster.
func (d *Detector) score(g *graph.Graph, c cluster, inCycle map[string]bool) models.ServiceBoundary {
	elements := g.Elements()
	member := make(map[int]bool, len(c.members))
	for _, i := range c.members {
		member[i] = true
	}

	internalEdges := 0
	outgoing := 0
	incoming := 0
	fanTargets := make(map[int]bool)
	cycleMembers := 0

	for _, i := range c.members {
		for _, t := range g.Dependencies(i) {
			if member[t] {
				internalEdges++
			} else {
				outgoing++
				fanTargets[t] = true
			}
		}
		for _, s := range g.Dependents(i) {
			if !member[s] {
				incoming++
			}
		}
		if inCycle[elements[i].ID] {
			cycleMembers++
		}
	}

	n := len(c.members)
	touching := internalEdges + outgoing + incoming
	crossing := outgoing + incoming

	b := models.ServiceBoundary{
		Elements:   make([]string, n),
		Complexity: graph.Complexity(touching, len(fanTargets), cycleMembers, d.weights),
	}
	for j, i := range c.members {
		b.Elements[j] = elements[i].ID
	}
	sort.Strings(b.Elements)
	b.ID = boundaryID(b.Elements)

	if n > 1 {
		b.Cohesion = float64(internalEdges) / float64(n*(n-1))
	}
	if touching > 0 {
		b.Coupling = float64(crossing) / float64(touching)
	}

	if c.residual {
		b.Type = models.BoundaryUtility
	} else {
		b.Type = d.classify(c.members, elements)
	}
	return b
}

// classify votes each member through the rule table, first match wins per
// member, and takes the majority with the fixed type priority breaking ties.
func (d *Detector) classify(members []int, elements []models.Element) models.BoundaryType {
	votes := make(map[models.BoundaryType]int)
	for _, i := range members {
		votes[d.classifyElement(elements[i])]++
	}

	best := models.BoundaryUtility
	bestVotes := -1
	for _, t := range models.BoundaryTypePriority {
		if votes[t] > bestVotes {
			best = t
			bestVotes = votes[t]
		}
	}
	return best
}

func (d *Detector) classifyElement(el models.Element) models.BoundaryType {
	for _, rule := range d.rules {
		if rule.Pattern.MatchString(el.File) ||
			rule.Pattern.MatchString(el.Name) ||
			rule.Pattern.MatchString(el.Module) {
			return rule.Type
		}
	}
	return models.BoundaryUtility
}

// nameBoundaries names each boundary after its dominant module, with a
// numeric suffix when modules collide and a fixed name for the residual.
func (d *Detector) nameBoundaries(boundaries []models.ServiceBoundary, clusters []cluster, elements []models.Element) {
	used := make(map[string]int)
	for bi := range boundaries {
		name := residualName
		if !clusters[bi].residual {
			name = dominantModule(clusters[bi].members, elements)
		}
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		boundaries[bi].Name = name
	}
}

func dominantModule(members []int, elements []models.Element) string {
	counts := make(map[string]int)
	for _, i := range members {
		if m := elements[i].Module; m != "" {
			counts[m]++
		}
	}
	if len(counts) == 0 {
		return "unnamed"
	}
	modules := make([]string, 0, len(counts))
	for m := range counts {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	best := modules[0]
	for _, m := range modules[1:] {
		if counts[m] > counts[best] {
			best = m
		}
	}
	return best
}

// linkDependencies records, per boundary, the ids of the other boundaries
// its members depend on.
func (d *Detector) linkDependencies(boundaries []models.ServiceBoundary, clusters []cluster, memberOf map[int]int, g *graph.Graph) {
	for bi := range boundaries {
		deps := make(map[string]bool)
		for _, i := range clusters[bi].members {
			for _, t := range g.Dependencies(i) {
				ti, ok := memberOf[t]
				if ok && ti != bi {
					deps[boundaries[ti].ID] = true
				}
			}
		}
		if len(deps) == 0 {
			continue
		}
		out := make([]string, 0, len(deps))
		for id := range deps {
			out = append(out, id)
		}
		sort.Strings(out)
		boundaries[bi].Dependencies = out
	}
}

func boundaryID(memberIDs []string) string {
	h := xxhash.New()
	for _, id := range memberIDs {
		h.WriteString(id)
		h.WriteString("|")
	}
	return fmt.Sprintf("bnd-%016x", h.Sum64())
}
