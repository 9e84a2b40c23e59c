package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrCycle is returned when stage dependencies form a cycle.
	ErrCycle = errors.New("pipeline: stage dependency cycle")
	// ErrUnknownStage is returned when a dependency names no declared stage.
	ErrUnknownStage = errors.New("pipeline: unknown stage")
	// ErrDuplicateStage is returned when two stages share a name.
	ErrDuplicateStage = errors.New("pipeline: duplicate stage")
	// ErrStageOrder is returned when a render stage sorts before a compute stage.
	ErrStageOrder = errors.New("pipeline: render stage before compute stage")
)

// Kind separates the compute chain from the render chain.
type Kind int

const (
	KindCompute Kind = iota
	KindRender
)

func (k Kind) String() string {
	if k == KindRender {
		return "render"
	}
	return "compute"
}

// Stage is one pass of the frame. Run reads the frame snapshot and writes only
// the outputs the stage owns.
type Stage interface {
	Name() string
	Kind() Kind
	Run(f *Frame)
}

// Node declares a stage and the stages whose outputs it reads.
type Node struct {
	Stage Stage
	After []string
}

// Sort orders the nodes so every stage follows its dependencies. Ties keep
// declaration order. Fails on duplicates, unknown dependencies, cycles, or a
// render stage sorting ahead of a compute stage.
func Sort(nodes []Node) ([]Stage, error) {
	index := make(map[string]int64, len(nodes))
	for i, n := range nodes {
		name := n.Stage.Name()
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, name)
		}
		index[name] = int64(i)
	}

	// Node IDs are declaration indices; edges run from a dependency to its dependent
	g := simple.NewDirectedGraph()
	for i := range nodes {
		g.AddNode(simple.Node(i))
	}
	for i, n := range nodes {
		for _, dep := range n.After {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownStage, n.Stage.Name(), dep)
			}
			if j == int64(i) {
				return nil, fmt.Errorf("%w: %s depends on itself", ErrCycle, dep)
			}
			g.SetEdge(g.NewEdge(simple.Node(j), simple.Node(i)))
		}
	}

	sorted, err := topo.SortStabilized(g, declarationOrder)
	if err != nil {
		var cyclic topo.Unorderable
		if errors.As(err, &cyclic) {
			return nil, fmt.Errorf("%w: %s", ErrCycle, cycleNames(nodes, cyclic))
		}
		return nil, err
	}

	out := make([]Stage, len(sorted))
	seenRender := false
	for k, v := range sorted {
		s := nodes[v.ID()].Stage
		if s.Kind() == KindRender {
			seenRender = true
		} else if seenRender {
			return nil, fmt.Errorf("%w: %s", ErrStageOrder, s.Name())
		}
		out[k] = s
	}
	return out, nil
}

// declarationOrder breaks ties between independent stages by declaration index.
func declarationOrder(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		return cmp.Compare(a.ID(), b.ID())
	})
}

// cycleNames lists the stages of each cyclic component.
func cycleNames(nodes []Node, cyclic topo.Unorderable) string {
	parts := make([]string, len(cyclic))
	for i, component := range cyclic {
		names := make([]string, len(component))
		for k, v := range component {
			names[k] = nodes[v.ID()].Stage.Name()
		}
		parts[i] = strings.Join(names, " -> ")
	}
	return strings.Join(parts, "; ")
}
