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

// ErrCycle is returned when pass dependencies form a cycle.
var ErrCycle = errors.New("pipeline: dependency cycle")

// DependencyError reports a missing producer or an unordered pair of passes
// sharing storage.
type DependencyError struct {
	Pass   string
	Other  string
	Reason string
}

func (e *DependencyError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("pipeline: pass %s: %s", e.Pass, e.Reason)
	}
	return fmt.Sprintf("pipeline: passes %s and %s: %s", e.Pass, e.Other, e.Reason)
}

// schedule orders passes topologically. Node IDs are declaration indices, so
// ties keep declaration order and the issue order is identical every frame.
func schedule(passes []Pass) ([]int, error) {
	index := make(map[string]int, len(passes))
	for i := range passes {
		name := passes[i].Name
		if name == "" {
			return nil, &DependencyError{Pass: fmt.Sprintf("#%d", i), Reason: "unnamed pass"}
		}
		if _, dup := index[name]; dup {
			return nil, &DependencyError{Pass: name, Reason: "duplicate pass name"}
		}
		index[name] = i
	}

	g := simple.NewDirectedGraph()
	for i := range passes {
		g.AddNode(simple.Node(i))
	}
	for i := range passes {
		for _, dep := range passes[i].After {
			j, ok := index[dep]
			if !ok {
				return nil, &DependencyError{Pass: passes[i].Name, Reason: fmt.Sprintf("depends on unknown pass %q", dep)}
			}
			if j == i {
				return nil, fmt.Errorf("%w: %s depends on itself", ErrCycle, passes[i].Name)
			}
			g.SetEdge(g.NewEdge(simple.Node(j), simple.Node(i)))
		}
	}

	sorted, err := topo.SortStabilized(g, byDeclaration)
	if err != nil {
		var cyc topo.Unorderable
		if errors.As(err, &cyc) {
			return nil, fmt.Errorf("%w among %s", ErrCycle, cycleNames(passes, cyc))
		}
		return nil, err
	}
	order := make([]int, len(sorted))
	for i, n := range sorted {
		order[i] = int(n.ID())
	}

	if err := checkHazards(passes, g); err != nil {
		return nil, err
	}
	return order, nil
}

func byDeclaration(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
}

func cycleNames(passes []Pass, cyc topo.Unorderable) string {
	var names []string
	for _, component := range cyc {
		for _, n := range component {
			names = append(names, passes[n.ID()].Name)
		}
	}
	return strings.Join(names, ", ")
}

// checkHazards rejects two passes that touch the same storage, at least one
// writing, with no path between them in the dependency graph.
func checkHazards(passes []Pass, g graph.Directed) error {
	for i := range passes {
		for j := i + 1; j < len(passes); j++ {
			a, b := simple.Node(i), simple.Node(j)
			if topo.PathExistsIn(g, a, b) || topo.PathExistsIn(g, b, a) {
				continue
			}
			if r, ok := conflict(&passes[i], &passes[j]); ok {
				return &DependencyError{Pass: passes[i].Name, Other: passes[j].Name, Reason: fmt.Sprintf("unordered access to %s", r)}
			}
		}
	}
	return nil
}

// conflict returns a storage group both passes touch with at least one write.
func conflict(a, b *Pass) (Role, bool) {
	for _, sa := range a.Slots {
		for _, sb := range b.Slots {
			if aliasGroup(sa.Role) != aliasGroup(sb.Role) {
				continue
			}
			if (sa.Access|sb.Access)&Write != 0 {
				return aliasGroup(sa.Role), true
			}
		}
	}
	return 0, false
}
