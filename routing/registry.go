package routing

import (
	"errors"
	"fmt"
	"sort"

	t "github.com/a-powelson/Ryu-Firewall/common"
)

// ErrNoPath is returned when the destination is unreachable in the
// current graph. It is an expected outcome, not a failure.
var ErrNoPath = errors.New("no path")

// PathCalculator computes a single path between two nodes of g.
type PathCalculator interface {
	ComputePath(g *t.TopologyGraph, src, dst t.Node) (t.Path, error)
}

// calculators maps configuration names to algorithms. It is fixed at build
// time.
var calculators = map[string]PathCalculator{
	AlgorithmShortestHop: ShortestHop{},
}

// Lookup returns the algorithm configured under name.
func Lookup(name string) (PathCalculator, error) {
	calc, ok := calculators[name]
	if !ok {
		return nil, fmt.Errorf("algorithm '%s' not found (available: %v)", name, Algorithms())
	}
	return calc, nil
}

func Algorithms() []string {
	names := make([]string, 0, len(calculators))
	for name := range calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
