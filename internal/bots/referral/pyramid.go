package referral

import (
	"strings"

	"github.com/set-night/ibisbots/internal/domain"
)

// Node is a person in the referral forest.
type Node struct {
	ID       string
	Children []Node
}

// Pair links a person to one of their ancestors Depth levels up.
type Pair struct {
	Ancestor string
	Node     string
	Depth    int
}

// BuildPyramid arranges people into referral trees, visiting them in the
// given order. Each person is placed once, under the first parent that
// reaches them, so cycles and repeated parents cannot recurse forever.
func BuildPyramid(people []domain.Person) []Node {
	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p.ID] = true
	}
	refs := make(map[string][]string, len(people))
	roots := make([]string, 0, len(people))
	for _, p := range people {
		if p.Referral != "" && known[p.Referral] {
			refs[p.Referral] = append(refs[p.Referral], p.ID)
		}
		roots = append(roots, p.ID)
	}
	return buildTrees(roots, refs, map[string]bool{})
}

func buildTrees(ids []string, refs map[string][]string, seen map[string]bool) []Node {
	var trees []Node
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		trees = append(trees, Node{ID: id, Children: buildTrees(refs[id], refs, seen)})
	}
	return trees
}

// AncestorPairs lists every (ancestor, node, depth) combination in the
// forest, depth 1 being a direct referral.
func AncestorPairs(trees []Node) []Pair {
	return ancestorPairs(trees, nil)
}

type ancestor struct {
	id    string
	depth int
}

func ancestorPairs(children []Node, ancestors []ancestor) []Pair {
	var out []Pair
	for _, c := range children {
		for _, a := range ancestors {
			out = append(out, Pair{Ancestor: a.id, Node: c.ID, Depth: a.depth})
		}
		deeper := make([]ancestor, 0, len(ancestors)+1)
		for _, a := range ancestors {
			deeper = append(deeper, ancestor{id: a.id, depth: a.depth + 1})
		}
		deeper = append(deeper, ancestor{id: c.ID, depth: 1})
		out = append(out, ancestorPairs(c.Children, deeper)...)
	}
	return out
}

// Render writes the forest as indented markdown paragraphs.
func Render(trees []Node, people map[string]domain.Person) string {
	var sb strings.Builder
	render(&sb, trees, people, 1)
	return sb.String()
}

func render(sb *strings.Builder, trees []Node, people map[string]domain.Person, depth int) {
	for _, n := range trees {
		sb.WriteString(strings.Repeat(pyramidStep, depth))
		sb.WriteString(" @")
		sb.WriteString(people[n.ID].Username)
		sb.WriteString("\n\n")
		render(sb, n.Children, people, depth+1)
	}
}
