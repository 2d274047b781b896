package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/junioryono/ioc/internal/registry"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer) WriteDOT(w io.Writer) error {
	keys := v.graph.Keys()
	edges := v.graph.Edges()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	nodeIDs := make(map[registry.Key]string, len(keys))
	for i, key := range keys {
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[key] = nodeID

		node, _ := v.graph.GetNode(key)
		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeID, v.formatNodeLabel(node), v.getNodeColor(node))
	}

	for _, edge := range edges {
		style := ""
		switch edge.Kind {
		case ParentEdge:
			style = " [style=dashed, label=\"parent\"]"
		case ImplementationEdge:
			style = " [style=dotted, label=\"impl\"]"
		}
		fmt.Fprintf(&b, "  %s -> %s%s;\n", nodeIDs[edge.From], nodeIDs[edge.To], style)
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph
func (v *Visualizer) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	for _, key := range v.graph.Keys() {
		node, _ := v.graph.GetNode(key)
		v.writeNodeDetails(&b, node, "  ")
	}

	b.WriteString("\n")
	v.writeStatistics(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func (v *Visualizer) formatNodeLabel(node Node) string {
	label := registry.FormatType(node.Key.Type)
	if node.Key.Qualifier != registry.DefaultQualifier {
		label += fmt.Sprintf("\\n[%s]", node.Key.Qualifier)
	}
	if node.Owner != nil {
		label += fmt.Sprintf("\\nowner: %T", node.Owner)
	}
	return strings.ReplaceAll(label, "\"", "'")
}

// getNodeColor determines the color for a node based on its properties
func (v *Visualizer) getNodeColor(node Node) string {
	switch {
	case node.Owner == nil:
		return "lightgray"
	case node.Key.IsAbstract():
		return "lightyellow"
	default:
		return "lightblue"
	}
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer) writeNodeDetails(b *strings.Builder, node Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, node.Key.String())

	if node.Owner != nil {
		fmt.Fprintf(b, "%s  Owner: %T\n", indent, node.Owner)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, joinKeys(node.Dependencies))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, joinKeys(node.Dependents))
	}
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder) {
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", v.graph.Size())
	fmt.Fprintf(b, "  Total edges: %d\n", len(v.graph.Edges()))
	fmt.Fprintf(b, "  Root nodes (no dependents): %d\n", len(v.graph.GetRoots()))
	fmt.Fprintf(b, "  Leaf nodes (no dependencies): %d\n", len(v.graph.GetLeaves()))
}

func joinKeys(keys []registry.Key) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key.String()
	}
	return strings.Join(parts, ", ")
}
