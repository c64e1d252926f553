package graph

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Exporter writes the whole graph as Cypher CREATE statements, one per line.
// Relationship endpoints are matched by label and full property set rather
// than by internal identifiers, which keeps the export portable across store
// instances.
type Exporter struct {
	client Client
	log    *zap.SugaredLogger
}

func NewExporter(client Client, log *zap.SugaredLogger) *Exporter {
	return &Exporter{client: client, log: log}
}

// Export streams the statements to w and returns how many were written.
// Statements never contain raw newlines: all string values pass through
// EncodeValue, which escapes them.
func (e *Exporter) Export(ctx context.Context, w *bufio.Writer) (int, error) {
	count := 0

	e.log.Infow("exporting nodes")
	nodes, err := e.client.Nodes(ctx)
	if err != nil {
		return count, err
	}
	for _, node := range nodes {
		if _, err := fmt.Fprintf(w, "%s\n", NodeStatement(node)); err != nil {
			return count, fmt.Errorf("failed to write node statement: %w", err)
		}
		count++
	}

	e.log.Infow("exporting relationships", "nodes", len(nodes))
	rels, err := e.client.Relationships(ctx)
	if err != nil {
		return count, err
	}
	for _, rel := range rels {
		if _, err := fmt.Fprintf(w, "%s\n", RelationshipStatement(rel)); err != nil {
			return count, fmt.Errorf("failed to write relationship statement: %w", err)
		}
		count++
	}

	if err := w.Flush(); err != nil {
		return count, fmt.Errorf("failed to flush export: %w", err)
	}

	e.log.Infow("export complete", "statements", count)
	return count, nil
}

// NodeStatement renders one node as a CREATE statement.
func NodeStatement(node Node) string {
	label := encodeLabels(node.Labels)
	props := EncodeProps(node.Props)
	if props == "" {
		return fmt.Sprintf("CREATE (:%s);", label)
	}
	return fmt.Sprintf("CREATE (:%s %s);", label, props)
}

// RelationshipStatement renders one edge as a MATCH of both endpoints plus a
// CREATE of the typed relationship between them.
func RelationshipStatement(rel Relationship) string {
	return fmt.Sprintf("MATCH (a:%s %s), (b:%s %s) CREATE (a)-[:%s %s]->(b);",
		encodeLabels(rel.StartLabels), EncodeProps(rel.StartProps),
		encodeLabels(rel.EndLabels), EncodeProps(rel.EndProps),
		EncodeName(rel.Type), EncodeProps(rel.Props))
}

func encodeLabels(labels []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = EncodeName(l)
	}
	return strings.Join(parts, ":")
}
