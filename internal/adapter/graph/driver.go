package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// Node is an exported graph node.
type Node struct {
	Labels []string
	Props  map[string]any
}

// Relationship is an exported directed edge including both endpoints, so a
// restore can match them by label and property set. Internal store
// identifiers are deliberately not carried: they are not stable across
// instances.
type Relationship struct {
	StartLabels []string
	StartProps  map[string]any
	Type        string
	Props       map[string]any
	EndLabels   []string
	EndProps    map[string]any
}

// Client is the narrow graph-store surface the exporter and restorer need.
type Client interface {
	Nodes(ctx context.Context) ([]Node, error)
	Relationships(ctx context.Context) ([]Relationship, error)
	Run(ctx context.Context, statement string) error
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (*domain.DatabaseStats, error)
	Close(ctx context.Context) error
}

// BoltClient talks to a Neo4j-compatible store over Bolt.
type BoltClient struct {
	driver neo4j.DriverWithContext
}

var _ Client = (*BoltClient)(nil)

func NewBoltClient(host string, port int, user, password string) (*BoltClient, error) {
	uri := fmt.Sprintf("bolt://%s:%d", host, port)
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	return &BoltClient{driver: driver}, nil
}

func (c *BoltClient) query(ctx context.Context, cypher string) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

func (c *BoltClient) Nodes(ctx context.Context) ([]Node, error) {
	records, err := c.query(ctx, "MATCH (n) RETURN n")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	nodes := make([]Node, 0, len(records))
	for _, record := range records {
		raw, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		nodes = append(nodes, Node{Labels: raw.Labels, Props: raw.Props})
	}
	return nodes, nil
}

func (c *BoltClient) Relationships(ctx context.Context) ([]Relationship, error) {
	records, err := c.query(ctx, `
		MATCH (a)-[r]->(b)
		RETURN
			labels(a) AS start_labels,
			properties(a) AS start_props,
			type(r) AS rel_type,
			properties(r) AS rel_props,
			labels(b) AS end_labels,
			properties(b) AS end_props`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}

	rels := make([]Relationship, 0, len(records))
	for _, record := range records {
		rels = append(rels, Relationship{
			StartLabels: toStrings(record.Values[0]),
			StartProps:  toProps(record.Values[1]),
			Type:        toString(record.Values[2]),
			Props:       toProps(record.Values[3]),
			EndLabels:   toStrings(record.Values[4]),
			EndProps:    toProps(record.Values[5]),
		})
	}
	return rels, nil
}

func (c *BoltClient) Run(ctx context.Context, statement string) error {
	_, err := neo4j.ExecuteQuery(ctx, c.driver, statement, nil, neo4j.EagerResultTransformer)
	return err
}

func (c *BoltClient) ClearAll(ctx context.Context) error {
	if err := c.Run(ctx, "MATCH (n) DETACH DELETE n"); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	return nil
}

func (c *BoltClient) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	stats := &domain.DatabaseStats{StoreKind: "neo4j"}

	records, err := c.query(ctx, "MATCH (n) RETURN count(n) AS count")
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	if len(records) > 0 {
		stats.NodeCount, _ = records[0].Values[0].(int64)
	}

	records, err = c.query(ctx, "MATCH ()-[r]->() RETURN count(r) AS count")
	if err != nil {
		return nil, fmt.Errorf("failed to count relationships: %w", err)
	}
	if len(records) > 0 {
		stats.RelationshipCount, _ = records[0].Values[0].(int64)
	}

	records, err = c.query(ctx, "CALL db.labels()")
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	for _, record := range records {
		stats.Labels = append(stats.Labels, toString(record.Values[0]))
	}

	records, err = c.query(ctx, "CALL db.relationshipTypes()")
	if err != nil {
		return nil, fmt.Errorf("failed to list relationship types: %w", err)
	}
	for _, record := range records {
		stats.RelationshipTypes = append(stats.RelationshipTypes, toString(record.Values[0]))
	}

	return stats, nil
}

func (c *BoltClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toProps(v any) map[string]any {
	props, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return props
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
