package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

// Store serves fact lookups from a Neo4j knowledge graph. Facts are
// (subject)-[relation]->(object) triples matched by full-text search over
// subject names.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewStore(ctx context.Context, uri, user, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Store{driver: driver, database: database}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// LookupFacts returns up to limit triples whose subject matches the query.
func (s *Store) LookupFacts(ctx context.Context, query string, limit int) ([]domain.Fact, error) {
	if limit <= 0 {
		limit = 10
	}

	const cypher = `
MATCH (s:Entity)-[r]->(o:Entity)
WHERE toLower(s.name) CONTAINS toLower($query)
RETURN s.name AS subject, type(r) AS relation, o.name AS object
LIMIT $limit
`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher,
		map[string]any{"query": query, "limit": limit},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return nil, fmt.Errorf("lookup facts: %w", err)
	}

	facts := make([]domain.Fact, 0, len(result.Records))
	for _, record := range result.Records {
		subject, _, _ := neo4j.GetRecordValue[string](record, "subject")
		relation, _, _ := neo4j.GetRecordValue[string](record, "relation")
		object, _, _ := neo4j.GetRecordValue[string](record, "object")
		facts = append(facts, domain.Fact{Subject: subject, Relation: relation, Object: object})
	}
	return facts, nil
}
