package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/registry"
)

const defaultPolicyLimit = 5

// Policy is one section of the travel policy database
type Policy struct {
	Category string
	Title    string
	Body     string
}

// PolicyStore serves corporate travel policy lookups from a sqlite
// database with a single policies table
type PolicyStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenPolicyStore opens the policy database and checks that it has
// been seeded
func OpenPolicyStore(path string, logger zerolog.Logger) (*PolicyStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy database: %w", err)
	}

	var tables int
	err = db.QueryRow(`
		SELECT count(*) FROM sqlite_master
		WHERE type='table' AND name='policies'
	`).Scan(&tables)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect policy database: %w", err)
	}
	if tables == 0 {
		db.Close()
		return nil, fmt.Errorf("policy database %s has no policies table", path)
	}

	return &PolicyStore{
		db:     db,
		logger: logger.With().Str("component", "policy").Logger(),
	}, nil
}

// Register adds the search tool to a registry
func (s *PolicyStore) Register(reg *registry.Registry) error {
	tool := mcp.Tool{
		Name:        "search_travel_policy",
		Description: "Search the corporate travel policy for sections matching a phrase",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Word or phrase to search for, e.g. \"business class\" or \"hotel\"",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of sections to return (default 5)",
				},
			},
			Required: []string{"query"},
		},
	}
	return reg.Register(tool, s.execute)
}

func (s *PolicyStore) execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query parameter is required")
	}

	limit := defaultPolicyLimit
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	policies, err := s.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}

	if len(policies) == 0 {
		return "No matching policy sections found.", nil
	}

	sections := make([]string, 0, len(policies))
	for _, p := range policies {
		sections = append(sections, fmt.Sprintf("[%s] %s\n%s", p.Category, p.Title, p.Body))
	}
	return strings.Join(sections, "\n---\n"), nil
}

// Search returns policy sections whose category, title or body match
// the query, in seed order
func (s *PolicyStore) Search(ctx context.Context, query string, limit int) ([]Policy, error) {
	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, title, body FROM policies
		WHERE title LIKE ? OR body LIKE ? OR category LIKE ?
		ORDER BY id
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.Category, &p.Title, &p.Body); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// Close releases the database handle
func (s *PolicyStore) Close() error {
	return s.db.Close()
}
