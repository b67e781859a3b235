package connectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const composeFixture = `
services:
  api:
    image: acme/api:1.4
    labels:
      team: core
      oncall: core-oncall
      tier: "1"
    ports:
      - "8080:8080"
    depends_on:
      - users-db
      - sessions
    environment:
      - PAYMENTS_URL=http://payments:9000
  payments:
    image: acme/payments:2.0
    labels:
      team: payments
    environment:
      DATABASE_URL: postgres://payments-db:5432/payments
  users-db:
    image: postgres:15
  payments-db:
    image: postgres:15
  sessions:
    image: redis:7
`

func parseCompose(t *testing.T) ([]*graph.Node, []*graph.Edge) {
	t.Helper()
	path := writeFixture(t, "docker-compose.yml", composeFixture)
	nodes, edges, err := NewDockerComposeConnector(path).Parse()
	require.NoError(t, err)
	return nodes, edges
}

func TestDockerCompose_NodeTypes(t *testing.T) {
	nodes, _ := parseCompose(t)

	byID := make(map[string]*graph.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}

	require.Len(t, nodes, 5)
	assert.Equal(t, graph.TypeService, byID["service:api"].Type)
	assert.Equal(t, graph.TypeService, byID["service:payments"].Type)
	assert.Equal(t, graph.TypeDatabase, byID["database:users-db"].Type)
	assert.Equal(t, graph.TypeDatabase, byID["database:payments-db"].Type)
	assert.Equal(t, graph.TypeCache, byID["cache:sessions"].Type)
}

func TestDockerCompose_NodeProperties(t *testing.T) {
	nodes, _ := parseCompose(t)

	var api *graph.Node
	for _, n := range nodes {
		if n.ID == "service:api" {
			api = n
		}
	}
	require.NotNil(t, api)

	assert.Equal(t, "core", api.Properties["team"])
	assert.Equal(t, "core-oncall", api.Properties["oncall"])
	assert.Equal(t, 8080, api.Properties["port"])
	assert.Equal(t, "1", api.Properties["tier"], "extra labels carried through")
}

func TestDockerCompose_Edges(t *testing.T) {
	_, edges := parseCompose(t)

	byID := make(map[string]*graph.Edge)
	for _, e := range edges {
		byID[e.ID] = e
	}

	readsDB, ok := byID["edge:api-reads_from-users-db"]
	require.True(t, ok)
	assert.Equal(t, "service:api", readsDB.Source)
	assert.Equal(t, "database:users-db", readsDB.Target)

	usesCache, ok := byID["edge:api-uses-sessions"]
	require.True(t, ok)
	assert.Equal(t, graph.EdgeUses, usesCache.Type)

	// *_URL env vars create call edges to services named by the host.
	callsPayments, ok := byID["edge:api-calls-payments"]
	require.True(t, ok)
	assert.Equal(t, graph.EdgeCalls, callsPayments.Type)

	envDB, ok := byID["edge:payments-reads_from-payments-db"]
	require.True(t, ok)
	assert.Equal(t, graph.EdgeReadsFrom, envDB.Type)
}

func TestDockerCompose_DependsOnMapForm(t *testing.T) {
	path := writeFixture(t, "docker-compose.yml", `
services:
  api:
    image: acme/api
    depends_on:
      users-db:
        condition: service_healthy
  users-db:
    image: postgres:15
`)
	_, edges, err := NewDockerComposeConnector(path).Parse()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "edge:api-reads_from-users-db", edges[0].ID)
}

func TestDockerCompose_UnknownURLHostSkipped(t *testing.T) {
	path := writeFixture(t, "docker-compose.yml", `
services:
  api:
    image: acme/api
    environment:
      - EXTERNAL_URL=https://api.stripe.com/v1
`)
	_, edges, err := NewDockerComposeConnector(path).Parse()
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestDockerCompose_MissingFile(t *testing.T) {
	_, _, err := NewDockerComposeConnector("/nonexistent/compose.yml").Parse()
	assert.Error(t, err)
}

func TestExtractServiceFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://payments:9000", "payments"},
		{"http://payments/health", "payments"},
		{"postgres://payments-db:5432/db", "payments-db"},
		{"user@payments-db:5432", "payments-db"},
		{"http://payments", "payments"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractServiceFromURL(tt.url), tt.url)
	}
}
